package booklets

import (
	"context"

	"wrapcrm_backend/internal/email"
	"wrapcrm_backend/internal/events"
	"wrapcrm_backend/platform/logger"
)

// TemplateShippingNotification is the email template type used for shipping
// notices.
const TemplateShippingNotification = "shipping_notification"

// TemplateRenderer renders the active admin-managed template of a type.
// found is false when no active template exists.
type TemplateRenderer interface {
	RenderActive(ctx context.Context, templateType string, vars map[string]string) (subject, body string, found bool, err error)
}

// ShippingNotifier emails the customer when an order moves to Shipped.
type ShippingNotifier struct {
	repo        Repository
	sender      email.Sender
	templates   TemplateRenderer
	trackingURL TrackingURLFunc
	log         *logger.Logger
}

func NewShippingNotifier(repo Repository, sender email.Sender, templates TemplateRenderer, trackingURL TrackingURLFunc, log *logger.Logger) *ShippingNotifier {
	return &ShippingNotifier{repo: repo, sender: sender, templates: templates, trackingURL: trackingURL, log: log}
}

// Subscribe registers the notifier on bus.
func (n *ShippingNotifier) Subscribe(bus events.Bus) {
	bus.Subscribe(events.BookletStatusChanged{}.EventName(), n)
}

func (n *ShippingNotifier) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.BookletStatusChanged)
	if !ok || e.NewStatus != StatusShipped || e.CustomerEmail == "" {
		return nil
	}

	b, err := n.repo.GetByID(ctx, e.BookletID)
	if err != nil {
		return err
	}

	data := email.ShippingNotification{
		CustomerName:   b.CustomerName,
		ProductLabel:   ProductLabel(b.ProductType),
		TrackingNumber: e.TrackingNumber,
	}
	if e.TrackingNumber != "" && n.trackingURL != nil {
		data.TrackingURL = n.trackingURL(e.TrackingNumber)
	}

	if n.templates != nil {
		subject, body, found, err := n.templates.RenderActive(ctx, TemplateShippingNotification, map[string]string{
			"customer_name":   data.CustomerName,
			"product_type":    data.ProductLabel,
			"tracking_number": data.TrackingNumber,
			"tracking_url":    data.TrackingURL,
			"order_number":    deref(b.OrderNumber),
			"address":         b.Address,
		})
		if err != nil {
			n.log.WithContext(ctx).Warn("shipping template unavailable, using built-in email", "error", err)
		} else if found {
			if err := n.sender.SendCustomEmail(ctx, b.Email, subject, body); err != nil {
				return err
			}
			n.log.Info("shipping notification sent", "bookletId", b.ID, "template", true)
			return nil
		}
	}

	if err := n.sender.SendShippingNotification(ctx, b.Email, data); err != nil {
		return err
	}
	n.log.Info("shipping notification sent", "bookletId", b.ID, "template", false)
	return nil
}

var _ events.Handler = (*ShippingNotifier)(nil)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
