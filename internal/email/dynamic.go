package email

import (
	"context"

	"wrapcrm_backend/platform/logger"
)

// SettingsSource returns the active SMTP settings, or nil when none are
// configured.
type SettingsSource interface {
	ActiveSettings(ctx context.Context) (*Settings, error)
}

// NoopTransport logs instead of sending.
type NoopTransport struct {
	log *logger.Logger
}

func NewNoopTransport(log *logger.Logger) *NoopTransport {
	return &NoopTransport{log: log}
}

func (n *NoopTransport) Deliver(ctx context.Context, msg Message) error {
	n.log.WithContext(ctx).Info("email not sent: no active SMTP settings", "to", msg.To, "subject", msg.Subject)
	return nil
}

// DynamicTransport looks up the active settings on every delivery, so admin
// changes apply without a restart.
type DynamicTransport struct {
	source   SettingsSource
	fallback Transport
}

func NewDynamicTransport(source SettingsSource, log *logger.Logger) *DynamicTransport {
	return &DynamicTransport{source: source, fallback: NewNoopTransport(log)}
}

func (d *DynamicTransport) Deliver(ctx context.Context, msg Message) error {
	settings, err := d.source.ActiveSettings(ctx)
	if err != nil {
		return err
	}
	if settings == nil {
		return d.fallback.Deliver(ctx, msg)
	}
	return NewSMTPTransport(*settings).Deliver(ctx, msg)
}
