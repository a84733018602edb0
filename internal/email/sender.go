// Package email renders the CRM's notification emails and delivers them over
// SMTP. Delivery goes through a Transport so the active SMTP settings can be
// swapped at runtime.
package email

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport delivers rendered messages.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// InstallationEmail holds the fields shown in installation notifications.
type InstallationEmail struct {
	CustomerName      string
	CustomerEmail     string
	Phone             string
	FormattedDate     string
	Installer         string
	ProjectAmount     *float64
	DepositPaid       bool
	BalancePaid       bool
	InstallationNotes string
	CustomMessage     string
}

// DigestItem is one lead in the follow-up digest.
type DigestItem struct {
	Name         string
	Phone        string
	FollowupDate string
	Status       string
	Overdue      bool
}

// FollowupDigest is the daily summary sent to a sales rep.
type FollowupDigest struct {
	RepName string
	Today   string
	Items   []DigestItem
}

// ShippingNotification tells a customer their booklet shipped.
type ShippingNotification struct {
	CustomerName   string
	ProductLabel   string
	TrackingNumber string
	TrackingURL    string
}

type Sender interface {
	SendInstallationConfirmation(ctx context.Context, toEmail string, data InstallationEmail) (subject string, err error)
	SendInstallerAssignment(ctx context.Context, toEmail string, data InstallationEmail) (subject string, err error)
	SendFollowupDigest(ctx context.Context, toEmail string, data FollowupDigest) error
	SendShippingNotification(ctx context.Context, toEmail string, data ShippingNotification) error
	// SendCustomEmail sends a plain-text body; line breaks are preserved.
	SendCustomEmail(ctx context.Context, toEmail, subject, body string) error
}

// Mailer implements Sender on top of a Transport.
type Mailer struct {
	transport Transport
}

func NewMailer(transport Transport) *Mailer {
	return &Mailer{transport: transport}
}

func (m *Mailer) SendInstallationConfirmation(ctx context.Context, toEmail string, data InstallationEmail) (string, error) {
	subject := fmt.Sprintf(subjectInstallationConfirmationFmt, data.FormattedDate)
	content, err := renderEmailTemplate("installation_client.html", installationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Installation confirmation",
			Heading: "Your installation is scheduled",
		},
		InstallationEmail: data,
	})
	if err != nil {
		return "", err
	}
	return subject, m.transport.Deliver(ctx, Message{To: toEmail, Subject: subject, HTML: content})
}

func (m *Mailer) SendInstallerAssignment(ctx context.Context, toEmail string, data InstallationEmail) (string, error) {
	subject := fmt.Sprintf(subjectInstallerAssignmentFmt, data.FormattedDate)
	content, err := renderEmailTemplate("installation_installer.html", installationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Installation assignment",
			Heading: "New installation assignment",
		},
		InstallationEmail: data,
	})
	if err != nil {
		return "", err
	}
	return subject, m.transport.Deliver(ctx, Message{To: toEmail, Subject: subject, HTML: content})
}

func (m *Mailer) SendFollowupDigest(ctx context.Context, toEmail string, data FollowupDigest) error {
	content, err := renderEmailTemplate("followup_digest.html", followupDigestEmailData{
		baseEmailData: baseEmailData{
			Title:   "Follow-up digest",
			Heading: "Today's follow-ups",
		},
		FollowupDigest: data,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectFollowupDigestFmt, data.Today, len(data.Items))
	return m.transport.Deliver(ctx, Message{To: toEmail, Subject: subject, HTML: content})
}

func (m *Mailer) SendShippingNotification(ctx context.Context, toEmail string, data ShippingNotification) error {
	content, err := renderEmailTemplate("shipping_notification.html", shippingEmailData{
		baseEmailData: baseEmailData{
			Title:   "Your order shipped",
			Heading: "Your order is on its way",
		},
		ShippingNotification: data,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectShippingNotificationFmt, data.ProductLabel)
	return m.transport.Deliver(ctx, Message{To: toEmail, Subject: subject, HTML: content})
}

func (m *Mailer) SendCustomEmail(ctx context.Context, toEmail, subject, body string) error {
	content, err := renderEmailTemplate("custom.html", customEmailData{
		baseEmailData: baseEmailData{Title: subject, Heading: subject},
		Body:          textToHTML(body),
	})
	if err != nil {
		return err
	}
	return m.transport.Deliver(ctx, Message{To: toEmail, Subject: subject, HTML: content})
}

// SendTestEmail sends the SMTP settings check message through transport.
func SendTestEmail(ctx context.Context, transport Transport, toEmail, host string) error {
	content, err := renderEmailTemplate("smtp_test.html", testEmailData{
		baseEmailData: baseEmailData{Title: subjectSMTPTest, Heading: "SMTP settings test"},
		Host:          host,
	})
	if err != nil {
		return err
	}
	return transport.Deliver(ctx, Message{To: toEmail, Subject: subjectSMTPTest, HTML: content})
}

func textToHTML(body string) template.HTML {
	escaped := template.HTMLEscapeString(strings.TrimSpace(body))
	paragraphs := strings.Split(escaped, "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = "<p>" + strings.ReplaceAll(p, "\n", "<br>") + "</p>"
	}
	return template.HTML(strings.Join(paragraphs, "\n"))
}

var _ Sender = (*Mailer)(nil)
