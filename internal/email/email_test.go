package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"wrapcrm_backend/platform/logger"
)

type captureTransport struct{ sent []Message }

func (c *captureTransport) Deliver(_ context.Context, msg Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestInstallationConfirmation(t *testing.T) {
	tr := &captureTransport{}
	amount := 12500.0
	subject, err := NewMailer(tr).SendInstallationConfirmation(context.Background(), "jane@example.com", InstallationEmail{
		CustomerName:  "Jane Doe",
		Phone:         "(650) 253-0000",
		FormattedDate: "Monday, March 3, 2025",
		ProjectAmount: &amount,
		CustomMessage: "Gate code <1234>",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if subject != "Installation Confirmation - Monday, March 3, 2025" {
		t.Errorf("subject = %q", subject)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(tr.sent))
	}
	body := tr.sent[0].HTML
	for _, want := range []string{"Jane Doe", "$12500.00", "TBD", "Gate code &lt;1234&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestFollowupDigestSubject(t *testing.T) {
	tr := &captureTransport{}
	err := NewMailer(tr).SendFollowupDigest(context.Background(), "rep@example.com", FollowupDigest{
		RepName: "alice",
		Today:   "2025-03-01",
		Items: []DigestItem{
			{Name: "A", FollowupDate: "2025-02-27", Status: "In Progress", Overdue: true},
			{Name: "B", FollowupDate: "2025-03-01", Status: "New"},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := tr.sent[0].Subject; got != "Follow-ups for 2025-03-01: 2 due" {
		t.Errorf("subject = %q", got)
	}
}

func TestCustomEmailKeepsLineBreaks(t *testing.T) {
	tr := &captureTransport{}
	if err := NewMailer(tr).SendCustomEmail(context.Background(), "x@example.com", "Hello", "line one\nline two\n\nnext"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(tr.sent[0].HTML, "<p>line one<br>line two</p>") {
		t.Errorf("unexpected body %s", tr.sent[0].HTML)
	}
}

func TestSMTPTransportBuildsMessage(t *testing.T) {
	tr := NewSMTPTransport(Settings{Host: "smtp.example.com", Port: 587, FromEmail: "crm@example.com", FromName: "WrapCRM"})
	msg, err := tr.buildMessage(Message{To: "jane@example.com", Subject: "Hi", HTML: "<p>x</p>"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Subject: Hi", "jane@example.com", "WrapCRM"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSMTPTransportRejectsBadRecipient(t *testing.T) {
	tr := NewSMTPTransport(Settings{FromEmail: "crm@example.com"})
	if _, err := tr.buildMessage(Message{To: "not an address"}); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}

type staticSource struct {
	settings *Settings
	err      error
}

func (s staticSource) ActiveSettings(context.Context) (*Settings, error) { return s.settings, s.err }

func TestDynamicTransportFallsBackToNoop(t *testing.T) {
	d := NewDynamicTransport(staticSource{}, logger.Nop())
	if err := d.Deliver(context.Background(), Message{To: "a@example.com"}); err != nil {
		t.Fatalf("noop delivery failed: %v", err)
	}

	boom := errors.New("db down")
	d = NewDynamicTransport(staticSource{err: boom}, logger.Nop())
	if err := d.Deliver(context.Background(), Message{To: "a@example.com"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
