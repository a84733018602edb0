package smtpsettings

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/email"
	"wrapcrm_backend/internal/smtpsettings/smtpcrypto"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
)

type memStore struct {
	row     *Row
	entries []activity.Entry
}

func (m *memStore) Active(context.Context) (*Row, error) { return m.row, nil }

func (m *memStore) Save(_ context.Context, row Row, entry activity.Entry) (Row, error) {
	m.row = &row
	m.entries = append(m.entries, entry)
	return row, nil
}

type captureTransport struct {
	sent []email.Message
	err  error
}

func (c *captureTransport) Deliver(_ context.Context, msg email.Message) error {
	c.sent = append(c.sent, msg)
	return c.err
}

var testKey = bytes.Repeat([]byte{9}, smtpcrypto.KeySize)

func TestUpdateEncryptsAndKeepsPassword(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, testKey, logger.Nop())
	ctx := context.Background()
	actor := uuid.New()

	resp, err := svc.Update(ctx, actor, UpdateRequest{Host: "smtp.example.com", Port: 587, Username: "crm", Password: "app-pass", FromEmail: "crm@example.com", FromName: "CRM"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !resp.HasPassword || store.row.PasswordEncrypted == "app-pass" {
		t.Fatalf("password not encrypted: %+v", store.row)
	}
	sealed := store.row.PasswordEncrypted

	if _, err := svc.Update(ctx, actor, UpdateRequest{Host: "smtp2.example.com", Port: 465, FromEmail: "crm@example.com", FromName: "CRM"}); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if store.row.PasswordEncrypted != sealed {
		t.Fatal("empty password replaced the stored one")
	}

	settings, err := svc.ActiveSettings(ctx)
	if err != nil {
		t.Fatalf("ActiveSettings: %v", err)
	}
	if settings.Password != "app-pass" || settings.Host != "smtp2.example.com" {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if len(store.entries) != 2 || store.entries[0].Action != activity.ActionUpdateConfig {
		t.Fatalf("activity entries %+v", store.entries)
	}
}

func TestUpdateWithoutKeyIsUnavailable(t *testing.T) {
	svc := NewService(&memStore{}, nil, logger.Nop())
	_, err := svc.Update(context.Background(), uuid.New(), UpdateRequest{Host: "h", Port: 25, FromEmail: "a@b.c", FromName: "x"})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
}

func TestTestUsesActiveSettings(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, testKey, logger.Nop())
	ctx := context.Background()

	if err := svc.Test(ctx, TestRequest{To: "me@example.com"}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("without settings: err = %v", err)
	}

	tr := &captureTransport{}
	var used email.Settings
	svc.deliver = func(s email.Settings) email.Transport { used = s; return tr }
	if _, err := svc.Update(ctx, uuid.New(), UpdateRequest{Host: "smtp.example.com", Port: 587, Password: "pw", FromEmail: "crm@example.com", FromName: "CRM"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Test(ctx, TestRequest{To: "me@example.com"}); err != nil {
		t.Fatalf("Test: %v", err)
	}
	if used.Password != "pw" || len(tr.sent) != 1 || tr.sent[0].To != "me@example.com" {
		t.Fatalf("unexpected delivery %+v %+v", used, tr.sent)
	}

	tr.err = errors.New("535 auth failed")
	if err := svc.Test(ctx, TestRequest{To: "me@example.com"}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("failed send: err = %v", err)
	}
}

func TestGetWithoutSettings(t *testing.T) {
	resp, err := NewService(&memStore{}, testKey, logger.Nop()).Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Configured || resp.Port != 587 {
		t.Fatalf("unexpected default %+v", resp)
	}
}
