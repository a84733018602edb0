package followups

import (
	"context"
	"errors"
	"testing"

	"wrapcrm_backend/internal/auth"
	"wrapcrm_backend/internal/email"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/platform/logger"
)

type fixedDue struct {
	today calendar.Date
	byRep map[string][]repository.Lead
	err   error
}

func (f fixedDue) DueByAssignee(context.Context) (calendar.Date, map[string][]repository.Lead, error) {
	return f.today, f.byRep, f.err
}

type userList []auth.Contact

func (u userList) ActiveContacts(context.Context) ([]auth.Contact, error) { return u, nil }

type digestCapture struct {
	email.Sender
	sent map[string]email.FollowupDigest
	fail string
}

func (c *digestCapture) SendFollowupDigest(_ context.Context, to string, data email.FollowupDigest) error {
	if to == c.fail {
		return errors.New("smtp down")
	}
	if c.sent == nil {
		c.sent = make(map[string]email.FollowupDigest)
	}
	c.sent[to] = data
	return nil
}

func strPtr(s string) *string { return &s }

func lead(name, followup string) repository.Lead {
	return repository.Lead{Name: name, Phone: "+16502530000", NextFollowupDate: strPtr(followup), Remarks: "In Progress"}
}

func mustDate(t *testing.T, s string) calendar.Date {
	t.Helper()
	d, ok := calendar.Parse(s)
	if !ok {
		t.Fatalf("bad date %q", s)
	}
	return d
}

func TestSendDigestsRoutesByRep(t *testing.T) {
	today := mustDate(t, "2025-03-10")
	due := fixedDue{today: today, byRep: map[string][]repository.Lead{
		"Alice": {lead("Today Lead", "2025-03-10"), lead("Late Lead", "2025-03-01")},
		"bob":   {lead("Bob Lead", "2025-03-10")},
		"":      {lead("Orphan", "2025-03-09")},
	}}
	users := userList{
		{Username: "alice", Role: auth.RoleSalesRep, Email: strPtr("alice@example.com")},
		{Username: "bob", Role: auth.RoleSalesRep},
		{Username: "root", Role: auth.RoleAdmin, Email: strPtr("root@example.com")},
		{Username: "ops", Role: auth.RoleSalesRep, Email: strPtr("ops@example.com")},
	}
	sender := &digestCapture{}

	res, err := NewDigester(due, users, sender, logger.Nop()).SendDigests(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatalf("send digests: %v", err)
	}
	if res.Sent != 2 || res.Skipped != 0 || res.Unrouted != 0 {
		t.Fatalf("result = %+v", res)
	}

	alice := sender.sent["alice@example.com"]
	if len(alice.Items) != 2 || alice.Items[0].Name != "Late Lead" || !alice.Items[0].Overdue {
		t.Errorf("alice items = %+v, want overdue lead first", alice.Items)
	}
	if alice.Items[1].Overdue {
		t.Errorf("lead due today marked overdue")
	}

	// bob has no mailbox, so his lead joins the unassigned one in the admin digest
	admin := sender.sent["root@example.com"]
	if len(admin.Items) != 2 {
		t.Errorf("admin items = %d, want 2", len(admin.Items))
	}
	if _, ok := sender.sent["ops@example.com"]; ok {
		t.Errorf("sales rep received the unassigned digest")
	}
}

func TestSendDigestsDropsStaleRun(t *testing.T) {
	due := fixedDue{today: mustDate(t, "2025-03-11"), byRep: map[string][]repository.Lead{
		"alice": {lead("A", "2025-03-10")},
	}}
	sender := &digestCapture{}
	users := userList{{Username: "alice", Email: strPtr("alice@example.com")}}

	res, err := NewDigester(due, users, sender, logger.Nop()).SendDigests(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatalf("send digests: %v", err)
	}
	if res.Sent != 0 || len(sender.sent) != 0 {
		t.Errorf("stale run sent %d digests", res.Sent)
	}
}

func TestSendDigestsCountsFailures(t *testing.T) {
	due := fixedDue{today: mustDate(t, "2025-03-10"), byRep: map[string][]repository.Lead{
		"alice": {lead("A", "2025-03-10")},
		"":      {lead("B", "2025-03-10")},
	}}
	users := userList{{Username: "alice", Role: auth.RoleSalesRep, Email: strPtr("alice@example.com")}}
	sender := &digestCapture{fail: "alice@example.com"}

	res, err := NewDigester(due, users, sender, logger.Nop()).SendDigests(context.Background(), "")
	if err != nil {
		t.Fatalf("send digests: %v", err)
	}
	if res.Skipped != 1 || res.Sent != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Unrouted != 1 {
		t.Errorf("unrouted = %d, want 1 with no admins", res.Unrouted)
	}
}

func TestSendDigestsPropagatesSourceError(t *testing.T) {
	due := fixedDue{err: errors.New("db down")}
	_, err := NewDigester(due, userList{}, &digestCapture{}, logger.Nop()).SendDigests(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}
}
