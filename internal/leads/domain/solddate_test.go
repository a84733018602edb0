package domain

import (
	"slices"
	"testing"
	"time"
)

func at(year int, month time.Month, day, hour int) *time.Time {
	t := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestResolveSoldDatePicksLatestRemarksEntry(t *testing.T) {
	entries := []AuditEntry{
		{EntityID: "42", Action: ActionUpdateLead, Details: "Updated lead: Jane Doe - Changes: remarks", CreatedAt: at(2025, 1, 10, 15)},
		{EntityID: "42", Action: ActionUpdateLead, Details: "Updated lead: Jane Doe - Changes: notes", CreatedAt: at(2025, 1, 12, 15)},
	}

	got := ResolveSoldDate("42", entries, time.UTC)
	if got == nil || *got != "2025-01-10" {
		t.Fatalf("ResolveSoldDate = %v, want 2025-01-10", got)
	}
}

func TestResolveSoldDateNoMatch(t *testing.T) {
	entries := []AuditEntry{
		{EntityID: "42", Action: ActionUpdateLead, Details: "Changes: notes", CreatedAt: at(2025, 1, 12, 9)},
		{EntityID: "43", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: at(2025, 1, 12, 9)},
		{EntityID: "42", Action: "CREATE_LEAD", Details: "Created lead with remarks New", CreatedAt: at(2025, 1, 1, 9)},
	}

	if got := ResolveSoldDate("42", entries, time.UTC); got != nil {
		t.Fatalf("ResolveSoldDate = %q, want nil", *got)
	}
	if got := ResolveSoldDate("42", nil, time.UTC); got != nil {
		t.Fatalf("ResolveSoldDate(nil) = %q, want nil", *got)
	}
}

func TestResolveSoldDateOrdersUnsortedInput(t *testing.T) {
	entries := []AuditEntry{
		{EntityID: "7", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: at(2025, 1, 3, 9)},
		{EntityID: "7", Action: ActionUpdateLead, Details: "Changes: remarks, notes", CreatedAt: at(2025, 2, 20, 9)},
		{EntityID: "7", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: at(2025, 2, 1, 9)},
	}

	got := ResolveSoldDate("7", entries, time.UTC)
	if got == nil || *got != "2025-02-20" {
		t.Fatalf("ResolveSoldDate = %v, want 2025-02-20", got)
	}
}

func TestResolveSoldDateSkipsMissingTimestamps(t *testing.T) {
	entries := []AuditEntry{
		{EntityID: "9", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: nil},
		{EntityID: "9", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: &time.Time{}},
		{EntityID: "9", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: at(2024, 11, 30, 12)},
	}

	got := ResolveSoldDate("9", entries, nil)
	if got == nil || *got != "2024-11-30" {
		t.Fatalf("ResolveSoldDate = %v, want 2024-11-30", got)
	}
}

func TestResolveSoldDateUsesBusinessLocation(t *testing.T) {
	// 02:00 UTC on Jan 11 is the evening of Jan 10 on the US west coast.
	entries := []AuditEntry{
		{EntityID: "5", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: at(2025, 1, 11, 2)},
	}
	pacific := time.FixedZone("PST", -8*3600)

	got := ResolveSoldDate("5", entries, pacific)
	if got == nil || *got != "2025-01-10" {
		t.Fatalf("ResolveSoldDate = %v, want 2025-01-10", got)
	}
}

func TestSoldTodayLeadIDsFromActivity(t *testing.T) {
	entries := []AuditEntry{
		{EntityID: "1", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: at(2025, 3, 1, 10)},
		{EntityID: "1", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: at(2025, 3, 1, 11)},
		{EntityID: "2", Action: ActionUpdateLead, Details: "Changes: notes", CreatedAt: at(2025, 3, 1, 10)},
		{EntityID: "3", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: at(2025, 2, 28, 10)},
		{EntityID: "4", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: nil},
		{EntityID: "5", Action: ActionUpdateLead, Details: "Changes: remarks", CreatedAt: at(2025, 3, 1, 23)},
	}

	got := SoldTodayLeadIDsFromActivity(entries, march1, time.UTC)
	if !slices.Equal(got, []string{"1", "5"}) {
		t.Fatalf("ids = %v, want [1 5]", got)
	}
}
