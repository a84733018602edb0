package domain

import (
	"slices"
	"strings"
	"time"

	"wrapcrm_backend/internal/shared/calendar"
)

const (
	// ActionUpdateLead is the activity action written when a lead is edited.
	ActionUpdateLead = "UPDATE_LEAD"
	// StatusFieldKey is the column name that appears in an activity entry's
	// change list when the status was edited.
	StatusFieldKey = "remarks"
)

// AuditEntry is one row of the activity log as the resolver sees it.
type AuditEntry struct {
	EntityID  string
	Action    string
	Details   string
	CreatedAt *time.Time
}

func (e AuditEntry) mentionsStatusChange() bool {
	return e.Action == ActionUpdateLead && strings.Contains(e.Details, StatusFieldKey)
}

// ResolveSoldDate infers the day a lead last had its status edited, reading
// the activity log. It returns nil when no entry qualifies.
//
// The result is a best-effort reconstruction: an entry that lists remarks
// among several changed fields counts, and a Sold -> other -> Sold sequence is
// indistinguishable from a single transition. Prefer the status history when
// it has rows for the lead.
func ResolveSoldDate(leadID string, entries []AuditEntry, loc *time.Location) *string {
	if loc == nil {
		loc = time.UTC
	}

	candidates := make([]AuditEntry, 0, len(entries))
	for _, e := range entries {
		if e.EntityID != leadID {
			continue
		}
		if e.CreatedAt == nil || e.CreatedAt.IsZero() {
			continue
		}
		candidates = append(candidates, e)
	}

	slices.SortStableFunc(candidates, func(a, b AuditEntry) int {
		return b.CreatedAt.Compare(*a.CreatedAt)
	})

	for _, e := range candidates {
		if e.mentionsStatusChange() {
			day := calendar.Of(e.CreatedAt.In(loc)).String()
			return &day
		}
	}
	return nil
}

// SoldTodayLeadIDsFromActivity returns the distinct entity ids with a status
// edit logged on today in loc.
func SoldTodayLeadIDsFromActivity(entries []AuditEntry, today calendar.Date, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, e := range entries {
		if e.CreatedAt == nil || e.CreatedAt.IsZero() || !e.mentionsStatusChange() {
			continue
		}
		if !calendar.Of(e.CreatedAt.In(loc)).Equal(today) {
			continue
		}
		if _, ok := seen[e.EntityID]; ok {
			continue
		}
		seen[e.EntityID] = struct{}{}
		ids = append(ids, e.EntityID)
	}
	return ids
}
