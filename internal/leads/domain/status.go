// Package domain holds the pure lead rules: the status lifecycle, follow-up
// bucketing and the sold-date inference over the activity log.
package domain

import (
	"strings"

	"wrapcrm_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// Status is the lead lifecycle value, stored in the remarks column.
type Status string

const (
	StatusNew              Status = "New"
	StatusInProgress       Status = "In Progress"
	StatusSold             Status = "Sold"
	StatusFriendlyPartner  Status = "Friendly Partner"
	StatusNotInterested    Status = "Not Interested"
	StatusNotServiceArea   Status = "Not Service Area"
	StatusNotCompatible    Status = "Not Compatible"
	StatusFranchiseRequest Status = "Franchise Request"
)

// AllStatuses lists the statuses in the order the UI presents them.
var AllStatuses = []Status{
	StatusNew,
	StatusInProgress,
	StatusSold,
	StatusFriendlyPartner,
	StatusNotInterested,
	StatusNotServiceArea,
	StatusNotCompatible,
	StatusFranchiseRequest,
}

// inactiveStatuses never take part in follow-up tracking.
var inactiveStatuses = map[Status]struct{}{
	StatusNotInterested:   {},
	StatusNotServiceArea:  {},
	StatusNotCompatible:   {},
	StatusFriendlyPartner: {},
}

// statusAliases maps normalized spellings (lowercase, separators collapsed to
// a single space) to the canonical status. Imported data uses "sold", "new",
// "in-progress" and similar.
var statusAliases = func() map[string]Status {
	out := make(map[string]Status, len(AllStatuses))
	for _, s := range AllStatuses {
		out[normalizeStatusKey(string(s))] = s
	}
	return out
}()

func normalizeStatusKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ParseStatus resolves s to a canonical status, accepting any casing and
// "_" or "-" in place of spaces.
func ParseStatus(s string) (Status, bool) {
	status, ok := statusAliases[normalizeStatusKey(s)]
	return status, ok
}

// IsActive reports whether leads in this status still need follow-up.
func (s Status) IsActive() bool {
	_, inactive := inactiveStatuses[s]
	return !inactive
}

func (s Status) String() string { return string(s) }

// StatusAfterFollowupChange returns the status a lead should have once its
// follow-up date is set to followup: a New lead with a follow-up scheduled
// moves to In Progress. Every other status is left alone.
func StatusAfterFollowupChange(current Status, followup *string) Status {
	if current != StatusNew || followup == nil || strings.TrimSpace(*followup) == "" {
		return current
	}
	return StatusInProgress
}

// RegisterValidation adds the "leadstatus" tag, which accepts any spelling
// ParseStatus understands.
func RegisterValidation(v *validator.Validator) error {
	return v.RegisterValidation("leadstatus", func(fl playground.FieldLevel) bool {
		_, ok := ParseStatus(fl.Field().String())
		return ok
	})
}
