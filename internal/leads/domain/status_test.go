package domain

import (
	"testing"

	"wrapcrm_backend/platform/validator"
)

func TestParseStatusAcceptsLooseSpellings(t *testing.T) {
	cases := map[string]Status{
		"Sold":               StatusSold,
		"sold":               StatusSold,
		"in-progress":        StatusInProgress,
		"IN_PROGRESS":        StatusInProgress,
		" Not  Service Area": StatusNotServiceArea,
		"franchise request":  StatusFranchiseRequest,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		if !ok || got != want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseStatus("Closed"); ok {
		t.Error("unknown status accepted")
	}
}

func TestIsActive(t *testing.T) {
	inactive := map[Status]bool{
		StatusNotInterested:   true,
		StatusNotServiceArea:  true,
		StatusNotCompatible:   true,
		StatusFriendlyPartner: true,
	}
	for _, s := range AllStatuses {
		if s.IsActive() == inactive[s] {
			t.Errorf("%s.IsActive() = %v", s, s.IsActive())
		}
	}
}

func TestStatusAfterFollowupChange(t *testing.T) {
	date := "2025-03-04"
	blank := "  "
	cases := []struct {
		name     string
		current  Status
		followup *string
		want     Status
	}{
		{"new with date", StatusNew, &date, StatusInProgress},
		{"new cleared", StatusNew, nil, StatusNew},
		{"new blank", StatusNew, &blank, StatusNew},
		{"sold keeps status", StatusSold, &date, StatusSold},
		{"in progress", StatusInProgress, &date, StatusInProgress},
	}
	for _, tc := range cases {
		if got := StatusAfterFollowupChange(tc.current, tc.followup); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestLeadStatusValidationTag(t *testing.T) {
	v := validator.New()
	if err := RegisterValidation(v); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := v.Var("in progress", "leadstatus"); err != nil {
		t.Errorf("valid status rejected: %v", err)
	}
	if err := v.Var("archived", "leadstatus"); err == nil {
		t.Error("unknown status accepted")
	}
}
