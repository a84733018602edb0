package calendar

import (
	"testing"
	"time"

	"wrapcrm_backend/platform/validator"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2025-03-01", Date{2025, 3, 1}, true},
		{"1999-12-31", Date{1999, 12, 31}, true},
		{"not-a-date", Date{}, false},
		{"2025-3-01", Date{}, false},
		{"2025-13-01", Date{}, false},
		{"2025-00-10", Date{}, false},
		{"2025-01-32", Date{}, false},
		{"2025-01-01T00:00:00Z", Date{}, false},
		{"+025-01-01", Date{}, false},
		{"", Date{}, false},
		{"2025--01-01", Date{}, false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Parse(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCompareIsLexicographic(t *testing.T) {
	cases := []struct {
		a, b Date
		want int
	}{
		{Date{2025, 1, 31}, Date{2025, 2, 1}, -1},
		{Date{2024, 12, 31}, Date{2025, 1, 1}, -1},
		{Date{2025, 3, 1}, Date{2025, 3, 1}, 0},
		{Date{2025, 3, 2}, Date{2025, 3, 1}, 1},
		{Date{2026, 1, 1}, Date{2025, 12, 31}, 1},
	}
	for _, tc := range cases {
		if got := tc.a.Compare(tc.b); got != tc.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"2025-03-01", "0999-01-09"} {
		d, ok := Parse(s)
		if !ok || d.String() != s {
			t.Errorf("round trip %q gave %q (ok=%v)", s, d.String(), ok)
		}
	}
}

func TestTodayUsesBusinessLocation(t *testing.T) {
	// 2025-03-01 03:30 UTC is still February 28th in Los Angeles.
	now := time.Date(2025, 3, 1, 3, 30, 0, 0, time.UTC)
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	if got := Today(now, la); got != (Date{2025, 2, 28}) {
		t.Errorf("Today in LA = %s, want 2025-02-28", got)
	}
	if got := Today(now, time.UTC); got != (Date{2025, 3, 1}) {
		t.Errorf("Today in UTC = %s, want 2025-03-01", got)
	}
}

func TestAddDaysCrossesMonthAndYear(t *testing.T) {
	if got := (Date{2024, 12, 31}).AddDays(1); got != (Date{2025, 1, 1}) {
		t.Errorf("AddDays(1) = %s", got)
	}
	if got := (Date{2024, 3, 1}).AddDays(-1); got != (Date{2024, 2, 29}) {
		t.Errorf("AddDays(-1) = %s", got)
	}
}

func TestCalendarDateValidationTag(t *testing.T) {
	v := validator.New()
	if err := RegisterValidation(v); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := v.Var("2025-03-01", "calendardate"); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
	if err := v.Var("03/01/2025", "calendardate"); err == nil {
		t.Error("US-style date accepted")
	}
}
