package domain

import (
	"slices"
	"testing"
	"time"

	"wrapcrm_backend/internal/shared/calendar"
)

var march1 = calendar.Date{Year: 2025, Month: 3, Day: 1}

func TestClassifyBucketsAreDisjointAndCoverActiveDated(t *testing.T) {
	leads := []testLead{
		{id: "1", status: StatusNew, followup: strPtr("2025-02-27"), created: "2025-01-01"},
		{id: "2", status: StatusInProgress, followup: strPtr("2025-03-01"), created: "2025-01-01"},
		{id: "3", status: StatusSold, followup: strPtr("2025-03-02"), created: "2025-01-01"},
		{id: "4", status: StatusFranchiseRequest, followup: strPtr("2024-12-31"), created: "2025-01-01"},
		{id: "5", status: StatusInProgress, followup: strPtr("2026-01-01"), created: "2025-01-01"},
		{id: "6", status: StatusInProgress, followup: nil, created: "2025-01-01"},
		{id: "7", status: StatusNotCompatible, followup: strPtr("2025-03-01"), created: "2025-01-01"},
	}

	got := ClassifyFollowups(leads, march1, SoldTodaySignal{})

	seen := make(map[string]int)
	for _, bucket := range [][]testLead{got.Overdue, got.DueToday, got.Upcoming} {
		for _, l := range bucket {
			seen[l.id]++
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("lead %s appears in %d buckets", id, n)
		}
	}

	want := []string{"1", "2", "3", "4", "5"}
	if len(seen) != len(want) {
		t.Fatalf("bucketed %d leads, want %d: %v", len(seen), len(want), seen)
	}
	for _, id := range want {
		if seen[id] != 1 {
			t.Errorf("lead %s missing from buckets", id)
		}
	}

	if !slices.Equal(ids(got.Overdue), []string{"1", "4"}) {
		t.Errorf("overdue = %v", ids(got.Overdue))
	}
	if !slices.Equal(ids(got.DueToday), []string{"2"}) {
		t.Errorf("due today = %v", ids(got.DueToday))
	}
	if !slices.Equal(ids(got.Upcoming), []string{"3", "5"}) {
		t.Errorf("upcoming = %v", ids(got.Upcoming))
	}
}

func TestClassifyExcludesInactiveStatuses(t *testing.T) {
	for _, status := range []Status{StatusNotInterested, StatusNotServiceArea, StatusNotCompatible, StatusFriendlyPartner} {
		leads := []testLead{{id: "x", status: status, followup: strPtr("2025-01-15"), created: "2025-01-01"}}
		got := ClassifyFollowups(leads, march1, SoldTodaySignal{})
		if len(got.Overdue)+len(got.DueToday)+len(got.Upcoming) != 0 {
			t.Errorf("%s lead was bucketed: %+v", status, got)
		}
	}
}

func TestClassifyIgnoresProcessTimezone(t *testing.T) {
	leads := []testLead{{id: "a", status: StatusInProgress, followup: strPtr("2025-03-01"), created: "2025-02-01"}}

	original := time.Local
	t.Cleanup(func() { time.Local = original })

	for _, offset := range []int{-12, 14} {
		zone := time.FixedZone("test", offset*3600)
		time.Local = zone

		today := calendar.Today(time.Date(2025, 3, 1, 0, 0, 0, 0, zone), zone)
		if today != march1 {
			t.Fatalf("UTC%+d: today = %s", offset, today)
		}

		got := ClassifyFollowups(leads, today, SoldTodaySignal{})
		if !slices.Equal(ids(got.DueToday), []string{"a"}) {
			t.Errorf("UTC%+d: due today = %v, overdue = %v, upcoming = %v",
				offset, ids(got.DueToday), ids(got.Overdue), ids(got.Upcoming))
		}
	}
}

func TestClassifyOrdersUpcomingByDate(t *testing.T) {
	leads := []testLead{
		{id: "apr5", status: StatusNew, followup: strPtr("2025-04-05")},
		{id: "mar20", status: StatusNew, followup: strPtr("2025-03-20")},
		{id: "mar21", status: StatusNew, followup: strPtr("2025-03-21")},
	}

	got := ClassifyFollowups(leads, march1, SoldTodaySignal{})

	dates := make([]string, len(got.Upcoming))
	for i, l := range got.Upcoming {
		dates[i] = *l.followup
	}
	want := []string{"2025-03-20", "2025-03-21", "2025-04-05"}
	if !slices.Equal(dates, want) {
		t.Fatalf("upcoming order = %v, want %v", dates, want)
	}
}

func TestClassifyToleratesMalformedDates(t *testing.T) {
	leads := []testLead{
		{id: "bad", status: StatusNew, followup: strPtr("not-a-date")},
		{id: "slash", status: StatusNew, followup: strPtr("03/01/2025")},
		{id: "empty", status: StatusNew, followup: strPtr("")},
	}

	got := ClassifyFollowups(leads, march1, SoldTodaySignal{})
	if n := len(got.Overdue) + len(got.DueToday) + len(got.Upcoming); n != 0 {
		t.Fatalf("malformed dates bucketed %d leads", n)
	}
}

func TestClassifyNewTodayUsesStringEquality(t *testing.T) {
	leads := []testLead{
		{id: "today", status: StatusNew, created: "2025-03-01"},
		{id: "yesterday", status: StatusNew, created: "2025-02-28"},
		{id: "inactive", status: StatusNotInterested, created: "2025-03-01"},
	}

	got := ClassifyFollowups(leads, march1, SoldTodaySignal{})
	if !slices.Equal(ids(got.NewToday), []string{"today", "inactive"}) {
		t.Fatalf("new today = %v", ids(got.NewToday))
	}
}

func TestClassifySoldTodayUsesSignalWhenAvailable(t *testing.T) {
	leads := []testLead{
		{id: "old-sale", status: StatusSold, created: "2025-01-05"},
		{id: "same-day", status: StatusSold, created: "2025-03-01"},
		{id: "not-sold", status: StatusInProgress, created: "2025-01-05"},
	}

	got := ClassifyFollowups(leads, march1, NewSoldTodaySignal(SoldTodayFromStatusHistory, []string{"old-sale", "not-sold"}))
	if !slices.Equal(ids(got.SoldToday), []string{"old-sale"}) {
		t.Errorf("sold today = %v", ids(got.SoldToday))
	}
	if got.SoldTodaySource != SoldTodayFromStatusHistory {
		t.Errorf("source = %s", got.SoldTodaySource)
	}
}

func TestClassifySoldTodayFallsBackToCreationDate(t *testing.T) {
	leads := []testLead{
		{id: "old-sale", status: StatusSold, created: "2025-01-05"},
		{id: "same-day", status: StatusSold, created: "2025-03-01"},
	}

	got := ClassifyFollowups(leads, march1, SoldTodaySignal{})
	if !slices.Equal(ids(got.SoldToday), []string{"same-day"}) {
		t.Errorf("sold today = %v", ids(got.SoldToday))
	}
	if got.SoldTodaySource != SoldTodayFromCreationDate {
		t.Errorf("source = %s", got.SoldTodaySource)
	}
}

func TestEmptySignalIsStillAvailable(t *testing.T) {
	leads := []testLead{{id: "same-day", status: StatusSold, created: "2025-03-01"}}

	got := ClassifyFollowups(leads, march1, NewSoldTodaySignal(SoldTodayFromActivityLog, nil))
	if len(got.SoldToday) != 0 {
		t.Errorf("sold today = %v, want none", ids(got.SoldToday))
	}
	if got.SoldTodaySource != SoldTodayFromActivityLog {
		t.Errorf("source = %s", got.SoldTodaySource)
	}
}

func TestClassifyKeepsPaidSoldLeads(t *testing.T) {
	leads := []testLead{
		{id: "paid", status: StatusSold, followup: strPtr("2025-02-01"), paid: true},
		{id: "owing", status: StatusSold, followup: strPtr("2025-02-01")},
		{id: "open", status: StatusNew, followup: strPtr("2025-02-01"), paid: true},
	}

	got := ClassifyFollowups(leads, march1, SoldTodaySignal{})
	if len(got.Overdue) != 3 {
		t.Fatalf("overdue = %v, classifier must not drop paid leads", ids(got.Overdue))
	}

	filtered := ExcludeFullyPaid(got.Overdue)
	if !slices.Equal(ids(filtered), []string{"owing", "open"}) {
		t.Errorf("after ExcludeFullyPaid = %v", ids(filtered))
	}
}

func TestClassifyEmptyInputGivesEmptySlices(t *testing.T) {
	got := ClassifyFollowups[testLead](nil, march1, SoldTodaySignal{})
	if got.Overdue == nil || got.DueToday == nil || got.Upcoming == nil || got.NewToday == nil || got.SoldToday == nil {
		t.Fatalf("expected non-nil slices: %+v", got)
	}
	counts := got.Counts()
	for k, v := range counts {
		if v != 0 {
			t.Errorf("count %s = %d", k, v)
		}
	}
}
