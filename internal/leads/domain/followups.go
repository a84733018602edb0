package domain

import (
	"slices"
	"strings"

	"wrapcrm_backend/internal/shared/calendar"
)

// FollowupCandidate is the view of a lead the classifier needs. Dates are the
// raw YYYY-MM-DD strings from storage.
type FollowupCandidate interface {
	LeadID() string
	LeadStatus() Status
	FollowupDate() *string
	CreatedDate() string
}

// PaymentAware is a candidate that also knows its payment state.
type PaymentAware interface {
	FollowupCandidate
	IsBalancePaid() bool
}

// SoldTodaySource names which data produced the sold-today cohort.
type SoldTodaySource string

const (
	SoldTodayFromStatusHistory SoldTodaySource = "status_history"
	SoldTodayFromActivityLog   SoldTodaySource = "activity_log"
	SoldTodayFromCreationDate  SoldTodaySource = "creation_date"
)

// SoldTodaySignal is the set of lead ids whose status changed today according
// to an audit source. The zero value means no audit data was available.
type SoldTodaySignal struct {
	leadIDs map[string]struct{}
	source  SoldTodaySource
}

// NewSoldTodaySignal builds an available signal. An empty id list is still
// available: it means the audit source was read and nothing changed today.
func NewSoldTodaySignal(source SoldTodaySource, leadIDs []string) SoldTodaySignal {
	set := make(map[string]struct{}, len(leadIDs))
	for _, id := range leadIDs {
		set[id] = struct{}{}
	}
	return SoldTodaySignal{leadIDs: set, source: source}
}

// Available reports whether the signal carries audit data.
func (s SoldTodaySignal) Available() bool { return s.leadIDs != nil }

// Source returns the producing source, or the creation-date fallback when the
// signal is unavailable.
func (s SoldTodaySignal) Source() SoldTodaySource {
	if !s.Available() {
		return SoldTodayFromCreationDate
	}
	return s.source
}

func (s SoldTodaySignal) contains(id string) bool {
	_, ok := s.leadIDs[id]
	return ok
}

// FollowupBuckets is the classifier's output. Overdue, DueToday and Upcoming
// are pairwise disjoint. Every slice is non-nil.
type FollowupBuckets[T FollowupCandidate] struct {
	Overdue         []T
	DueToday        []T
	Upcoming        []T
	NewToday        []T
	SoldToday       []T
	SoldTodaySource SoldTodaySource
}

// ClassifyFollowups partitions leads for the follow-up dashboard relative to
// today.
//
// Only active leads with a parseable follow-up date land in Overdue, DueToday
// or Upcoming; Upcoming is ordered by the date string ascending. NewToday is
// taken from every lead whose creation date string equals today's string.
// SoldToday holds Sold leads present in sold; when sold is unavailable it falls
// back to Sold leads created today, which undercounts leads sold on a later
// day than they were created.
func ClassifyFollowups[T FollowupCandidate](leads []T, today calendar.Date, sold SoldTodaySignal) FollowupBuckets[T] {
	out := FollowupBuckets[T]{
		Overdue:         make([]T, 0),
		DueToday:        make([]T, 0),
		Upcoming:        make([]T, 0),
		NewToday:        make([]T, 0),
		SoldToday:       make([]T, 0),
		SoldTodaySource: sold.Source(),
	}
	todayStr := today.String()

	for _, lead := range leads {
		if lead.CreatedDate() == todayStr {
			out.NewToday = append(out.NewToday, lead)
		}
		if isSoldToday(lead, sold, todayStr) {
			out.SoldToday = append(out.SoldToday, lead)
		}

		if !lead.LeadStatus().IsActive() {
			continue
		}
		due := calendar.ParsePtr(lead.FollowupDate())
		if due == nil {
			continue
		}

		switch due.Compare(today) {
		case -1:
			out.Overdue = append(out.Overdue, lead)
		case 0:
			out.DueToday = append(out.DueToday, lead)
		default:
			out.Upcoming = append(out.Upcoming, lead)
		}
	}

	slices.SortStableFunc(out.Upcoming, func(a, b T) int {
		return strings.Compare(*a.FollowupDate(), *b.FollowupDate())
	})
	return out
}

func isSoldToday[T FollowupCandidate](lead T, sold SoldTodaySignal, todayStr string) bool {
	if lead.LeadStatus() != StatusSold {
		return false
	}
	if sold.Available() {
		return sold.contains(lead.LeadID())
	}
	return lead.CreatedDate() == todayStr
}

// ExcludeFullyPaid drops Sold leads whose balance is paid. It is a caller-side
// policy applied on top of the classifier, which itself never drops them.
func ExcludeFullyPaid[T PaymentAware](leads []T) []T {
	out := make([]T, 0, len(leads))
	for _, lead := range leads {
		if lead.LeadStatus() == StatusSold && lead.IsBalancePaid() {
			continue
		}
		out = append(out, lead)
	}
	return out
}

// Counts returns the bucket sizes keyed by bucket name.
func (b FollowupBuckets[T]) Counts() map[string]int {
	return map[string]int{
		"overdue":    len(b.Overdue),
		"due_today":  len(b.DueToday),
		"upcoming":   len(b.Upcoming),
		"new_today":  len(b.NewToday),
		"sold_today": len(b.SoldToday),
	}
}
