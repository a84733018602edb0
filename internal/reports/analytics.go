// Package reports computes the sales analytics shown on the reports page.
// Everything here works on the creation-date string of each lead, so a lead
// created on 2025-01-01 counts in January wherever the server runs.
package reports

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"wrapcrm_backend/internal/leads/domain"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/internal/shared/calendar"
)

const unassignedMember = "Unassigned"

// Filter narrows the analytics to a creation year and/or month. Zero means
// no constraint.
type Filter struct {
	Year  int
	Month int
}

type Metrics struct {
	TotalLeads      int     `json:"totalLeads"`
	SoldLeads       int     `json:"soldLeads"`
	ConversionRate  float64 `json:"conversionRate"`
	TotalRevenue    float64 `json:"totalRevenue"`
	AverageDealSize float64 `json:"averageDealSize"`
}

type OriginPerformance struct {
	Origin string `json:"origin"`
	Metrics
}

type MemberPerformance struct {
	Member string `json:"member"`
	Metrics
}

type MonthPerformance struct {
	Month     int    `json:"month"`
	MonthName string `json:"monthName"`
	Metrics
}

type FilterInfo struct {
	Year   *int   `json:"year"`
	Month  *int   `json:"month"`
	Period string `json:"period"`
}

type Analytics struct {
	ExecutiveDashboard    Metrics             `json:"executiveDashboard"`
	LeadOriginPerformance []OriginPerformance `json:"leadOriginPerformance"`
	TeamPerformance       []MemberPerformance `json:"teamPerformance"`
	MonthlyBreakdown      []MonthPerformance  `json:"monthlyBreakdown"`
	FilterInfo            FilterInfo          `json:"filterInfo"`
}

type tally struct {
	total   int
	sold    int
	revenue float64
}

func (t *tally) add(l repository.Lead) {
	t.total++
	if l.LeadStatus() != domain.StatusSold {
		return
	}
	t.sold++
	if l.ProjectAmount != nil {
		t.revenue += *l.ProjectAmount
	}
}

func (t tally) metrics() Metrics {
	m := Metrics{TotalLeads: t.total, SoldLeads: t.sold, TotalRevenue: t.revenue}
	if t.total > 0 {
		m.ConversionRate = float64(t.sold) / float64(t.total) * 100
	}
	if t.sold > 0 {
		m.AverageDealSize = t.revenue / float64(t.sold)
	}
	return m
}

// yearMonth reads the year and month of a YYYY-MM-DD creation date; ok is
// false for anything calendar.Parse rejects.
func yearMonth(date string) (year, month int, ok bool) {
	d, ok := calendar.Parse(date)
	if !ok {
		return 0, 0, false
	}
	return d.Year, d.Month, true
}

func (f Filter) matches(l repository.Lead) bool {
	if f.Year == 0 && f.Month == 0 {
		return true
	}
	y, m, ok := yearMonth(l.DateCreated)
	if !ok {
		return false
	}
	if f.Year != 0 && y != f.Year {
		return false
	}
	if f.Month != 0 && m != f.Month {
		return false
	}
	return true
}

// Period labels the filter: "2025-03", "2025" or "all-time". A month without
// a year filters every year but is still reported as all-time.
func (f Filter) Period() string {
	switch {
	case f.Year != 0 && f.Month != 0:
		return fmt.Sprintf("%d-%02d", f.Year, f.Month)
	case f.Year != 0:
		return strconv.Itoa(f.Year)
	default:
		return "all-time"
	}
}

// Compute builds the analytics for the leads matching f.
func Compute(leads []repository.Lead, f Filter) Analytics {
	var overall tally
	byOrigin := make(map[string]*tally)
	byMember := make(map[string]*tally)
	var byMonth [12]tally

	for _, l := range leads {
		if !f.matches(l) {
			continue
		}
		overall.add(l)

		o := byOrigin[l.LeadOrigin]
		if o == nil {
			o = &tally{}
			byOrigin[l.LeadOrigin] = o
		}
		o.add(l)

		member := unassignedMember
		if l.AssignedTo != nil && *l.AssignedTo != "" {
			member = *l.AssignedTo
		}
		t := byMember[member]
		if t == nil {
			t = &tally{}
			byMember[member] = t
		}
		t.add(l)

		if _, m, ok := yearMonth(l.DateCreated); ok {
			byMonth[m-1].add(l)
		}
	}

	out := Analytics{
		ExecutiveDashboard:    overall.metrics(),
		LeadOriginPerformance: make([]OriginPerformance, 0, len(byOrigin)),
		TeamPerformance:       make([]MemberPerformance, 0, len(byMember)),
		MonthlyBreakdown:      make([]MonthPerformance, 0),
		FilterInfo:            FilterInfo{Period: f.Period()},
	}

	for origin, t := range byOrigin {
		out.LeadOriginPerformance = append(out.LeadOriginPerformance, OriginPerformance{Origin: origin, Metrics: t.metrics()})
	}
	sort.Slice(out.LeadOriginPerformance, func(i, j int) bool {
		a, b := out.LeadOriginPerformance[i], out.LeadOriginPerformance[j]
		if a.TotalRevenue != b.TotalRevenue {
			return a.TotalRevenue > b.TotalRevenue
		}
		return a.Origin < b.Origin
	})

	for member, t := range byMember {
		out.TeamPerformance = append(out.TeamPerformance, MemberPerformance{Member: member, Metrics: t.metrics()})
	}
	sort.Slice(out.TeamPerformance, func(i, j int) bool {
		a, b := out.TeamPerformance[i], out.TeamPerformance[j]
		if a.TotalRevenue != b.TotalRevenue {
			return a.TotalRevenue > b.TotalRevenue
		}
		return a.Member < b.Member
	})

	if f.Year != 0 && f.Month == 0 {
		for i := range byMonth {
			out.MonthlyBreakdown = append(out.MonthlyBreakdown, MonthPerformance{
				Month:     i + 1,
				MonthName: time.Month(i + 1).String(),
				Metrics:   byMonth[i].metrics(),
			})
		}
	}

	if f.Year != 0 {
		y := f.Year
		out.FilterInfo.Year = &y
	}
	if f.Month != 0 {
		m := f.Month
		out.FilterInfo.Month = &m
	}
	return out
}

// Years lists the distinct creation years, most recent first.
func Years(leads []repository.Lead) []int {
	seen := make(map[int]bool)
	out := make([]int, 0)
	for _, l := range leads {
		y, _, ok := yearMonth(l.DateCreated)
		if !ok || seen[y] {
			continue
		}
		seen[y] = true
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
