package reports

import (
	"math"
	"reflect"
	"testing"

	"wrapcrm_backend/internal/leads/repository"
)

func amount(v float64) *float64 { return &v }
func str(s string) *string      { return &s }

func fixture() []repository.Lead {
	return []repository.Lead{
		{DateCreated: "2024-01-05", LeadOrigin: "facebook", AssignedTo: str("kim"), Remarks: "Sold", ProjectAmount: amount(10000)},
		{DateCreated: "2024-01-20", LeadOrigin: "facebook", AssignedTo: str("kim"), Remarks: "New"},
		{DateCreated: "2024-03-02", LeadOrigin: "google", AssignedTo: str("lina"), Remarks: "sold", ProjectAmount: amount(25000)},
		{DateCreated: "2024-03-15", LeadOrigin: "referral", Remarks: "Sold"},
		{DateCreated: "2025-01-01", LeadOrigin: "google", AssignedTo: str("patrick"), Remarks: "In Progress", ProjectAmount: amount(9000)},
		{DateCreated: "garbage", LeadOrigin: "website", Remarks: "New"},
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeAllTime(t *testing.T) {
	a := Compute(fixture(), Filter{})

	ed := a.ExecutiveDashboard
	if ed.TotalLeads != 6 || ed.SoldLeads != 3 {
		t.Fatalf("dashboard = %+v", ed)
	}
	if !near(ed.ConversionRate, 50) || !near(ed.TotalRevenue, 35000) || !near(ed.AverageDealSize, 35000.0/3) {
		t.Errorf("dashboard = %+v", ed)
	}
	if a.FilterInfo.Period != "all-time" || a.FilterInfo.Year != nil || a.FilterInfo.Month != nil {
		t.Errorf("filter info = %+v", a.FilterInfo)
	}
	if len(a.MonthlyBreakdown) != 0 {
		t.Errorf("monthly breakdown without a year filter: %d rows", len(a.MonthlyBreakdown))
	}

	origins := make([]string, len(a.LeadOriginPerformance))
	for i, o := range a.LeadOriginPerformance {
		origins[i] = o.Origin
	}
	want := []string{"google", "facebook", "referral", "website"}
	if !reflect.DeepEqual(origins, want) {
		t.Errorf("origin order = %v, want %v", origins, want)
	}
	if fb := a.LeadOriginPerformance[1]; !near(fb.ConversionRate, 50) || !near(fb.AverageDealSize, 10000) {
		t.Errorf("facebook = %+v", fb)
	}

	members := make([]string, len(a.TeamPerformance))
	for i, m := range a.TeamPerformance {
		members[i] = m.Member
	}
	wantMembers := []string{"lina", "kim", "Unassigned", "patrick"}
	if !reflect.DeepEqual(members, wantMembers) {
		t.Errorf("member order = %v, want %v", members, wantMembers)
	}
}

func TestComputeYearHasMonthlyBreakdown(t *testing.T) {
	a := Compute(fixture(), Filter{Year: 2024})

	if a.ExecutiveDashboard.TotalLeads != 4 {
		t.Errorf("total = %d, want 4", a.ExecutiveDashboard.TotalLeads)
	}
	if a.FilterInfo.Period != "2024" || a.FilterInfo.Year == nil || *a.FilterInfo.Year != 2024 {
		t.Errorf("filter info = %+v", a.FilterInfo)
	}
	if len(a.MonthlyBreakdown) != 12 {
		t.Fatalf("breakdown rows = %d, want 12", len(a.MonthlyBreakdown))
	}
	jan, mar := a.MonthlyBreakdown[0], a.MonthlyBreakdown[2]
	if jan.MonthName != "January" || jan.TotalLeads != 2 || jan.SoldLeads != 1 {
		t.Errorf("january = %+v", jan)
	}
	if mar.Month != 3 || mar.TotalLeads != 2 || !near(mar.TotalRevenue, 25000) {
		t.Errorf("march = %+v", mar)
	}
	if feb := a.MonthlyBreakdown[1]; feb.TotalLeads != 0 || feb.ConversionRate != 0 || feb.AverageDealSize != 0 {
		t.Errorf("empty month = %+v", feb)
	}
}

func TestComputeYearAndMonth(t *testing.T) {
	a := Compute(fixture(), Filter{Year: 2024, Month: 3})
	if a.ExecutiveDashboard.TotalLeads != 2 || a.FilterInfo.Period != "2024-03" {
		t.Errorf("got total %d period %q", a.ExecutiveDashboard.TotalLeads, a.FilterInfo.Period)
	}
	if len(a.MonthlyBreakdown) != 0 {
		t.Errorf("breakdown present with a month filter")
	}
}

func TestComputeMonthAcrossYears(t *testing.T) {
	a := Compute(fixture(), Filter{Month: 1})
	if a.ExecutiveDashboard.TotalLeads != 3 {
		t.Errorf("january leads across years = %d, want 3", a.ExecutiveDashboard.TotalLeads)
	}
	if a.FilterInfo.Period != "all-time" || a.FilterInfo.Month == nil || *a.FilterInfo.Month != 1 {
		t.Errorf("filter info = %+v", a.FilterInfo)
	}
}

func TestYears(t *testing.T) {
	got := Years(fixture())
	if !reflect.DeepEqual(got, []int{2025, 2024}) {
		t.Errorf("Years = %v", got)
	}
	if got := Years(nil); len(got) != 0 {
		t.Errorf("Years(nil) = %v", got)
	}
}

func TestMalformedCreationDatesAreIgnored(t *testing.T) {
	leads := []repository.Lead{
		{DateCreated: "2024-01-05", Remarks: "Sold", ProjectAmount: amount(100)},
		{DateCreated: "2024-01-99", Remarks: "Sold", ProjectAmount: amount(200)},
		{DateCreated: "2024-01", Remarks: "New"},
		{DateCreated: "2023-13-01", Remarks: "New"},
		{DateCreated: "2024-01-05T10:00:00Z", Remarks: "New"},
	}

	a := Compute(leads, Filter{Year: 2024, Month: 1})
	if a.ExecutiveDashboard.TotalLeads != 1 || !near(a.ExecutiveDashboard.TotalRevenue, 100) {
		t.Errorf("dashboard = %+v, want only the well-formed lead", a.ExecutiveDashboard)
	}
	if got := Years(leads); !reflect.DeepEqual(got, []int{2024}) {
		t.Errorf("Years = %v", got)
	}
	for _, d := range []string{"2024-01-99", "2024-01", "2023-13-01", "2024-1-05"} {
		if _, _, ok := yearMonth(d); ok {
			t.Errorf("yearMonth(%q) accepted", d)
		}
	}
}
