package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/events"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/internal/leads/transport"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	leads       map[uuid.UUID]repository.Lead
	soldToday   []uuid.UUID
	historyErr  error
	latestSold  map[uuid.UUID]time.Time
	lastUpdate  *repository.UpdateParams
	lastCreate  *repository.CreateParams
	transitions struct{ from, to time.Time }
}

func newFakeRepo(leads ...repository.Lead) *fakeRepo {
	r := &fakeRepo{leads: make(map[uuid.UUID]repository.Lead), latestSold: make(map[uuid.UUID]time.Time)}
	for _, l := range leads {
		r.leads[l.ID] = l
	}
	return r
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	l, ok := r.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (r *fakeRepo) List(context.Context, repository.ListParams) ([]repository.Lead, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) ListAll(context.Context) ([]repository.Lead, error) {
	out := make([]repository.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b repository.Lead) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, p repository.CreateParams) (repository.Lead, error) {
	r.lastCreate = &p
	l := leadFrom(uuid.New(), p.Fields)
	r.leads[l.ID] = l
	return l, nil
}

func (r *fakeRepo) Update(_ context.Context, p repository.UpdateParams) (repository.Lead, error) {
	r.lastUpdate = &p
	l := leadFrom(p.ID, p.Fields)
	r.leads[l.ID] = l
	return l, nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID, _ activity.Entry) error {
	delete(r.leads, id)
	return nil
}

func (r *fakeRepo) LatestTransitionTo(_ context.Context, id uuid.UUID, _ string) (*time.Time, error) {
	if r.historyErr != nil {
		return nil, r.historyErr
	}
	if t, ok := r.latestSold[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *fakeRepo) LeadsTransitionedTo(_ context.Context, _ string, from, to time.Time) ([]uuid.UUID, error) {
	r.transitions.from, r.transitions.to = from, to
	if r.historyErr != nil {
		return nil, r.historyErr
	}
	return r.soldToday, nil
}

func leadFrom(id uuid.UUID, f repository.Fields) repository.Lead {
	return repository.Lead{
		ID: id, Name: f.Name, Phone: f.Phone, Email: f.Email, LeadOrigin: f.LeadOrigin,
		DateCreated: f.DateCreated, NextFollowupDate: f.NextFollowupDate, Remarks: f.Remarks,
		AssignedTo: f.AssignedTo, DepositPaid: f.DepositPaid, BalancePaid: f.BalancePaid,
		InstallationDate: f.InstallationDate, AssignedInstaller: f.AssignedInstaller,
	}
}

type fakeAudit struct {
	records []activity.Record
	err     error
}

func (a *fakeAudit) ListForEntity(_ context.Context, _, entityID, _ string) ([]activity.Record, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := make([]activity.Record, 0)
	for _, r := range a.records {
		if r.EntityID != nil && *r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *fakeAudit) ListActionSince(_ context.Context, _, _ string, since time.Time) ([]activity.Record, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := make([]activity.Record, 0)
	for _, r := range a.records {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *recordingBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

type countsObserver struct{ last map[string]int }

func (o *countsObserver) ObserveFollowups(c map[string]int) { o.last = c }

var fixedNow = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func newTestService(repo *fakeRepo, audit *fakeAudit) (*Service, *recordingBus) {
	bus := &recordingBus{}
	svc := New(repo, audit, bus, time.UTC, logger.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, bus
}

func str(s string) *string { return &s }

func sold(name, created string, paid bool) repository.Lead {
	return repository.Lead{ID: uuid.New(), Name: name, Remarks: "Sold", DateCreated: created, BalancePaid: paid}
}

func names(leads []transport.LeadResponse) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.Name
	}
	return out
}

func TestFollowupsUsesStatusHistory(t *testing.T) {
	oldSale := sold("a-old-sale", "2025-01-02", false)
	sameDay := sold("b-same-day", "2025-03-01", false)
	repo := newFakeRepo(oldSale, sameDay)
	repo.soldToday = []uuid.UUID{oldSale.ID}
	obs := &countsObserver{}
	svc, _ := newTestService(repo, &fakeAudit{})
	svc.SetFollowupObserver(obs)

	got, err := svc.Followups(context.Background(), false)
	if err != nil {
		t.Fatalf("Followups: %v", err)
	}
	if got.SoldTodaySource != "status_history" {
		t.Errorf("source = %s", got.SoldTodaySource)
	}
	if !slices.Equal(names(got.SoldToday), []string{"a-old-sale"}) {
		t.Errorf("sold today = %v", names(got.SoldToday))
	}
	if got.Today != "2025-03-01" {
		t.Errorf("today = %s", got.Today)
	}
	if !repo.transitions.from.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) ||
		!repo.transitions.to.Equal(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window = %v .. %v", repo.transitions.from, repo.transitions.to)
	}
	if obs.last["sold_today"] != 1 || obs.last["new_today"] != 1 {
		t.Errorf("observer counts = %v", obs.last)
	}
}

func TestFollowupsDegradesToActivityLog(t *testing.T) {
	oldSale := sold("a-old-sale", "2025-01-02", false)
	repo := newFakeRepo(oldSale)
	repo.historyErr = errors.New("relation does not exist")
	id := oldSale.ID.String()
	audit := &fakeAudit{records: []activity.Record{{
		EntityID:  &id,
		Action:    activity.ActionUpdateLead,
		Details:   "Updated lead: a-old-sale - Changes: remarks",
		CreatedAt: time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC),
	}}}
	svc, _ := newTestService(repo, audit)

	got, err := svc.Followups(context.Background(), false)
	if err != nil {
		t.Fatalf("Followups: %v", err)
	}
	if got.SoldTodaySource != "activity_log" {
		t.Errorf("source = %s", got.SoldTodaySource)
	}
	if !slices.Equal(names(got.SoldToday), []string{"a-old-sale"}) {
		t.Errorf("sold today = %v", names(got.SoldToday))
	}
}

func TestFollowupsFallsBackToCreationDate(t *testing.T) {
	repo := newFakeRepo(sold("a-old-sale", "2025-01-02", false), sold("b-same-day", "2025-03-01", false))
	repo.historyErr = errors.New("timeout")
	svc, _ := newTestService(repo, &fakeAudit{err: errors.New("timeout")})

	got, err := svc.Followups(context.Background(), false)
	if err != nil {
		t.Fatalf("Followups: %v", err)
	}
	if got.SoldTodaySource != "creation_date" {
		t.Errorf("source = %s", got.SoldTodaySource)
	}
	if !slices.Equal(names(got.SoldToday), []string{"b-same-day"}) {
		t.Errorf("sold today = %v", names(got.SoldToday))
	}
}

func TestFollowupsHidePaidOnlyTouchesBuckets(t *testing.T) {
	paid := sold("a-paid", "2025-03-01", true)
	paid.NextFollowupDate = str("2025-02-01")
	owing := sold("b-owing", "2025-01-01", false)
	owing.NextFollowupDate = str("2025-02-01")
	repo := newFakeRepo(paid, owing)
	repo.soldToday = []uuid.UUID{paid.ID}
	svc, _ := newTestService(repo, &fakeAudit{})

	got, err := svc.Followups(context.Background(), true)
	if err != nil {
		t.Fatalf("Followups: %v", err)
	}
	if !slices.Equal(names(got.Overdue), []string{"b-owing"}) {
		t.Errorf("overdue = %v", names(got.Overdue))
	}
	if !slices.Equal(names(got.SoldToday), []string{"a-paid"}) {
		t.Errorf("sold today = %v", names(got.SoldToday))
	}
}

func TestUpdateSettingFollowupMovesNewToInProgress(t *testing.T) {
	lead := repository.Lead{ID: uuid.New(), Name: "Jane Doe", Remarks: "New", DateCreated: "2025-02-20"}
	repo := newFakeRepo(lead)
	svc, bus := newTestService(repo, &fakeAudit{})
	actor := uuid.New()

	got, err := svc.Update(context.Background(), actor, lead.ID, transport.UpdateLeadRequest{
		NextFollowupDate: str("2025-03-04"),
		Notes:            str("called, left voicemail"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != "In Progress" {
		t.Errorf("status = %s", got.Status)
	}

	p := repo.lastUpdate
	if p.Status == nil || *p.Status.OldStatus != "New" || p.Status.NewStatus != "In Progress" || *p.Status.ChangedBy != actor {
		t.Fatalf("status change = %+v", p.Status)
	}
	wantDetails := "Updated lead: Jane Doe - Changes: next_followup_date, remarks, notes"
	if p.Activity.Details != wantDetails {
		t.Errorf("details = %q, want %q", p.Activity.Details, wantDetails)
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	ev, ok := bus.published[0].(events.LeadStatusChanged)
	if !ok || ev.NewStatus != "In Progress" || ev.OldStatus != "New" {
		t.Errorf("event = %+v", bus.published[0])
	}
}

func TestUpdateWithoutStatusChangeWritesNoHistory(t *testing.T) {
	lead := repository.Lead{ID: uuid.New(), Name: "Sam", Remarks: "Sold", DateCreated: "2025-02-20"}
	repo := newFakeRepo(lead)
	svc, bus := newTestService(repo, &fakeAudit{})

	if _, err := svc.Update(context.Background(), uuid.New(), lead.ID, transport.UpdateLeadRequest{
		NextFollowupDate: str("2025-03-04"),
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.lastUpdate.Status != nil {
		t.Errorf("unexpected status change %+v", repo.lastUpdate.Status)
	}
	if len(bus.published) != 0 {
		t.Errorf("unexpected events %v", bus.published)
	}
}

func TestUpdateLegacyStatusSpellingIsNotATransition(t *testing.T) {
	lead := repository.Lead{ID: uuid.New(), Name: "legacy", Remarks: "sold", DateCreated: "2024-06-02"}
	repo := newFakeRepo(lead)
	svc, bus := newTestService(repo, &fakeAudit{})

	got, err := svc.Update(context.Background(), uuid.New(), lead.ID, transport.UpdateLeadRequest{
		NextFollowupDate: str("2025-03-04"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != "Sold" {
		t.Errorf("status = %s", got.Status)
	}
	if repo.lastUpdate.Status != nil {
		t.Errorf("status history written for a spelling change: %+v", repo.lastUpdate.Status)
	}
	want := "Updated lead: legacy - Changes: next_followup_date"
	if repo.lastUpdate.Activity.Details != want {
		t.Errorf("details = %q, want %q", repo.lastUpdate.Activity.Details, want)
	}
	if len(bus.published) != 0 {
		t.Errorf("unexpected events %v", bus.published)
	}

	// naming the same status explicitly is not a transition either
	if _, err := svc.Update(context.Background(), uuid.New(), lead.ID, transport.UpdateLeadRequest{Status: str("SOLD")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.lastUpdate.Status != nil || len(bus.published) != 0 {
		t.Errorf("explicit same status recorded as a change")
	}
}

func TestUpdateRejectsMalformedFollowup(t *testing.T) {
	lead := repository.Lead{ID: uuid.New(), Name: "Sam", Remarks: "New", DateCreated: "2025-02-20"}
	svc, _ := newTestService(newFakeRepo(lead), &fakeAudit{})

	_, err := svc.Update(context.Background(), uuid.New(), lead.ID, transport.UpdateLeadRequest{NextFollowupDate: str("03/04/2025")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateDefaultsToTodayAndRecordsHistory(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeAudit{})
	actor := uuid.New()

	got, err := svc.Create(context.Background(), actor, transport.CreateLeadRequest{
		Name:       "  Pat Lee ",
		Phone:      "650-253-0000",
		LeadOrigin: "Website",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.DateCreated != "2025-03-01" || got.Status != "New" || got.Name != "Pat Lee" {
		t.Errorf("created = %+v", got)
	}
	if got.Phone != "+16502530000" {
		t.Errorf("phone = %s", got.Phone)
	}
	if p := repo.lastCreate; p.Status.OldStatus != nil || p.Status.NewStatus != "New" {
		t.Errorf("initial history = %+v", p.Status)
	}
}

func TestSoldDateSources(t *testing.T) {
	fromHistory := sold("history", "2025-01-01", false)
	fromActivity := sold("activity", "2025-01-01", false)
	fromCreation := sold("creation", "2025-01-05", false)
	open := repository.Lead{ID: uuid.New(), Name: "open", Remarks: "New", DateCreated: "2025-01-01"}
	working := repository.Lead{ID: uuid.New(), Name: "working", Remarks: "In Progress", DateCreated: "2025-01-01"}

	repo := newFakeRepo(fromHistory, fromActivity, fromCreation, open, working)
	repo.latestSold[fromHistory.ID] = time.Date(2025, 2, 14, 23, 30, 0, 0, time.UTC)
	activityID := fromActivity.ID.String()
	workingID := working.ID.String()
	audit := &fakeAudit{records: []activity.Record{
		{EntityID: &activityID, Action: activity.ActionUpdateLead, Details: "Changes: remarks", CreatedAt: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)},
		{EntityID: &activityID, Action: activity.ActionUpdateLead, Details: "Changes: notes", CreatedAt: time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC)},
		{EntityID: &workingID, Action: activity.ActionUpdateLead, Details: "Changes: remarks", CreatedAt: time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)},
	}}
	svc, _ := newTestService(repo, audit)

	cases := []struct {
		lead       repository.Lead
		wantDate   string
		wantSource string
	}{
		{fromHistory, "2025-02-14", "status_history"},
		{fromActivity, "2025-01-10", "activity_log"},
		{fromCreation, "2025-01-05", "creation_date"},
		{open, "", SoldDateNone},
		{working, "", SoldDateNone},
	}
	for _, tc := range cases {
		got, err := svc.SoldDate(context.Background(), tc.lead.ID)
		if err != nil {
			t.Fatalf("%s: %v", tc.lead.Name, err)
		}
		gotDate := ""
		if got.SoldDate != nil {
			gotDate = *got.SoldDate
		}
		if gotDate != tc.wantDate || got.Source != tc.wantSource {
			t.Errorf("%s: got %q from %s, want %q from %s", tc.lead.Name, gotDate, got.Source, tc.wantDate, tc.wantSource)
		}
	}
}

func TestDueByAssignee(t *testing.T) {
	rep := "maria"
	overdue := repository.Lead{ID: uuid.New(), Name: "a", Remarks: "In Progress", NextFollowupDate: str("2025-02-27"), AssignedTo: &rep}
	dueToday := repository.Lead{ID: uuid.New(), Name: "b", Remarks: "New", NextFollowupDate: str("2025-03-01")}
	later := repository.Lead{ID: uuid.New(), Name: "c", Remarks: "New", NextFollowupDate: str("2025-03-09"), AssignedTo: &rep}
	svc, _ := newTestService(newFakeRepo(overdue, dueToday, later), &fakeAudit{})

	today, groups, err := svc.DueByAssignee(context.Background())
	if err != nil {
		t.Fatalf("DueByAssignee: %v", err)
	}
	if today.String() != "2025-03-01" {
		t.Errorf("today = %s", today)
	}
	if len(groups["maria"]) != 1 || groups["maria"][0].Name != "a" {
		t.Errorf("maria = %v", groups["maria"])
	}
	if len(groups[""]) != 1 || groups[""][0].Name != "b" {
		t.Errorf("unassigned = %v", groups[""])
	}
}
