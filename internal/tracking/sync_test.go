package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/booklets"
	"wrapcrm_backend/internal/events"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
)

type memBooklets struct {
	mu      sync.Mutex
	items   map[uuid.UUID]booklets.Booklet
	entries []activity.Entry
}

func newMemBooklets(items ...booklets.Booklet) *memBooklets {
	m := &memBooklets{items: make(map[uuid.UUID]booklets.Booklet)}
	for _, b := range items {
		m.items[b.ID] = b
	}
	return m
}

func (m *memBooklets) List(context.Context, booklets.ListParams) ([]booklets.Booklet, error) {
	return nil, nil
}

func (m *memBooklets) GetByID(_ context.Context, id uuid.UUID) (booklets.Booklet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return booklets.Booklet{}, apperr.NotFound("sample booklet not found")
	}
	return b, nil
}

func (m *memBooklets) Create(context.Context, booklets.Fields, activity.Entry) (booklets.Booklet, error) {
	return booklets.Booklet{}, errors.New("not used")
}

func (m *memBooklets) Update(context.Context, uuid.UUID, booklets.Fields, activity.Entry) (booklets.Booklet, error) {
	return booklets.Booklet{}, errors.New("not used")
}

func (m *memBooklets) Delete(context.Context, uuid.UUID, activity.Entry) error { return nil }

func (m *memBooklets) Stats(context.Context, string) (booklets.Stats, error) {
	return booklets.Stats{}, nil
}

func (m *memBooklets) ListOpenTracking(context.Context) ([]booklets.Booklet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]booklets.Booklet, 0)
	for _, b := range m.items {
		if b.TrackingNumber != nil && b.Status != booklets.StatusDelivered && b.Status != booklets.StatusRefunded {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBooklets) ApplyTrackingStatus(_ context.Context, id uuid.UUID, from, to string, shippedOn *string, e activity.Entry) (booklets.Booklet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.items[id]
	if b.Status != from || b.Status == booklets.StatusDelivered || b.Status == booklets.StatusRefunded {
		return booklets.Booklet{}, booklets.ErrStatusMoved
	}
	b.Status = to
	if b.DateShipped == nil {
		b.DateShipped = shippedOn
	}
	m.items[id] = b
	e.EntityID = id.String()
	m.entries = append(m.entries, e)
	return b, nil
}

type mapCarrier map[string]CarrierStatus

func (c mapCarrier) Track(_ context.Context, n string) (Result, error) {
	s, ok := c[n]
	if !ok {
		return Result{}, errors.New("carrier unavailable")
	}
	return Result{TrackingNumber: n, Status: s, Description: Describe(s), Source: SourceUSPS}, nil
}

type syncBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *syncBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}

func (b *syncBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *syncBus) Subscribe(string, events.Handler) {}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObserveTrackingSync(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[outcome]++
}

func booklet(number, status string) booklets.Booklet {
	return booklets.Booklet{ID: uuid.New(), CustomerName: "Cust " + number, Email: number + "@example.com", TrackingNumber: &number, Status: status}
}

func TestSyncAll(t *testing.T) {
	pendingToShipped := booklet("P1", booklets.StatusPending)
	shippedToDelivered := booklet("S1", booklets.StatusShipped)
	noRegression := booklet("S2", booklets.StatusShipped)
	unchanged := booklet("P2", booklets.StatusPending)
	broken := booklet("X1", booklets.StatusPending)
	refunded := booklet("R1", booklets.StatusRefunded)

	repo := newMemBooklets(pendingToShipped, shippedToDelivered, noRegression, unchanged, broken, refunded)
	carrier := mapCarrier{
		"P1": StatusInTransit,
		"S1": StatusDelivered,
		"S2": StatusPending,
		"P2": StatusPending,
		"R1": StatusDelivered,
	}
	bus := &syncBus{}
	obs := &countingObserver{counts: make(map[string]int)}

	s := NewSyncer(repo, carrier, bus, 2, time.UTC, logger.Nop())
	s.SetObserver(obs)
	s.now = func() time.Time { return time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC) }

	sum, err := s.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if sum != (Summary{Checked: 5, Updated: 2, Failed: 1}) {
		t.Errorf("summary = %+v", sum)
	}

	got, _ := repo.GetByID(context.Background(), pendingToShipped.ID)
	if got.Status != booklets.StatusShipped || got.DateShipped == nil || *got.DateShipped != "2025-03-10" {
		t.Errorf("pending order = %+v", got)
	}
	got, _ = repo.GetByID(context.Background(), noRegression.ID)
	if got.Status != booklets.StatusShipped {
		t.Errorf("shipped order regressed to %q", got.Status)
	}
	got, _ = repo.GetByID(context.Background(), refunded.ID)
	if got.Status != booklets.StatusRefunded {
		t.Errorf("refunded order changed to %q", got.Status)
	}

	if len(bus.published) != 2 {
		t.Fatalf("published %d events, want 2", len(bus.published))
	}
	for _, e := range repo.entries {
		if e.Action != activity.ActionTrackingSync || e.EntityType != activity.EntityBooklet || e.UserID != nil {
			t.Errorf("entry = %+v", e)
		}
	}
	if obs.counts[OutcomeUpdated] != 2 || obs.counts[OutcomeUnchanged] != 2 || obs.counts[OutcomeFailed] != 1 {
		t.Errorf("observer counts = %v", obs.counts)
	}
}

type forgettingCarrier struct {
	mapCarrier
	forgotten []string
}

func (f *forgettingCarrier) Forget(_ context.Context, n string) error {
	f.forgotten = append(f.forgotten, n)
	return nil
}

func TestSyncBookletBypassesCache(t *testing.T) {
	b := booklet("P1", booklets.StatusPending)
	repo := newMemBooklets(b)
	carrier := &forgettingCarrier{mapCarrier: mapCarrier{"P1": StatusDelivered}}
	s := NewSyncer(repo, carrier, &syncBus{}, 1, time.UTC, logger.Nop())

	if err := s.SyncBooklet(context.Background(), b.ID); err != nil {
		t.Fatalf("SyncBooklet: %v", err)
	}
	if len(carrier.forgotten) != 1 || carrier.forgotten[0] != "P1" {
		t.Errorf("forgotten = %v", carrier.forgotten)
	}
	got, _ := repo.GetByID(context.Background(), b.ID)
	if got.Status != booklets.StatusDelivered {
		t.Errorf("Status = %q, want Delivered", got.Status)
	}

	if err := s.SyncBooklet(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

// refundingCarrier marks the order refunded while its carrier answer is in
// flight, the way an operator edit can land between listing and applying.
type refundingCarrier struct {
	mapCarrier
	repo *memBooklets
	id   uuid.UUID
}

func (c refundingCarrier) Track(ctx context.Context, n string) (Result, error) {
	c.repo.mu.Lock()
	b := c.repo.items[c.id]
	b.Status = booklets.StatusRefunded
	c.repo.items[c.id] = b
	c.repo.mu.Unlock()
	return c.mapCarrier.Track(ctx, n)
}

func TestSyncAllSkipsOrderRefundedMidSync(t *testing.T) {
	b := booklet("P1", booklets.StatusShipped)
	repo := newMemBooklets(b)
	carrier := refundingCarrier{mapCarrier: mapCarrier{"P1": StatusDelivered}, repo: repo, id: b.ID}
	bus := &syncBus{}
	obs := &countingObserver{counts: make(map[string]int)}

	s := NewSyncer(repo, carrier, bus, 1, time.UTC, logger.Nop())
	s.SetObserver(obs)

	sum, err := s.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if sum != (Summary{Checked: 1}) {
		t.Errorf("summary = %+v, want one checked and nothing updated", sum)
	}
	got, _ := repo.GetByID(context.Background(), b.ID)
	if got.Status != booklets.StatusRefunded {
		t.Errorf("Status = %q, want the operator's Refunded kept", got.Status)
	}
	if len(bus.published) != 0 || len(repo.entries) != 0 {
		t.Errorf("published = %v entries = %v", bus.published, repo.entries)
	}
	if obs.counts[OutcomeUnchanged] != 1 || obs.counts[OutcomeFailed] != 0 {
		t.Errorf("observer counts = %v", obs.counts)
	}
}
