package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/booklets"
	"wrapcrm_backend/internal/events"
	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Sync outcomes, also used as metric labels.
const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

const defaultConcurrency = 4

// SyncObserver counts per-order sync outcomes.
type SyncObserver interface {
	ObserveTrackingSync(outcome string)
}

// forgetter is implemented by carriers that cache.
type forgetter interface {
	Forget(ctx context.Context, trackingNumber string) error
}

// Summary reports one pass over the open orders.
type Summary struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Syncer moves booklet orders forward from carrier data.
type Syncer struct {
	repo        booklets.Repository
	carrier     Carrier
	bus         events.Bus
	observer    SyncObserver
	concurrency int
	loc         *time.Location
	log         *logger.Logger
	now         func() time.Time
}

func NewSyncer(repo booklets.Repository, carrier Carrier, bus events.Bus, concurrency int, loc *time.Location, log *logger.Logger) *Syncer {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Syncer{
		repo:        repo,
		carrier:     carrier,
		bus:         bus,
		concurrency: concurrency,
		loc:         loc,
		log:         log,
		now:         time.Now,
	}
}

func (s *Syncer) SetObserver(o SyncObserver) {
	s.observer = o
}

// SyncAll checks every open order. A failed order is logged and counted; it
// does not stop the others.
func (s *Syncer) SyncAll(ctx context.Context) (Summary, error) {
	open, err := s.repo.ListOpenTracking(ctx)
	if err != nil {
		return Summary{}, err
	}

	var updated, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, b := range open {
		g.Go(func() error {
			changed, err := s.syncOne(gctx, b)
			switch {
			case err != nil:
				failed.Add(1)
				s.log.Warn("tracking sync failed", "bookletId", b.ID, "error", err)
			case changed:
				updated.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{Checked: len(open), Updated: int(updated.Load()), Failed: int(failed.Load())}
	if ctx.Err() != nil {
		return sum, ctx.Err()
	}
	return sum, nil
}

// SyncBooklet refreshes one order, skipping any cached carrier answer.
func (s *Syncer) SyncBooklet(ctx context.Context, id uuid.UUID) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.TrackingNumber == nil || *b.TrackingNumber == "" {
		return nil
	}
	if f, ok := s.carrier.(forgetter); ok {
		if err := f.Forget(ctx, *b.TrackingNumber); err != nil {
			s.log.Warn("tracking cache invalidate failed", "bookletId", id, "error", err)
		}
	}
	_, err = s.syncOne(ctx, b)
	return err
}

// Lookup asks the carrier directly for a tracking number.
func (s *Syncer) Lookup(ctx context.Context, trackingNumber string) (Result, error) {
	return s.carrier.Track(ctx, trackingNumber)
}

func (s *Syncer) syncOne(ctx context.Context, b booklets.Booklet) (bool, error) {
	if b.TrackingNumber == nil {
		return false, nil
	}
	res, err := s.carrier.Track(ctx, *b.TrackingNumber)
	if err != nil {
		s.observe(OutcomeFailed)
		return false, err
	}

	next := BookletStatus(res.Status)
	if !advances(b.Status, next) {
		s.observe(OutcomeUnchanged)
		return false, nil
	}

	var shippedOn *string
	if next == booklets.StatusShipped || next == booklets.StatusDelivered {
		today := calendar.Today(s.now(), s.loc).String()
		shippedOn = &today
	}

	updated, err := s.repo.ApplyTrackingStatus(ctx, b.ID, b.Status, next, shippedOn, activity.Entry{
		Action:     activity.ActionTrackingSync,
		EntityType: activity.EntityBooklet,
		Details:    fmt.Sprintf("Tracking sync: %s -> %s (%s)", b.Status, next, res.Description),
	})
	if errors.Is(err, booklets.ErrStatusMoved) {
		// an operator edited the order while the carrier was queried
		s.observe(OutcomeUnchanged)
		s.log.Info("booklet changed during tracking sync; skipped", "bookletId", b.ID, "from", b.Status, "to", next)
		return false, nil
	}
	if err != nil {
		s.observe(OutcomeFailed)
		return false, err
	}
	s.observe(OutcomeUpdated)

	if s.bus != nil {
		s.bus.Publish(ctx, events.BookletStatusChanged{
			BaseEvent:      events.NewBaseEvent(),
			BookletID:      updated.ID,
			CustomerName:   updated.CustomerName,
			CustomerEmail:  updated.Email,
			TrackingNumber: *b.TrackingNumber,
			OldStatus:      b.Status,
			NewStatus:      updated.Status,
		})
	}
	s.log.Info("booklet status updated from carrier", "bookletId", b.ID, "from", b.Status, "to", next, "source", res.Source)
	return true, nil
}

func (s *Syncer) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveTrackingSync(outcome)
	}
}

var _ booklets.Syncer = (*Syncer)(nil)
