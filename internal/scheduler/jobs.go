package scheduler

import (
	"context"
	"sync"
	"time"

	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/internal/tracking"
	"wrapcrm_backend/platform/logger"
)

const digestCheckInterval = time.Minute

// TrackingSyncer refreshes every open booklet from its carrier.
type TrackingSyncer interface {
	SyncAll(ctx context.Context) (tracking.Summary, error)
}

// TrackingSyncJob runs the carrier sync once at start and then on a fixed
// interval until the context is cancelled.
type TrackingSyncJob struct {
	syncer   TrackingSyncer
	interval time.Duration
	log      *logger.Logger
}

func NewTrackingSyncJob(syncer TrackingSyncer, interval time.Duration, log *logger.Logger) *TrackingSyncJob {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &TrackingSyncJob{syncer: syncer, interval: interval, log: log}
}

func (j *TrackingSyncJob) Run(ctx context.Context) {
	if j == nil || j.syncer == nil {
		return
	}

	j.runOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *TrackingSyncJob) runOnce(ctx context.Context) {
	started := time.Now()
	summary, err := j.syncer.SyncAll(ctx)
	j.log.JobRun("tracking.sync", started, summary.Checked, err)
	if err == nil && (summary.Updated > 0 || summary.Failed > 0) {
		j.log.Info("tracking sync summary", "checked", summary.Checked, "updated", summary.Updated, "failed", summary.Failed)
	}
}

// DigestEnqueuer queues the follow-up digest for a day.
type DigestEnqueuer interface {
	EnqueueFollowupDigest(ctx context.Context, day string) error
}

// DigestDispatcher enqueues the follow-up digest once per business day, on the
// first check at or after the configured hour. The task id is derived from the
// day, so several scheduler replicas still produce a single digest.
type DigestDispatcher struct {
	queue DigestEnqueuer
	hour  int
	loc   *time.Location
	log   *logger.Logger
	now   func() time.Time

	mu      sync.Mutex
	lastDay string
}

func NewDigestDispatcher(queue DigestEnqueuer, hour int, loc *time.Location, log *logger.Logger) *DigestDispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &DigestDispatcher{queue: queue, hour: hour, loc: loc, log: log, now: time.Now}
}

func (d *DigestDispatcher) Run(ctx context.Context) {
	if d == nil || d.queue == nil {
		return
	}

	d.tick(ctx)

	ticker := time.NewTicker(digestCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// tick reports whether a digest was enqueued.
func (d *DigestDispatcher) tick(ctx context.Context) bool {
	now := d.now().In(d.loc)
	if now.Hour() < d.hour {
		return false
	}
	day := calendar.Of(now).String()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastDay == day {
		return false
	}

	if err := d.queue.EnqueueFollowupDigest(ctx, day); err != nil {
		d.log.Error("failed to enqueue follow-up digest", "day", day, "error", err)
		return false
	}
	d.lastDay = day
	d.log.Info("follow-up digest enqueued", "day", day)
	return true
}
