package tracking

import (
	"context"
	"testing"
	"time"

	"wrapcrm_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingCarrier struct {
	calls  int
	status CarrierStatus
}

func (c *countingCarrier) Track(_ context.Context, n string) (Result, error) {
	c.calls++
	return Result{TrackingNumber: n, Status: c.status, Description: Describe(c.status), Source: SourceUSPS}, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachedCarrierServesRepeatLookups(t *testing.T) {
	mr, rdb := newTestRedis(t)
	next := &countingCarrier{status: StatusInTransit}
	c := NewCachedCarrier(next, NewCache(rdb, 10*time.Minute), logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := c.Track(ctx, "EZ1")
		if err != nil {
			t.Fatalf("Track: %v", err)
		}
		if res.Status != StatusInTransit {
			t.Fatalf("Status = %q", res.Status)
		}
	}
	if next.calls != 1 {
		t.Errorf("carrier calls = %d, want 1", next.calls)
	}
	if ttl := mr.TTL(cacheKey("EZ1")); ttl != 10*time.Minute {
		t.Errorf("ttl = %v, want 10m", ttl)
	}

	mr.FastForward(11 * time.Minute)
	if _, err := c.Track(ctx, "EZ1"); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if next.calls != 2 {
		t.Errorf("carrier calls after expiry = %d, want 2", next.calls)
	}

	if err := c.Forget(ctx, "EZ1"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if mr.Exists(cacheKey("EZ1")) {
		t.Errorf("key still cached after Forget")
	}
}

func TestCachedCarrierSurvivesRedisOutage(t *testing.T) {
	mr, rdb := newTestRedis(t)
	next := &countingCarrier{status: StatusShipped}
	c := NewCachedCarrier(next, NewCache(rdb, time.Minute), logger.Nop())
	mr.Close()

	res, err := c.Track(context.Background(), "EZ9")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if res.Status != StatusShipped || next.calls != 1 {
		t.Errorf("res = %+v calls = %d", res, next.calls)
	}
}
