package tracking

import (
	"context"

	"wrapcrm_backend/platform/logger"
)

// FallbackCarrier asks primary first and answers from fallback when primary
// fails.
type FallbackCarrier struct {
	primary  Carrier
	fallback Carrier
	log      *logger.Logger
}

func NewFallbackCarrier(primary, fallback Carrier, log *logger.Logger) *FallbackCarrier {
	return &FallbackCarrier{primary: primary, fallback: fallback, log: log}
}

func (f *FallbackCarrier) Track(ctx context.Context, trackingNumber string) (Result, error) {
	res, err := f.primary.Track(ctx, trackingNumber)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	f.log.WithContext(ctx).Warn("carrier lookup failed, using fallback", "error", err)
	return f.fallback.Track(ctx, trackingNumber)
}

var _ Carrier = (*FallbackCarrier)(nil)
