package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces consecutive source requests so that a run never hammers the
// feed hosts. It implements a token bucket with a burst of one.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer allowing one request per interval. A zero or
// negative interval disables pacing.
//
// Example:
//
//	pacer := NewPacer(500 * time.Millisecond)
//	if err := pacer.Wait(ctx); err != nil {
//	    return err // context canceled
//	}
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next request may be sent or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
