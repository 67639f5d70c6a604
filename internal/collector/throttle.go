package collector

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Throttler caps API calls at limit requests per period.
type Throttler struct {
	limiter *rate.Limiter
}

// NewThrottler accepts 1-999 requests per 1ms-59s period.
func NewThrottler(limit int, period time.Duration) (*Throttler, error) {
	if limit < 1 || limit > 999 {
		return nil, fmt.Errorf("throttle limit %d out of range 1-999", limit)
	}
	if period < time.Millisecond || period > 59*time.Second {
		return nil, fmt.Errorf("throttle period %v out of range 1ms-59s", period)
	}
	return &Throttler{limiter: rate.NewLimiter(rate.Every(period/time.Duration(limit)), limit)}, nil
}

// DefaultThrottler allows 10 requests per 35 seconds.
func DefaultThrottler() *Throttler {
	t, _ := NewThrottler(10, 35*time.Second)
	return t
}

// Acquire blocks until a request may be sent or ctx is done.
func (t *Throttler) Acquire(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return nil
}
