package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter caps how often watch mode may start a traversal.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a token bucket that refills perSecond runs per second
// and holds at most burst runs. A non-positive perSecond disables limiting.
func NewLimiter(perSecond float64, burst int) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{inner: rate.NewLimiter(limit, burst)}
}

// Allow reports whether a run may start now.
func (l *Limiter) Allow() bool {
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until a run may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
