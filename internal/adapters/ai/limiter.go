package ai

import (
	"context"

	"golang.org/x/time/rate"

	"dexter/pkg/errors"
)

// Limiter smooths outbound provider calls with a token bucket. This is
// upstream protection, independent from the per-caller request quota.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a provider rate limiter.
// reqPerMinute: maximum number of requests allowed per minute.
func NewLimiter(name string, reqPerMinute float64) *Limiter {
	rps := reqPerMinute / 60.0

	burst := int(reqPerMinute / 10)
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows the request.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}
