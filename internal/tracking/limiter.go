package tracking

import (
	"golang.org/x/time/rate"
)

// OutboundLimiter caps calls to the tracking provider. Callers that get a
// false from Allow must skip the call (soft failure), never block on it.
type OutboundLimiter interface {
	Allow() bool
}

// TokenBucketLimiter is a process-local token bucket over the configured
// provider quota.
type TokenBucketLimiter struct {
	limiter *rate.Limiter
}

func NewTokenBucketLimiter(rps float64, burst int) *TokenBucketLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucketLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *TokenBucketLimiter) Allow() bool {
	return l.limiter.Allow()
}
