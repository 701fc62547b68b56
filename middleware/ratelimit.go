// Throughput-limiting middleware. Normalization itself is cheap; the limit
// protects whatever consumes the events (an exporter, a storage writer)
// from bursts when replaying captured spans.

package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/getcanon/canon/core"
	"github.com/getcanon/canon/engine"
)

// RateLimitOpts configures the rate limiting middleware.
type RateLimitOpts struct {
	// EventsPerSecond is the sustained rate limit.
	EventsPerSecond float64
	// Burst is the maximum burst size (defaults to EventsPerSecond when
	// not positive).
	Burst int
}

// DefaultRateLimitOpts returns sensible defaults for replay pipelines.
func DefaultRateLimitOpts() RateLimitOpts {
	return RateLimitOpts{
		EventsPerSecond: 1000,
		Burst:           100,
	}
}

// WithRateLimit creates middleware that paces normalize calls with a token
// bucket. Calls block until a token is available or the context is done.
func WithRateLimit(opts RateLimitOpts) Middleware {
	if opts.Burst <= 0 {
		opts.Burst = int(opts.EventsPerSecond)
		if opts.Burst <= 0 {
			opts.Burst = 1
		}
	}
	limiter := rate.NewLimiter(rate.Limit(opts.EventsPerSecond), opts.Burst)

	return func(next engine.Normalizer) engine.Normalizer {
		return engine.NormalizerFunc(func(ctx context.Context, attrs core.AttributeSet) (*core.CanonicalEvent, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return next.Normalize(ctx, attrs)
		})
	}
}
