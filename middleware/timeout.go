// Time-budget middleware. Normalization is bounded by the size of one
// span's attribute set and needs no internal cancellation; callers that
// still want a hard per-call bound can impose one here.

package middleware

import (
	"context"
	"time"

	"github.com/getcanon/canon/core"
	"github.com/getcanon/canon/engine"
)

// WithTimeout wraps a Normalizer with a per-call deadline. A call that
// exceeds the budget returns context.DeadlineExceeded; the underlying
// computation has no side effects to leak.
func WithTimeout(budget time.Duration) Middleware {
	return func(next engine.Normalizer) engine.Normalizer {
		return engine.NormalizerFunc(func(ctx context.Context, attrs core.AttributeSet) (*core.CanonicalEvent, error) {
			ctx, cancel := context.WithTimeout(ctx, budget)
			defer cancel()

			type result struct {
				ev  *core.CanonicalEvent
				err error
			}
			done := make(chan result, 1)
			go func() {
				ev, err := next.Normalize(ctx, attrs)
				done <- result{ev: ev, err: err}
			}()

			select {
			case r := <-done:
				return r.ev, r.err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		})
	}
}
