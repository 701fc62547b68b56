// Package middleware provides composable wrappers for a Normalizer.
// It includes a caller-side time budget, throughput limiting and content
// redaction that can be applied to any Normalizer implementation.
package middleware

import (
	"github.com/getcanon/canon/engine"
)

// Middleware is a function that wraps a Normalizer with additional
// functionality.
type Middleware func(engine.Normalizer) engine.Normalizer

// Chain composes multiple middleware functions into a single middleware.
// The middleware are applied in the order they are provided, with the first
// middleware being the outermost layer.
//
// Example:
//
//	n = middleware.Chain(
//	    middleware.WithTimeout(200*time.Millisecond),
//	    middleware.WithRedaction(middleware.DefaultRedactionOpts()),
//	)(n)
func Chain(middlewares ...Middleware) Middleware {
	return func(n engine.Normalizer) engine.Normalizer {
		// Apply middleware in reverse order so the first middleware
		// is the outermost layer.
		for i := len(middlewares) - 1; i >= 0; i-- {
			n = middlewares[i](n)
		}
		return n
	}
}
