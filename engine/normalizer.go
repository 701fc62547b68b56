// Normalizer: the facade tying detection, extraction and assembly to a
// bundle source. Per-span processing does no I/O and holds no mutable
// state; the only error a normalize call can return is a context already
// done or a source with no bundle published.

package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/getcanon/canon/bundle"
	"github.com/getcanon/canon/core"
	"github.com/getcanon/canon/obs"
)

// ErrNoBundle is returned when the bundle source has nothing published.
var ErrNoBundle = errors.New("engine: no bundle loaded")

// Normalizer turns one span's flattened attributes into a canonical event.
type Normalizer interface {
	Normalize(ctx context.Context, attrs core.AttributeSet) (*core.CanonicalEvent, error)
}

// NormalizerFunc adapts a function to the Normalizer interface.
type NormalizerFunc func(ctx context.Context, attrs core.AttributeSet) (*core.CanonicalEvent, error)

// Normalize implements Normalizer.
func (f NormalizerFunc) Normalize(ctx context.Context, attrs core.AttributeSet) (*core.CanonicalEvent, error) {
	return f(ctx, attrs)
}

// BundleSource supplies the current immutable bundle snapshot. Both
// *bundle.Handle and the static source returned by NewStatic satisfy it.
type BundleSource interface {
	Load() *bundle.Bundle
}

// staticSource publishes one fixed bundle.
type staticSource struct{ b *bundle.Bundle }

func (s staticSource) Load() *bundle.Bundle { return s.b }

// Engine is the default Normalizer implementation.
type Engine struct {
	source   BundleSource
	stampIDs bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithEventIDs stamps metadata.event_id with a fresh UUID on every event.
func WithEventIDs() Option {
	return func(e *Engine) { e.stampIDs = true }
}

// New creates an Engine reading bundle snapshots from source.
func New(source BundleSource, opts ...Option) *Engine {
	e := &Engine{source: source}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewStatic creates an Engine bound to one fixed bundle.
func NewStatic(b *bundle.Bundle, opts ...Option) *Engine {
	return New(staticSource{b: b}, opts...)
}

// Normalize processes one span. The returned event is always fully formed:
// unknown provider, extraction gaps, reconstruction ambiguities and missing
// required fields all surface as diagnostics on the event, never as errors.
func (e *Engine) Normalize(ctx context.Context, attrs core.AttributeSet) (*core.CanonicalEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := e.source.Load()
	if b == nil {
		return nil, ErrNoBundle
	}

	start := time.Now()
	ctx, span := obs.StartNormalizeSpan(ctx, len(attrs))
	defer span.End()

	provider := DetectProvider(b, attrs)
	var ev *core.CanonicalEvent
	if provider == nil {
		ev = Assemble(core.ProviderUnknown, nil, nil)
		ev.Diagnose(core.Diagnostic{
			Kind:    core.DiagUnknownProvider,
			Message: "no compiled signature matches the observed key shapes",
		})
	} else {
		extractions, diags := Extract(provider, attrs)
		ev = Assemble(provider.ID, extractions, provider)
		ev.Diagnose(diags...)
	}

	if e.stampIDs {
		ev.Metadata.Set("event_id", uuid.NewString())
	}

	obs.RecordOutcome(span, ev)
	obs.RecordNormalize(ctx, ev, time.Since(start))
	return ev, nil
}
