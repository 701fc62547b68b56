package obs

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/getcanon/canon/core"
)

var (
	meter     metric.Meter
	meterOnce sync.Once

	// Pre-created instruments for performance
	spanCounter         metric.Int64Counter
	normalizeDuration   metric.Float64Histogram
	diagnosticCounter   metric.Int64Counter
	bundleReloadCounter metric.Int64Counter
)

// Meter returns the configured meter or a noop meter if not configured.
func Meter() metric.Meter {
	meterOnce.Do(func() {
		provider := otel.GetMeterProvider()
		if provider == nil {
			meter = noop.NewMeterProvider().Meter("")
		} else {
			meter = provider.Meter(
				"github.com/getcanon/canon",
				metric.WithInstrumentationVersion("1.0.0"),
			)
			initializeInstruments()
		}
	})
	return meter
}

// initializeInstruments creates all metric instruments. Instrument creation
// errors are ignored; metrics are non-critical.
func initializeInstruments() {
	spanCounter, _ = meter.Int64Counter(
		"canon.spans.normalized",
		metric.WithDescription("Total number of spans normalized"),
		metric.WithUnit("1"),
	)
	normalizeDuration, _ = meter.Float64Histogram(
		"canon.normalize.duration",
		metric.WithDescription("Duration of normalize calls in milliseconds"),
		metric.WithUnit("ms"),
	)
	diagnosticCounter, _ = meter.Int64Counter(
		"canon.diagnostics.total",
		metric.WithDescription("Diagnostics raised during normalization, by kind"),
		metric.WithUnit("1"),
	)
	bundleReloadCounter, _ = meter.Int64Counter(
		"canon.bundle.reloads",
		metric.WithDescription("Bundle reload attempts, by outcome"),
		metric.WithUnit("1"),
	)
}

// RecordNormalize records the outcome of one normalize call.
func RecordNormalize(ctx context.Context, ev *core.CanonicalEvent, duration time.Duration) {
	Meter()
	if ev == nil {
		return
	}
	providerAttr := attribute.String("provider", ev.Provider())
	if spanCounter != nil {
		spanCounter.Add(ctx, 1, metric.WithAttributes(providerAttr))
	}
	if normalizeDuration != nil {
		normalizeDuration.Record(ctx, float64(duration.Microseconds())/1000.0,
			metric.WithAttributes(providerAttr))
	}
	if diagnosticCounter != nil {
		for _, d := range ev.Diagnostics {
			diagnosticCounter.Add(ctx, 1, metric.WithAttributes(
				providerAttr,
				attribute.String("kind", string(d.Kind)),
			))
		}
	}
}

// RecordBundleReload records one reload attempt.
func RecordBundleReload(ctx context.Context, success bool) {
	Meter()
	if bundleReloadCounter != nil {
		bundleReloadCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("success", success),
		))
	}
}
