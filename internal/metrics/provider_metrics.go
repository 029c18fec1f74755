package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Call outcomes recorded against provider metrics.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeCacheHit    = "cache_hit"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
	OutcomeCircuitOpen = "circuit_open"
)

// ProviderMetrics provides metrics collection for upstream provider calls
type ProviderMetrics struct {
	callsCounter          metric.Int64Counter
	callDurationHistogram metric.Float64Histogram
	callsActiveGauge      metric.Int64UpDownCounter
	eventsReturnedCounter metric.Int64Counter
}

// NewProviderMetrics creates provider metrics on the global meter provider
func NewProviderMetrics() (*ProviderMetrics, error) {
	return NewProviderMetricsWithMeter(otel.Meter("provider-metrics"))
}

// NewProviderMetricsWithMeter creates provider metrics on the given meter
func NewProviderMetricsWithMeter(meter metric.Meter) (*ProviderMetrics, error) {
	callsCounter, err := meter.Int64Counter(
		"dateai.provider.calls",
		metric.WithDescription("Total number of provider calls by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callDurationHistogram, err := meter.Float64Histogram(
		"dateai.provider.call.duration",
		metric.WithDescription("Duration of provider calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	callsActiveGauge, err := meter.Int64UpDownCounter(
		"dateai.provider.calls.active",
		metric.WithDescription("Number of in-flight provider calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	eventsReturnedCounter, err := meter.Int64Counter(
		"dateai.provider.events",
		metric.WithDescription("Total number of events returned by providers"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		callsCounter:          callsCounter,
		callDurationHistogram: callDurationHistogram,
		callsActiveGauge:      callsActiveGauge,
		eventsReturnedCounter: eventsReturnedCounter,
	}, nil
}

// CallStarted marks a provider call as in flight. The returned func records
// the outcome and duration and must be called exactly once.
func (pm *ProviderMetrics) CallStarted(ctx context.Context, provider, operation string) func(outcome string) {
	if pm == nil {
		return func(string) {}
	}
	start := time.Now()
	pm.callsActiveGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
		),
	)
	return func(outcome string) {
		pm.RecordCall(ctx, provider, operation, outcome, time.Since(start))
		pm.callsActiveGauge.Add(ctx, -1,
			metric.WithAttributes(
				attribute.String("provider", provider),
			),
		)
	}
}

// RecordCall records one finished provider call
func (pm *ProviderMetrics) RecordCall(ctx context.Context, provider, operation, outcome string, duration time.Duration) {
	if pm == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	pm.callsCounter.Add(ctx, 1, attrs)
	pm.callDurationHistogram.Record(ctx, duration.Seconds(), attrs)
}

// RecordEvents records how many events a provider contributed
func (pm *ProviderMetrics) RecordEvents(ctx context.Context, provider string, count int) {
	if pm == nil || count == 0 {
		return
	}
	pm.eventsReturnedCounter.Add(ctx, int64(count),
		metric.WithAttributes(
			attribute.String("provider", provider),
		),
	)
}
