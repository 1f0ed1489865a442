package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the pipeline's metric instruments.
type Metrics struct {
	// AuthRedirects counts redirects sent to the authorization server.
	AuthRedirects metric.Int64Counter

	// CallbackResults counts authorization callbacks by outcome
	// (success, state_mismatch, protocol_error, exchange_error).
	CallbackResults metric.Int64Counter

	// Introspections counts token introspections by result (valid,
	// invalid, error).
	Introspections metric.Int64Counter

	// Refreshes counts refresh attempts by result (success, rejected,
	// error).
	Refreshes metric.Int64Counter

	// Logouts counts logout and logout-callback requests.
	Logouts metric.Int64Counter

	// StageDuration measures per-stage handling time in seconds.
	StageDuration metric.Float64Histogram
}

func newMetrics(inst *Instrumentation) (*Metrics, error) {
	meter := inst.Meter("pipeline")
	m := &Metrics{}
	var err error

	if m.AuthRedirects, err = meter.Int64Counter(
		"oauth2.interceptor.auth_redirects",
		metric.WithDescription("Redirects issued to the authorization server"),
	); err != nil {
		return nil, fmt.Errorf("auth_redirects counter: %w", err)
	}

	if m.CallbackResults, err = meter.Int64Counter(
		"oauth2.interceptor.callbacks",
		metric.WithDescription("Authorization callback outcomes"),
	); err != nil {
		return nil, fmt.Errorf("callbacks counter: %w", err)
	}

	if m.Introspections, err = meter.Int64Counter(
		"oauth2.interceptor.introspections",
		metric.WithDescription("Token introspection results"),
	); err != nil {
		return nil, fmt.Errorf("introspections counter: %w", err)
	}

	if m.Refreshes, err = meter.Int64Counter(
		"oauth2.interceptor.refreshes",
		metric.WithDescription("Token refresh attempt results"),
	); err != nil {
		return nil, fmt.Errorf("refreshes counter: %w", err)
	}

	if m.Logouts, err = meter.Int64Counter(
		"oauth2.interceptor.logouts",
		metric.WithDescription("Logout and logout-callback requests"),
	); err != nil {
		return nil, fmt.Errorf("logouts counter: %w", err)
	}

	if m.StageDuration, err = meter.Float64Histogram(
		"oauth2.interceptor.stage_duration_seconds",
		metric.WithDescription("Pipeline stage handling time"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("stage_duration histogram: %w", err)
	}

	return m, nil
}

// CountResult records one occurrence on a counter with a result attribute.
// Nil-safe so call sites need no instrumentation guard.
func CountResult(ctx context.Context, counter metric.Int64Counter, result string) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordStage records one stage execution duration.
func (m *Metrics) RecordStage(ctx context.Context, stage string, start time.Time) {
	if m == nil || m.StageDuration == nil {
		return
	}
	m.StageDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
}
