package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/sentiview"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Session metrics
	LoginsTotal         metric.Int64Counter
	LoginErrorsTotal    metric.Int64Counter
	VerificationsTotal  metric.Int64Counter
	LogoutsTotal        metric.Int64Counter
	ProfileUpdatesTotal metric.Int64Counter
	RegistrationsTotal  metric.Int64Counter

	// Backend client metrics
	RequestDuration metric.Float64Histogram
	RequestRetries  metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = NewMetrics(otel.GetMeterProvider())
	})
	return metrics
}

// NewMetrics creates the metric instruments from the given provider.
// Tests pass an sdk provider backed by a manual reader.
func NewMetrics(provider metric.MeterProvider) *Metrics {
	meter := provider.Meter(meterName)

	m := &Metrics{}

	m.LoginsTotal, _ = meter.Int64Counter(
		"sentiview.session.logins.total",
		metric.WithDescription("Total number of successful logins"),
		metric.WithUnit("{login}"),
	)

	m.LoginErrorsTotal, _ = meter.Int64Counter(
		"sentiview.session.login.errors.total",
		metric.WithDescription("Total number of failed logins"),
		metric.WithUnit("{error}"),
	)

	m.VerificationsTotal, _ = meter.Int64Counter(
		"sentiview.session.verifications.total",
		metric.WithDescription("Startup token verifications by outcome"),
		metric.WithUnit("{verification}"),
	)

	m.LogoutsTotal, _ = meter.Int64Counter(
		"sentiview.session.logouts.total",
		metric.WithDescription("Total number of logouts"),
		metric.WithUnit("{logout}"),
	)

	m.ProfileUpdatesTotal, _ = meter.Int64Counter(
		"sentiview.session.profile_updates.total",
		metric.WithDescription("Total number of profile update attempts"),
		metric.WithUnit("{update}"),
	)

	m.RegistrationsTotal, _ = meter.Int64Counter(
		"sentiview.session.registrations.total",
		metric.WithDescription("Total number of registration attempts"),
		metric.WithUnit("{registration}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"sentiview.client.request.duration",
		metric.WithDescription("Duration of backend requests"),
		metric.WithUnit("ms"),
	)

	m.RequestRetries, _ = meter.Int64Counter(
		"sentiview.client.request.retries.total",
		metric.WithDescription("Backend reads retried after a transient failure"),
		metric.WithUnit("{retry}"),
	)

	return m
}
