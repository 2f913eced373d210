package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/c2pa-signer"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Signing metrics
	SignRequestsTotal metric.Int64Counter
	SignErrorsTotal   metric.Int64Counter
	SignDuration      metric.Float64Histogram

	// Certificate metrics
	CertificatesIssuedTotal metric.Int64Counter
	CertificateErrorsTotal  metric.Int64Counter

	// Credential metrics
	CredentialLoadErrorsTotal metric.Int64Counter

	// Auth metrics
	AuthDeniedTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.SignRequestsTotal, _ = meter.Int64Counter(
		"c2pa.sign.requests.total",
		metric.WithDescription("Total number of claim signing requests"),
		metric.WithUnit("{request}"),
	)

	m.SignErrorsTotal, _ = meter.Int64Counter(
		"c2pa.sign.errors.total",
		metric.WithDescription("Total number of failed claim signing requests"),
		metric.WithUnit("{error}"),
	)

	m.SignDuration, _ = meter.Float64Histogram(
		"c2pa.sign.duration",
		metric.WithDescription("Duration of claim signing operations"),
		metric.WithUnit("ms"),
	)

	m.CertificatesIssuedTotal, _ = meter.Int64Counter(
		"c2pa.certificates.issued.total",
		metric.WithDescription("Total number of certificates issued"),
		metric.WithUnit("{certificate}"),
	)

	m.CertificateErrorsTotal, _ = meter.Int64Counter(
		"c2pa.certificates.errors.total",
		metric.WithDescription("Total number of failed certificate issuances"),
		metric.WithUnit("{error}"),
	)

	m.CredentialLoadErrorsTotal, _ = meter.Int64Counter(
		"c2pa.credentials.errors.total",
		metric.WithDescription("Total number of credential resolution failures"),
		metric.WithUnit("{error}"),
	)

	m.AuthDeniedTotal, _ = meter.Int64Counter(
		"c2pa.auth.denied.total",
		metric.WithDescription("Total number of requests rejected by bearer token check"),
		metric.WithUnit("{request}"),
	)

	return m
}
