package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	DraftMutationsTotal       metric.Int64Counter
	SelectionsTotal           metric.Int64Counter
	SubmissionsTotal          metric.Int64Counter
	CandidateCacheTotal       metric.Int64Counter
	GeolocationFallbacksTotal metric.Int64Counter
	RemoteRequestDuration     metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments from the global MeterProvider. It
// runs once; call it after the provider is installed.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("RoteiroPlanner")
		var err error
		m := &AppMetrics{}

		m.DraftMutationsTotal, err = meter.Int64Counter(
			"draft_mutations_total",
			metric.WithDescription("Draft load-mutate-save cycles by operation"),
			metric.WithUnit("{mutation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create draft_mutations_total: %v", err)
		}

		m.SelectionsTotal, err = meter.Int64Counter(
			"place_selections_total",
			metric.WithDescription("Completed place selections by outcome"),
			metric.WithUnit("{selection}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_selections_total: %v", err)
		}

		m.SubmissionsTotal, err = meter.Int64Counter(
			"itinerary_submissions_total",
			metric.WithDescription("Itinerary submissions by result"),
			metric.WithUnit("{submission}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_submissions_total: %v", err)
		}

		m.CandidateCacheTotal, err = meter.Int64Counter(
			"candidate_cache_lookups_total",
			metric.WithDescription("Candidate place cache lookups by result"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create candidate_cache_lookups_total: %v", err)
		}

		m.GeolocationFallbacksTotal, err = meter.Int64Counter(
			"geolocation_fallbacks_total",
			metric.WithDescription("Screen loads without a usable user position, by reason"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geolocation_fallbacks_total: %v", err)
		}

		m.RemoteRequestDuration, err = meter.Float64Histogram(
			"roteiro_api_request_duration_seconds",
			metric.WithDescription("Duration of calls to the remote roteiro API"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create roteiro_api_request_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the instruments, creating them against the current global
// provider (a no-op one in tests) if InitAppMetrics was not called yet.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
