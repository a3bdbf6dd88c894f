package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dataset pipeline and the dashboard API.
type Metrics struct {
	FetchDuration  prometheus.Histogram
	RowsParsed     prometheus.Counter
	RowsSkipped    prometheus.Counter
	DatasetRecords prometheus.Gauge

	// DatasetLatestDate is the newest observation date as a unix timestamp,
	// useful for alerting on stale caches.
	DatasetLatestDate prometheus.Gauge
	PipelineReady     prometheus.Gauge

	// API metrics.
	QueryRequests *prometheus.CounterVec // labels: endpoint, status

	// Export metrics.
	RecordsExported prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchDuration,
		m.RowsParsed,
		m.RowsSkipped,
		m.DatasetRecords,
		m.DatasetLatestDate,
		m.PipelineReady,
		m.QueryRequests,
		m.RecordsExported,
		m.GeocodeRequests,
		m.GeocodeCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_dashboard",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the dataset archive download.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_dashboard",
			Name:      "rows_parsed_total",
			Help:      "Total source rows normalized into canonical records.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_dashboard",
			Name:      "rows_skipped_total",
			Help:      "Total source rows dropped by per-row parse failures.",
		}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_dashboard",
			Name:      "dataset_records",
			Help:      "Number of records in the loaded dataset.",
		}),
		DatasetLatestDate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_dashboard",
			Name:      "dataset_latest_date_seconds",
			Help:      "Newest observation date in the dataset as a unix timestamp.",
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_dashboard",
			Name:      "pipeline_ready",
			Help:      "1 once the dataset has been loaded, 0 before.",
		}),
		QueryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_dashboard",
			Name:      "query_requests_total",
			Help:      "Dashboard API requests by endpoint and status.",
		}, []string{"endpoint", "status"}),
		RecordsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_dashboard",
			Name:      "records_exported_total",
			Help:      "Canonical records published to the Kafka export topic.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_dashboard",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_dashboard",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
	}
}
