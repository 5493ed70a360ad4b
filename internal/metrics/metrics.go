package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics các metric Prometheus của service
type Metrics struct {
	// Parse
	ParseTotal    *prometheus.CounterVec
	ParseDuration *prometheus.HistogramVec
	ParseScore    prometheus.Histogram

	// Cache
	CacheRequestsTotal *prometheus.CounterVec

	// Gazetteer
	GazetteerEntities *prometheus.GaugeVec

	// Batch
	BatchJobsTotal      *prometheus.CounterVec
	BatchItemsProcessed prometheus.Counter
}

// New đăng ký metric vào reg. Dùng prometheus.NewRegistry() trong test.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ParseTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "address_resolver_parse_total",
				Help: "Total addresses parsed by result status",
			},
			[]string{"status"},
		),
		ParseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "address_resolver_parse_duration_seconds",
				Help:    "Address parse latency",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"cached"},
		),
		ParseScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "address_resolver_parse_score",
				Help:    "Score of the best hypothesis for matched addresses",
				Buckets: []float64{25, 50, 100, 150, 200, 300, 400, 500, 750},
			},
		),
		CacheRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "address_resolver_cache_requests_total",
				Help: "Cache lookups by backend and result",
			},
			[]string{"backend", "result"},
		),
		GazetteerEntities: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "address_resolver_gazetteer_entities",
				Help: "Administrative units loaded per level",
			},
			[]string{"level"},
		),
		BatchJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "address_resolver_batch_jobs_total",
				Help: "Batch jobs by final status",
			},
			[]string{"status"},
		),
		BatchItemsProcessed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "address_resolver_batch_items_processed_total",
				Help: "Addresses processed by batch jobs",
			},
		),
	}
}
