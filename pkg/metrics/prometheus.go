package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the query service Metrics port on Prometheus.
type Recorder struct {
	queries      *prometheus.CounterVec
	querySecs    *prometheus.HistogramVec
	querySize    *prometheus.HistogramVec
	barsFetched  *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the collectors on the default registerer.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		queries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricequery_queries_total",
				Help: "Total number of served queries",
			},
			[]string{"op"},
		),
		querySecs: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricequery_query_duration_seconds",
				Help:    "Duration of served queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"op"},
		),
		querySize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricequery_query_securities",
				Help:    "Number of securities per query",
				Buckets: []float64{1, 2, 5, 10, 50, 100, 500},
			},
			[]string{"op"},
		),
		barsFetched: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricequery_bars_fetched_total",
				Help: "Raw bars read from the bar store",
			},
			[]string{"unit"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricequery_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		refreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricequery_refreshes_total",
				Help: "Reference data refreshes applied",
			},
			[]string{"kind"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricequery_cache_lookups_total",
				Help: "Cache lookups by cache and outcome",
			},
			[]string{"cache", "hit"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricequery_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordQuery counts one query over codes securities.
func (r *Recorder) RecordQuery(op string, codes int, seconds float64) {
	r.queries.WithLabelValues(op).Inc()
	r.querySecs.WithLabelValues(op).Observe(seconds)
	r.querySize.WithLabelValues(op).Observe(float64(codes))
}

func (r *Recorder) RecordBarsFetched(unit string, n int) {
	r.barsFetched.WithLabelValues(unit).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordRefresh(kind string) {
	r.refreshes.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordCache(name string, hit bool) {
	r.cacheLookups.WithLabelValues(name, strconv.FormatBool(hit)).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
