package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	MarkerMutations     *prometheus.CounterVec
	MarkersTotal        prometheus.Gauge
	HistoryActions      *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	ImportedMarkers     *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
	APIErrors           prometheus.Counter
	RequestSeconds      *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		MarkerMutations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinboard_marker_mutations_total",
			Help: "Total number of marker store mutations by operation.",
		}, []string{"op"}),
		MarkersTotal: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pinboard_markers",
			Help: "Current number of markers in the store.",
		}),
		HistoryActions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinboard_history_actions_total",
			Help: "Total number of undo/redo requests by action and outcome.",
		}, []string{"action", "applied"}),
		PersistenceFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinboard_persistence_failures_total",
			Help: "Total number of failed persistence operations.",
		}, []string{"op"}),
		ImportedMarkers: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinboard_imported_markers_total",
			Help: "Total number of markers imported by format.",
		}, []string{"format"}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinboard_geocode_cache_lookups_total",
			Help: "Total number of geocode cache lookups by result.",
		}, []string{"result"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pinboard_geocoding_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pinboard_geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "op"}),
	}
}
