package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"leetfresh/internal/structures"
	"time"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncSyncRuns(trigger, outcome string)
	IncProbes(result string)
	ObserveRefreshDuration(duration time.Duration)
	IncRemoteCalls(operation, outcome string)
	SetBandProblems(band string, count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	syncRuns            *prometheus.CounterVec
	probes              *prometheus.CounterVec
	refreshDuration     prometheus.Histogram
	remoteCalls         *prometheus.CounterVec
	bandProblems        *prometheus.GaugeVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncSyncRuns(trigger, outcome string) {
	m.syncRuns.WithLabelValues(trigger, outcome).Inc()
}

func (m *MetricsProvider) IncProbes(result string) {
	m.probes.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) ObserveRefreshDuration(duration time.Duration) {
	m.refreshDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncRemoteCalls(operation, outcome string) {
	m.remoteCalls.WithLabelValues(operation, outcome).Inc()
}

func (m *MetricsProvider) SetBandProblems(band string, count int) {
	m.bandProblems.WithLabelValues(band).Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "leetfresh_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leetfresh_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leetfresh_cache_hits_total",
			Help: "Total number of response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leetfresh_cache_misses_total",
			Help: "Total number of response cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "leetfresh_persistence_duration_seconds",
			Help:    "Duration of snapshot store operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		syncRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "leetfresh_sync_runs_total",
			Help: "Sync orchestrator runs by trigger and outcome",
		}, []string{"trigger", "outcome"}),

		probes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "leetfresh_staleness_probes_total",
			Help: "Staleness probes by result",
		}, []string{"result"}),

		refreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "leetfresh_refresh_duration_seconds",
			Help:    "Duration of full refreshes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		remoteCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "leetfresh_remote_calls_total",
			Help: "Calls to the LeetCode backend by operation and outcome",
		}, []string{"operation", "outcome"}),

		bandProblems: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leetfresh_band_problems",
			Help: "Solved problems per freshness band",
		}, []string{"band"}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncSyncRuns(_, _ string)                          {}
func (n *noopMetrics) IncProbes(_ string)                               {}
func (n *noopMetrics) ObserveRefreshDuration(_ time.Duration)           {}
func (n *noopMetrics) IncRemoteCalls(_, _ string)                       {}
func (n *noopMetrics) SetBandProblems(_ string, _ int)                  {}
