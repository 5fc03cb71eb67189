package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
)

const namespace = "concert"

const (
	ExpiredByTTL        = "ttl"
	ExpiredByCompletion = "completed"

	SweepPromotion = "promotion"
	SweepCleanup   = "cleanup"
)

// Metrics owns its registry so tests and multiple servers never collide on
// the global default registerer.
type Metrics struct {
	registry *prometheus.Registry

	tokensIssued   prometheus.Counter
	tokensPromoted prometheus.Counter
	tokensExpired  *prometheus.CounterVec
	sweepFailures  *prometheus.CounterVec
	lockTimeouts   *prometheus.CounterVec
	lockReleases   *prometheus.CounterVec
	lockWait       *prometheus.HistogramVec
	queueSize      prometheus.Gauge
	activeTokens   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Waiting tokens issued.",
		}),
		tokensPromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_promoted_total",
			Help:      "Tokens moved from the queue into the active set.",
		}),
		tokensExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_expired_total",
			Help:      "Tokens removed from the store, by reason.",
		}, []string{"reason"}),
		sweepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_item_failures_total",
			Help:      "Per-token failures inside background sweeps.",
		}, []string{"sweep"}),
		lockTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_acquisition_timeouts_total",
			Help:      "Lock acquisitions that ran out of wait budget, by key kind.",
		}, []string{"kind"}),
		lockReleases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_release_failures_total",
			Help:      "Lock releases that failed, usually because the hold timeout had already expired.",
		}, []string{"kind"}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent acquiring a lock.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"kind"}),
		queueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_size",
			Help:      "Tokens waiting in the admission queue.",
		}),
		activeTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_tokens",
			Help:      "Tokens currently in the active set.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tokensIssued,
		m.tokensPromoted,
		m.tokensExpired,
		m.sweepFailures,
		m.lockTimeouts,
		m.lockReleases,
		m.lockWait,
		m.queueSize,
		m.activeTokens,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) TokenIssued() {
	m.tokensIssued.Inc()
}

func (m *Metrics) TokensPromoted(n int) {
	m.tokensPromoted.Add(float64(n))
}

func (m *Metrics) TokensExpired(reason string, n int) {
	m.tokensExpired.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) SweepFailures(sweep string, n int) {
	m.sweepFailures.WithLabelValues(sweep).Add(float64(n))
}

func (m *Metrics) SetQueueState(queueSize, activeTokens int64) {
	m.queueSize.Set(float64(queueSize))
	m.activeTokens.Set(float64(activeTokens))
}

// ObserveLockAcquire labels by key kind ("seat", "balance", ...) rather than
// the full key to keep cardinality bounded.
func (m *Metrics) ObserveLockAcquire(key string, waited time.Duration, err error) {
	kind := keyKind(key)
	m.lockWait.WithLabelValues(kind).Observe(waited.Seconds())
	if errs.KindOf(err) == errs.KindLockAcquisitionTimeout {
		m.lockTimeouts.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveLockRelease(key string, err error) {
	if err != nil {
		m.lockReleases.WithLabelValues(keyKind(key)).Inc()
	}
}

func keyKind(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
