// Package metrics provides Prometheus metric collection.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the application metric collector.
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	dbQueriesTotal       *prometheus.CounterVec
	dbQueryDuration      *prometheus.HistogramVec
	cacheHitsTotal       *prometheus.CounterVec
	cacheMissesTotal     *prometheus.CounterVec
	transactionsTotal    *prometheus.CounterVec
	pointsAwardedTotal   prometheus.Counter
	rewardsRedeemedTotal *prometheus.CounterVec
	rewardsExpiredTotal  prometheus.Counter
	notificationsTotal   *prometheus.CounterVec
}

var defaultMetrics *Metrics

// Init creates the metric collector.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fideliza"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		dbQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		dbQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "table"},
		),
		cacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
		transactionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Total number of recorded transactions",
			},
			[]string{"type"},
		),
		pointsAwardedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "points_awarded_total",
				Help:      "Total points and stamps awarded",
			},
		),
		rewardsRedeemedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rewards_redeemed_total",
				Help:      "Total number of redeemed rewards",
			},
			[]string{"program_type"},
		),
		rewardsExpiredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rewards_expired_total",
				Help:      "Total number of expired rewards",
			},
		),
		notificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of WhatsApp notifications",
			},
			[]string{"template", "status"},
		),
	}

	defaultMetrics = m
	return m
}

// GetMetrics returns the default collector.
func GetMetrics() *Metrics {
	if defaultMetrics == nil {
		return Init("")
	}
	return defaultMetrics
}

// Middleware returns the gin middleware recording request metrics.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordDBQuery records a database query.
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.dbQueriesTotal.WithLabelValues(operation, table).Inc()
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	m.cacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	m.cacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordTransaction records a recorded transaction by type.
func (m *Metrics) RecordTransaction(txType string) {
	m.transactionsTotal.WithLabelValues(txType).Inc()
}

// RecordPointsAwarded records awarded points or stamps.
func (m *Metrics) RecordPointsAwarded(points int) {
	m.pointsAwardedTotal.Add(float64(points))
}

// RecordRewardRedeemed records a redeemed reward.
func (m *Metrics) RecordRewardRedeemed(programType string) {
	m.rewardsRedeemedTotal.WithLabelValues(programType).Inc()
}

// RecordRewardsExpired records expired rewards.
func (m *Metrics) RecordRewardsExpired(count int) {
	m.rewardsExpiredTotal.Add(float64(count))
}

// RecordNotification records a WhatsApp notification attempt.
func (m *Metrics) RecordNotification(template, status string) {
	m.notificationsTotal.WithLabelValues(template, status).Inc()
}

// RecordCacheHitGlobal records a cache hit on the default collector.
func RecordCacheHitGlobal(cache string) {
	GetMetrics().RecordCacheHit(cache)
}

// RecordCacheMissGlobal records a cache miss on the default collector.
func RecordCacheMissGlobal(cache string) {
	GetMetrics().RecordCacheMiss(cache)
}
