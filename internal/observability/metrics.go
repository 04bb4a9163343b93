package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	notesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "noted",
			Subsystem: "notes",
			Name:      "created_total",
			Help:      "Total notes created.",
		},
	)
	notesEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "noted",
			Subsystem: "notes",
			Name:      "evicted_total",
			Help:      "Total notes removed by TTL eviction.",
		},
	)
	sessionsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "noted",
			Subsystem: "sessions",
			Name:      "opened_total",
			Help:      "Total client sessions accepted.",
		},
	)
	sessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noted",
			Subsystem: "sessions",
			Name:      "closed_total",
			Help:      "Total client sessions ended, by cause.",
		},
		[]string{"cause"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "noted",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Currently live client sessions.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noted",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "noted",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			notesCreated,
			notesEvicted,
			sessionsOpened,
			sessionsClosed,
			activeSessions,
			httpRequests,
			httpDuration,
		)
	})
}

func RecordNoteCreated() {
	RegisterMetrics()
	notesCreated.Inc()
}

func RecordNoteEvicted() {
	RegisterMetrics()
	notesEvicted.Inc()
}

func RecordSessionOpened() {
	RegisterMetrics()
	sessionsOpened.Inc()
	activeSessions.Inc()
}

func RecordSessionClosed(cause string) {
	RegisterMetrics()
	sessionsClosed.WithLabelValues(cause).Inc()
	activeSessions.Dec()
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
