package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the dispatch and scheduling flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	notificationsSentTotal    *prometheus.CounterVec
	notificationsFailedTotal  *prometheus.CounterVec
	sendDuration              *prometheus.HistogramVec
	dispatchInFlight          prometheus.Gauge
	subscriptionsDeactivated  prometheus.Counter
	tasksScheduledTotal       *prometheus.CounterVec
	tasksSkippedTotal         *prometheus.CounterVec
	cohortParseFailures       prometheus.Counter
	preferenceDefaultsApplied prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bleepy_notify",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bleepy_notify",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		notificationsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bleepy_notify",
				Name:      "notifications_sent_total",
				Help:      "Delivery attempts that the push service accepted, by notification type.",
			},
			[]string{"type"},
		),
		notificationsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bleepy_notify",
				Name:      "notifications_failed_total",
				Help:      "Failed delivery attempts by notification type and failure class.",
			},
			[]string{"type", "class"},
		),
		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bleepy_notify",
				Name:      "send_duration_seconds",
				Help:      "Push transport send duration in seconds by notification type.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"type"},
		),
		dispatchInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "bleepy_notify",
				Name:      "dispatch_inflight",
				Help:      "Current number of in-flight push deliveries.",
			},
		),
		subscriptionsDeactivated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "bleepy_notify",
				Name:      "subscriptions_deactivated_total",
				Help:      "Subscriptions deactivated after the push service reported them gone.",
			},
		),
		tasksScheduledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bleepy_notify",
				Name:      "tasks_scheduled_total",
				Help:      "Scheduled tasks created, by task type.",
			},
			[]string{"task_type"},
		),
		tasksSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bleepy_notify",
				Name:      "tasks_skipped_total",
				Help:      "Task creations skipped, by task type and reason.",
			},
			[]string{"task_type", "reason"},
		),
		cohortParseFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "bleepy_notify",
				Name:      "cohort_parse_failures_total",
				Help:      "Cohort identifiers that failed to parse and resolved to an empty audience.",
			},
		),
		preferenceDefaultsApplied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "bleepy_notify",
				Name:      "preference_defaults_applied_total",
				Help:      "Subscriptions evaluated under the fail-open default because no preference row existed.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.notificationsSentTotal,
		m.notificationsFailedTotal,
		m.sendDuration,
		m.dispatchInFlight,
		m.subscriptionsDeactivated,
		m.tasksScheduledTotal,
		m.tasksSkippedTotal,
		m.cohortParseFailures,
		m.preferenceDefaultsApplied,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncNotificationSent(notificationType string) {
	if m == nil {
		return
	}
	m.notificationsSentTotal.WithLabelValues(normalizeLabel(notificationType)).Inc()
}

func (m *Metrics) IncNotificationFailed(notificationType, class string) {
	if m == nil {
		return
	}
	classLabel := strings.TrimSpace(strings.ToLower(class))
	if classLabel == "" {
		classLabel = "unknown"
	}
	m.notificationsFailedTotal.WithLabelValues(normalizeLabel(notificationType), classLabel).Inc()
}

func (m *Metrics) ObserveSendDuration(notificationType string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.WithLabelValues(normalizeLabel(notificationType)).Observe(seconds)
}

func (m *Metrics) IncDispatchInFlight() {
	if m == nil {
		return
	}
	m.dispatchInFlight.Inc()
}

func (m *Metrics) DecDispatchInFlight() {
	if m == nil {
		return
	}
	m.dispatchInFlight.Dec()
}

func (m *Metrics) IncSubscriptionDeactivated() {
	if m == nil {
		return
	}
	m.subscriptionsDeactivated.Inc()
}

func (m *Metrics) IncTaskScheduled(taskType string) {
	if m == nil {
		return
	}
	m.tasksScheduledTotal.WithLabelValues(normalizeLabel(taskType)).Inc()
}

func (m *Metrics) IncTaskSkipped(taskType, reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.tasksSkippedTotal.WithLabelValues(normalizeLabel(taskType), reasonLabel).Inc()
}

func (m *Metrics) IncCohortParseFailure() {
	if m == nil {
		return
	}
	m.cohortParseFailures.Inc()
}

func (m *Metrics) IncPreferenceDefaultApplied() {
	if m == nil {
		return
	}
	m.preferenceDefaultsApplied.Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
