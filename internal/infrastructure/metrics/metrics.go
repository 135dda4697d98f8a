package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"checksheet-backend/internal/domain/record"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	persisted   *prometheus.CounterVec
	persistTime *prometheus.HistogramVec
	httpReqs    *prometheus.CounterVec
	httpTime    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checksheet",
			Name:      "record_actions_total",
			Help:      "Save and submit attempts by outcome.",
		}, []string{"action", "status", "outcome"}),
		persistTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "checksheet",
			Name:      "record_action_duration_seconds",
			Help:      "Latency of save and submit including photo uploads.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		httpReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checksheet",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "checksheet",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.Registry.MustRegister(
		m.persisted, m.persistTime, m.httpReqs, m.httpTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Persisted implements checksheet.Observer.
func (m *Metrics) Persisted(action record.Action, status record.Status, err error, elapsed time.Duration) {
	m.persisted.WithLabelValues(string(action), statusLabel(status), outcome(err)).Inc()
	m.persistTime.WithLabelValues(string(action)).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	m.httpReqs.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpTime.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func statusLabel(s record.Status) string {
	if s == record.StatusNone {
		return "none"
	}
	return string(s)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, record.ErrIncomplete), errors.Is(err, record.ErrValidationFailed):
		return "blocked"
	case errors.Is(err, record.ErrNotEditable), errors.Is(err, record.ErrInvalidTransition):
		return "conflict"
	}
	return "error"
}
