// Package metrics holds the Prometheus collectors of the booking engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess   = "success"
	OutcomeConflict  = "conflict"
	OutcomeInvalid   = "invalid"
	OutcomeTransient = "transient"
	OutcomeError     = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	BookingMutations *prometheus.CounterVec
	Conflicts        *prometheus.CounterVec
	LockWait         *prometheus.HistogramVec
	EventsPublished  *prometheus.CounterVec
	KafkaMessages    *prometheus.CounterVec
	KafkaDuration    *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: registry,
		BookingMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "tourdesk",
			Name:        "booking_mutations_total",
			Help:        "Booking create/update/cancel attempts by outcome.",
			ConstLabels: labels,
		}, []string{"operation", "outcome"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "tourdesk",
			Name:        "booking_conflicts_total",
			Help:        "Conflicts reported to callers by type.",
			ConstLabels: labels,
		}, []string{"type"}),
		LockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "tourdesk",
			Name:        "lock_wait_seconds",
			Help:        "Time spent acquiring scheduling locks.",
			ConstLabels: labels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "tourdesk",
			Name:        "events_published_total",
			Help:        "Booking events handed to subscribers by action and outcome.",
			ConstLabels: labels,
		}, []string{"action", "outcome"}),
		KafkaMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "tourdesk",
			Name:        "kafka_messages_total",
			Help:        "Kafka messages produced or consumed by topic and outcome.",
			ConstLabels: labels,
		}, []string{"direction", "topic", "outcome"}),
		KafkaDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "tourdesk",
			Name:        "kafka_message_duration_seconds",
			Help:        "Time spent producing or handling one Kafka message.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"direction"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "tourdesk",
			Name:        "http_requests_total",
			Help:        "HTTP requests by method and status code.",
			ConstLabels: labels,
		}, []string{"method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "tourdesk",
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BookingMutations,
		m.Conflicts,
		m.LockWait,
		m.EventsPublished,
		m.KafkaMessages,
		m.KafkaDuration,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.BookingMutations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordConflict(conflictType string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(conflictType).Inc()
}

func (m *Metrics) ObserveLockWait(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LockWait.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) RecordEvent(action, outcome string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveKafka(direction, topic, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.KafkaMessages.WithLabelValues(direction, topic, outcome).Inc()
	m.KafkaDuration.WithLabelValues(direction).Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(d.Seconds())
}
