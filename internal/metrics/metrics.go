// Package metrics exposes Prometheus counters for the publishing loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "channel_publisher"

// Metrics groups every collector on its own registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DeliveriesTotal  *prometheus.CounterVec
	SendFailures     *prometheus.CounterVec
	SendDuration     prometheus.Histogram
	ItemsIngested    *prometheus.CounterVec
	TrendsDetected   *prometheus.CounterVec
	ContentGenerated *prometheus.CounterVec
	CycleFailures    prometheus.Counter
	SourceFailures   *prometheus.CounterVec
}

// New registers all collectors plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Posts delivered to the channel",
		}, []string{"kind"}),
		SendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Channel sends that failed and were released for retry",
		}, []string{"kind"}),
		SendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Duration of channel send calls",
			Buckets:   prometheus.DefBuckets,
		}),
		ItemsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_ingested_total",
			Help:      "Discovered items persisted by ingest",
		}, []string{"category"}),
		TrendsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trends_detected_total",
			Help:      "Trend observations recorded",
		}, []string{"topic"}),
		ContentGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_generated_total",
			Help:      "Scheduled content rows created by the generator",
		}, []string{"kind"}),
		CycleFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_failures_total",
			Help:      "Loop ticks that ended in an error",
		}),
		SourceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Feed source polls that failed",
		}, []string{"source"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDelivery records a successful send.
func (m *Metrics) RecordDelivery(kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(kind).Inc()
	m.SendDuration.Observe(took.Seconds())
}

// RecordSendFailure records a failed send.
func (m *Metrics) RecordSendFailure(kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.SendFailures.WithLabelValues(kind).Inc()
	m.SendDuration.Observe(took.Seconds())
}

// RecordIngested counts an item persisted by ingest.
func (m *Metrics) RecordIngested(category string) {
	if m == nil {
		return
	}
	m.ItemsIngested.WithLabelValues(category).Inc()
}

// RecordTrend counts a recorded trend observation.
func (m *Metrics) RecordTrend(topic string) {
	if m == nil {
		return
	}
	m.TrendsDetected.WithLabelValues(topic).Inc()
}

// RecordGenerated counts editorial content queued by the generator.
func (m *Metrics) RecordGenerated(kind string) {
	if m == nil {
		return
	}
	m.ContentGenerated.WithLabelValues(kind).Inc()
}

// RecordCycleFailure counts a loop tick that returned an error.
func (m *Metrics) RecordCycleFailure() {
	if m == nil {
		return
	}
	m.CycleFailures.Inc()
}

// RecordSourceFailure counts a failed feed source poll.
func (m *Metrics) RecordSourceFailure(source string) {
	if m == nil {
		return
	}
	m.SourceFailures.WithLabelValues(source).Inc()
}
