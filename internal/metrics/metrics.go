// Package metrics exposes Prometheus collectors for the ingest and query
// paths.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	eventsProcessed     *prometheus.CounterVec
	eventsRequeued      prometheus.Counter
	eventsQuarantined   prometheus.Counter
	eventsUnknownType   prometheus.Counter
	conversionFallbacks prometheus.Counter
	queryDuration       prometheus.Histogram
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		eventsProcessed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "txhistory_events_processed_total",
			Help: "Transaction events acknowledged, by event type",
		}, []string{"event_type"}),
		eventsRequeued: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "txhistory_events_requeued_total",
			Help: "Deliveries left unacknowledged for redelivery",
		}),
		eventsQuarantined: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "txhistory_events_quarantined_total",
			Help: "Deliveries dead-lettered after exhausting retries",
		}),
		eventsUnknownType: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "txhistory_events_unknown_type_total",
			Help: "Events dropped because of an unrecognized event type",
		}),
		conversionFallbacks: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "txhistory_conversion_fallbacks_total",
			Help: "Statement lines served with the unconverted original amount because no rate resolved",
		}),
		queryDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "txhistory_query_duration_seconds",
			Help:    "Time taken to build a month statement",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (c *Collector) EventProcessed(eventType string) {
	c.eventsProcessed.WithLabelValues(eventType).Inc()
}

func (c *Collector) EventRequeued()    { c.eventsRequeued.Inc() }
func (c *Collector) EventQuarantined() { c.eventsQuarantined.Inc() }
func (c *Collector) UnknownEventType() { c.eventsUnknownType.Inc() }

func (c *Collector) ConversionFallback() { c.conversionFallbacks.Inc() }

func (c *Collector) ObserveQuery(duration time.Duration) {
	c.queryDuration.Observe(duration.Seconds())
}

// Handler serves the registry for a /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
