package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pollgov"

// Collector counts poll operations by outcome and relayed outbox events.
// Each Collector owns its registry so tests and processes do not share
// global state.
type Collector struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	outboxPublished prometheus.Counter
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Collector{
		registry: registry,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Poll manager operations by outcome. Outcome is ok or the error kind.",
			}, []string{"operation", "outcome"},
		),
		outboxPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_published_total",
				Help:      "Outbox events published to the event bus.",
			},
		),
	}
}

func (c *Collector) OperationCompleted(operation string, outcome string) {
	c.operations.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) OutboxPublished(count int) {
	if count > 0 {
		c.outboxPublished.Add(float64(count))
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
