// Package metrics exposes Prometheus instrumentation for the position
// service: counters per ledger operation and a latency histogram.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the position service.
type Metrics struct {
	TradesRegistered prometheus.Counter
	TradesAmended    prometheus.Counter
	TradesCancelled  prometheus.Counter
	PositionReads    prometheus.Counter
	OpDuration       *prometheus.HistogramVec // labels: op
	EventsConsumed   *prometheus.CounterVec   // labels: event_type
	EventsDropped    prometheus.Counter
}

// New registers and returns all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TradesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posledger_trades_registered_total",
			Help: "Total trades registered",
		}),
		TradesAmended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posledger_trades_amended_total",
			Help: "Total trade amendments applied",
		}),
		TradesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posledger_trades_cancelled_total",
			Help: "Total trades cancelled",
		}),
		PositionReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posledger_position_reads_total",
			Help: "Total position lookups served",
		}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "posledger_op_duration_seconds",
			Help:    "Ledger operation latency",
			Buckets: prometheus.ExponentialBuckets(1e-7, 10, 8),
		}, []string{"op"}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posledger_events_consumed_total",
			Help: "Trade events consumed from Kafka",
		}, []string{"event_type"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posledger_events_dropped_total",
			Help: "Trade events dropped as malformed or unknown",
		}),
	}

	reg.MustRegister(
		m.TradesRegistered,
		m.TradesAmended,
		m.TradesCancelled,
		m.PositionReads,
		m.OpDuration,
		m.EventsConsumed,
		m.EventsDropped,
	)
	return m
}
