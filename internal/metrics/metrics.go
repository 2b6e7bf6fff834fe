package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	DeliveriesSent    prometheus.Counter
	DeliveriesFailed  prometheus.Counter
	DeliveryLatency   prometheus.Histogram
	DispatchBatchSize prometheus.Histogram
	QueueDepth        prometheus.GaugeFunc
	PollsServed       prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct. queueDepth is sampled lazily on each
// scrape. Using a custom registry (instead of prometheus.DefaultRegisterer)
// keeps tests isolated and avoids global state.
func New(reg prometheus.Registerer, queueDepth func() int) *Metrics {
	m := &Metrics{
		DeliveriesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_deliveries_sent_total",
			Help: "Total number of successfully delivered push notifications.",
		}),
		DeliveriesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_deliveries_failed_total",
			Help: "Total number of failed push deliveries (no retry is attempted).",
		}),
		DeliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "push_delivery_seconds",
			Help:    "Latency of one callback POST from send to response.",
			Buckets: prometheus.DefBuckets,
		}),
		DispatchBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_batch_size",
			Help:    "Number of notifications drained per dispatch run.",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		QueueDepth: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "realtime_queue_depth",
			Help: "Current number of notifications waiting in the realtime queue.",
		}, func() float64 { return float64(queueDepth()) }),
		PollsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "polls_served_total",
			Help: "Total number of polling requests answered.",
		}),
	}

	reg.MustRegister(
		m.DeliveriesSent,
		m.DeliveriesFailed,
		m.DeliveryLatency,
		m.DispatchBatchSize,
		m.QueueDepth,
		m.PollsServed,
	)

	return m
}

// DispatchHooks returns the metric callback functions expected by
// dispatch.MetricHooks. Centralises the prometheus observation calls so the
// dispatch package stays metrics-agnostic.
func (m *Metrics) DispatchHooks() (
	onBatch func(size int),
	onSent func(latency time.Duration),
	onFailed func(),
) {
	onBatch = func(size int) {
		m.DispatchBatchSize.Observe(float64(size))
	}
	onSent = func(latency time.Duration) {
		m.DeliveriesSent.Inc()
		m.DeliveryLatency.Observe(latency.Seconds())
	}
	onFailed = func() {
		m.DeliveriesFailed.Inc()
	}
	return
}
