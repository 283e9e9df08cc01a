package desim

import "github.com/prometheus/client_golang/prometheus"

// prometheusRegisterer is a local alias for prometheus.Registerer so that
// kernel.go's public Option signature doesn't force every caller of New
// to import the prometheus package just to read WithMetrics' type.
type prometheusRegisterer = prometheus.Registerer

// kernelMetrics holds the Prometheus collectors the kernel updates as it
// runs: events emitted, processed, unhandled-dropped, and cancelled.
type kernelMetrics struct {
	emitted   prometheus.Counter
	processed prometheus.Counter
	unhandled prometheus.Counter
	cancelled prometheus.Counter
}

func newKernelMetrics(reg prometheus.Registerer) *kernelMetrics {
	m := &kernelMetrics{
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "desim",
			Subsystem: "kernel",
			Name:      "events_emitted_total",
			Help:      "Total number of events scheduled via Emit or EmitOrdered.",
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "desim",
			Subsystem: "kernel",
			Name:      "events_processed_total",
			Help:      "Total number of events delivered to a component handler.",
		}),
		unhandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "desim",
			Subsystem: "kernel",
			Name:      "events_unhandled_total",
			Help:      "Total number of events popped with no handler attached to their destination.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "desim",
			Subsystem: "kernel",
			Name:      "events_cancelled_total",
			Help:      "Total number of cancelled events discarded from the pending queue.",
		}),
	}
	reg.MustRegister(m.emitted, m.processed, m.unhandled, m.cancelled)
	return m
}
