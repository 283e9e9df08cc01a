package tshare

import "github.com/prometheus/client_golang/prometheus"

type prometheusRegisterer = prometheus.Registerer

// metrics holds the Prometheus collectors one Model updates as activities
// arrive, finish, and (rarely) trigger an overflow reset.
type metrics struct {
	active   prometheus.Gauge
	inserted prometheus.Counter
	popped   prometheus.Counter
	resets   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, name string) *metrics {
	labels := prometheus.Labels{"resource": name}
	m := &metrics{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "desim",
			Subsystem:   "tshare",
			Name:        "active_activities",
			Help:        "Number of activities currently in flight for this shared resource.",
			ConstLabels: labels,
		}),
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "desim",
			Subsystem:   "tshare",
			Name:        "activities_inserted_total",
			Help:        "Total number of activities inserted into this shared resource.",
			ConstLabels: labels,
		}),
		popped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "desim",
			Subsystem:   "tshare",
			Name:        "activities_popped_total",
			Help:        "Total number of activities popped off this shared resource.",
			ConstLabels: labels,
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "desim",
			Subsystem:   "tshare",
			Name:        "overflow_resets_total",
			Help:        "Total number of total-work overflow resets performed.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.active, m.inserted, m.popped, m.resets)
	return m
}
