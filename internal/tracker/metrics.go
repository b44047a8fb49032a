package tracker

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the tracker-side instrumentation counters.
type Metrics struct {
	MessagesTotal    *prometheus.CounterVec
	AircraftTracked  prometheus.Gauge
	PositionsDecoded prometheus.Counter
	EvictionsTotal   prometheus.Counter
}

// NewMetrics builds and registers the tracker metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "track1090_messages_total",
				Help: "Messages dispatched to the tracker, by class.",
			},
			[]string{"class"},
		),
		AircraftTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "track1090_aircraft_tracked",
			Help: "Aircraft currently tracked.",
		}),
		PositionsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "track1090_positions_decoded_total",
			Help: "Successful global CPR position decodes.",
		}),
		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "track1090_evictions_total",
			Help: "Aircraft evicted after the staleness timeout.",
		}),
	}
	reg.MustRegister(m.MessagesTotal, m.AircraftTracked, m.PositionsDecoded, m.EvictionsTotal)
	return m
}
