package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rs_ws_connections",
		Help: "Current number of registered realtime connections",
	})
	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rs_realtime_events_total",
		Help: "Total number of realtime events queued to connections",
	}, []string{"event"})
	droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rs_realtime_dropped_total",
		Help: "Total number of realtime frames dropped on full or closed connections",
	})
	inboundLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rs_ws_inbound_limited_total",
		Help: "Total number of inbound frames discarded by the per-connection rate limit",
	})
)

func init() {
	prometheus.MustRegister(wsConnections, eventsTotal, droppedTotal, inboundLimitedTotal)
}
