package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "landsat_notification_cycles_total",
			Help: "Total number of completed notification cycles.",
		},
	)

	CycleTicksSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "landsat_notification_cycle_ticks_skipped_total",
			Help: "Scheduler ticks skipped because a prior cycle was still running.",
		},
	)

	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "landsat_notifications_sent_total",
			Help: "Total number of overpass notification emails handed to the mail transport.",
		},
	)

	LocationsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landsat_locations_skipped_total",
			Help: "Locations skipped during a cycle, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal)
	prometheus.MustRegister(CycleTicksSkipped)
	prometheus.MustRegister(NotificationsSent)
	prometheus.MustRegister(LocationsSkipped)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
