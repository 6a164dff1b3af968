package gateway

import (
	"github.com/prometheus/client_golang/prometheus"

	prom "github.com/omnigate/omnigate/internal/pkg/prometheus"
)

var (
	metricMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "omnigate_messages_total",
		Help: "Messages processed, labeled by channel type and direction.",
	}, []string{"channel", "direction"})

	metricBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "omnigate_blocked_total",
		Help: "Messages dropped by admission control or rate limiting.",
	}, []string{"channel", "reason"})

	metricSendErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "omnigate_send_errors_total",
		Help: "Failed outbound sends by channel type.",
	}, []string{"channel"})

	metricConnected = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "omnigate_connected_instances",
		Help: "Connection state per channel instance (1 connected, 0 not).",
	}, []string{"channel", "instance"})

	metricSweeps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "omnigate_maintenance_sweeps_total",
		Help: "Completed maintenance passes (limiter sweep + rule reload).",
	})

	metricSweptWindows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "omnigate_swept_windows_total",
		Help: "Rate limiter windows removed by maintenance sweeps.",
	})
)

func init() {
	prom.GetRegistry().MustRegister(
		metricMessages,
		metricBlocked,
		metricSendErrors,
		metricConnected,
		metricSweeps,
		metricSweptWindows,
	)
}
