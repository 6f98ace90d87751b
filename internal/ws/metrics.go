package ws

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// managerMetrics holds Prometheus metrics for the connection manager.
type managerMetrics struct {
	dialAttempts        prometheus.Counter
	reconnectsScheduled prometheus.Counter
}

var (
	managerMetricsOnce   sync.Once
	globalManagerMetrics *managerMetrics
)

func getManagerMetrics() *managerMetrics {
	managerMetricsOnce.Do(func() {
		globalManagerMetrics = &managerMetrics{
			dialAttempts: promauto.NewCounter(prometheus.CounterOpts{
				Name: "notify_connection_dials_total",
				Help: "Total number of push connection dial attempts",
			}),
			reconnectsScheduled: promauto.NewCounter(prometheus.CounterOpts{
				Name: "notify_reconnects_scheduled_total",
				Help: "Total number of reconnect timers scheduled",
			}),
		}
	})
	return globalManagerMetrics
}
