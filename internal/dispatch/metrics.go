package dispatch

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// dispatcherMetrics holds Prometheus metrics for the dispatcher.
type dispatcherMetrics struct {
	dispatched       *prometheus.CounterVec
	sideEffectErrors *prometheus.CounterVec
	droppedFrames    *prometheus.CounterVec
}

var (
	dispatcherMetricsOnce   sync.Once
	globalDispatcherMetrics *dispatcherMetrics
)

// getDispatcherMetrics registers the dispatcher metrics exactly once and
// returns them.
func getDispatcherMetrics() *dispatcherMetrics {
	dispatcherMetricsOnce.Do(func() {
		globalDispatcherMetrics = &dispatcherMetrics{
			dispatched: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "notify_dispatched_total",
				Help: "Total number of notifications dispatched by type",
			}, []string{"type"}),
			sideEffectErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "notify_side_effect_failures_total",
				Help: "Total number of side-effect channel failures by channel",
			}, []string{"channel"}),
			droppedFrames: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "notify_dropped_frames_total",
				Help: "Total number of inbound frames dropped by reason",
			}, []string{"reason"}),
		}
	})
	return globalDispatcherMetrics
}
