package coordinator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric collectors for the ceremony coordinator, grounded on the teacher's
// worker/storage/committee/node.go GaugeVec + prometheusOnce.Do idiom: a
// package-level set of collectors registered exactly once regardless of how
// many Coordinator instances a process creates.
var (
	metricRoundHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coordinator_round_height",
		Help: "Current round height.",
	})
	metricQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coordinator_queue_depth",
		Help: "Number of participants waiting in the admission queue, by role.",
	}, []string{"role"})
	metricLockedChunks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coordinator_locked_chunks",
		Help: "Number of chunks currently locked in the active round.",
	})
	metricDropTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coordinator_drop_total",
		Help: "Total number of participants dropped across the coordinator's lifetime.",
	})
	metricBanTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coordinator_ban_total",
		Help: "Total number of participants banned across the coordinator's lifetime.",
	})
	metricChunksVerified = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coordinator_chunks_verified",
		Help: "Number of chunks fully verified in the active round.",
	})

	prometheusOnce sync.Once
)

func registerMetricsOnce() {
	prometheusOnce.Do(func() {
		prometheus.MustRegister(
			metricRoundHeight,
			metricQueueDepth,
			metricLockedChunks,
			metricDropTotal,
			metricBanTotal,
			metricChunksVerified,
		)
	})
}
