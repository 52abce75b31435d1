package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Block metrics
	BlocksCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leech_blocks_created_total",
			Help: "Total number of blocks created",
		},
	)

	BlocksTruncated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leech_blocks_truncated_total",
			Help: "Total number of blocks removed by truncation",
		},
	)

	OrphansRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leech_orphans_removed_total",
			Help: "Total number of orphaned block files removed",
		},
	)

	// Patch metrics
	PatchesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leech_patches_created_total",
			Help: "Total number of patches created",
		},
	)

	StateFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leech_state_fallbacks_total",
			Help: "Total number of patches that fell back to a full-state payload",
		},
	)

	BlocksConsolidated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leech_blocks_consolidated",
			Help:    "Number of blocks merged per patch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(BlocksCreated)
	prometheus.MustRegister(BlocksTruncated)
	prometheus.MustRegister(OrphansRemoved)
	prometheus.MustRegister(PatchesCreated)
	prometheus.MustRegister(StateFallbacks)
	prometheus.MustRegister(BlocksConsolidated)
}
