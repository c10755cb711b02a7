package rating

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recomputeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_rating_recompute_total",
			Help: "Product rating recomputes by outcome",
		},
		[]string{"outcome"},
	)

	recomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_rating_recompute_duration_seconds",
			Help:    "Duration of product rating recomputes, including lock wait",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func observeRecompute(start time.Time, err error) {
	recomputeDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	recomputeTotal.WithLabelValues(outcome).Inc()
}
