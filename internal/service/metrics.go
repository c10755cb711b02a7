package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reviewsClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_reviews_classified_total",
			Help: "Review texts classified on create or edit, by sentiment label",
		},
		[]string{"label"},
	)

	helpfulVotesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_review_helpful_votes_total",
			Help: "Helpful votes recorded on reviews",
		},
	)

	ordersPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders placed",
		},
	)
)
