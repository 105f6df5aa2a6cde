package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ratingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_ratings_submitted_total",
			Help: "Ratings accepted, by whether they were first ratings or replacements",
		},
		[]string{"kind"},
	)

	reviewsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_reviews_submitted_total",
			Help: "Review texts accepted, by whether they replaced an earlier text",
		},
		[]string{"kind"},
	)

	cascadeDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cascade_deletions_total",
			Help: "Completed cascade deletions by target",
		},
		[]string{"target"},
	)

	cascadeCleanupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cascade_cleanup_failures_total",
			Help: "Best-effort cascade steps that failed and were skipped",
		},
		[]string{"step"},
	)

	policyRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_policy_rejections_total",
			Help: "Operations refused by a storefront policy",
		},
		[]string{"policy"},
	)

	itemCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_item_cache_requests_total",
			Help: "Item cache lookups by result",
		},
		[]string{"result"},
	)
)
