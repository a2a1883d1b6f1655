package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extsync_provider_requests_total",
		Help: "Outbound provider requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	ProviderRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extsync_provider_retries_total",
		Help: "Retried provider requests by provider.",
	}, []string{"provider"})

	RatesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extsync_rates_saved_total",
		Help: "Exchange rates upserted.",
	})

	TrackingPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extsync_tracking_polls_total",
		Help: "Per-package tracking updates by outcome.",
	}, []string{"outcome"})

	TrackingCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extsync_tracking_cache_total",
		Help: "Tracking bundle cache lookups by result.",
	}, []string{"result"})

	LimiterDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extsync_tracking_limiter_dropped_total",
		Help: "Tracking updates skipped because the outbound quota was exhausted.",
	})
)
