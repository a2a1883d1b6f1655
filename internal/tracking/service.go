package tracking

import (
	"context"
	"fmt"
	"time"

	"extsync/internal/adapters"
	"extsync/internal/domain"
	"extsync/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Service performs one package's tracking update: fetch the bundle from
// the provider (through the short-TTL cache unless forced), append new
// history rows and stamp the package's last poll time.
type Service struct {
	provider adapters.TrackingProvider
	packages adapters.PackageRepository
	events   adapters.TrackingEventRepository
	cache    adapters.Cache
	limiter  OutboundLimiter
	cacheTTL time.Duration
	now      func() time.Time
}

func NewService(
	provider adapters.TrackingProvider,
	packages adapters.PackageRepository,
	events adapters.TrackingEventRepository,
	cache adapters.Cache,
	limiter OutboundLimiter,
	cacheTTL time.Duration,
) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		provider: provider,
		packages: packages,
		events:   events,
		cache:    cache,
		limiter:  limiter,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func bundleKey(trackingNumber string) string { return "tracking_" + trackingNumber }

// UpdatePackage runs one update. Provider-class failures (including a
// denied outbound quota) come back as *domain.ProviderError so the caller
// can log and move on; anything else is unexpected and propagates.
func (s *Service) UpdatePackage(ctx context.Context, pkg domain.Package, force bool) error {
	if !pkg.Trackable() {
		logrus.WithField("package", pkg.ID).Warn("skipping package without tracking number")
		return nil
	}
	trackingNumber := *pkg.TrackingNumber
	log := logrus.WithFields(logrus.Fields{
		"package":  pkg.ID,
		"tracking": trackingNumber,
		"provider": s.provider.Identifier(),
	})

	bundle, cacheHit, err := s.fetchBundle(ctx, trackingNumber, force, log)
	if err != nil {
		return err
	}

	// Stamp ownership before persisting; the provider only knows the
	// tracking number.
	for i := range bundle.History {
		bundle.History[i].PackageID = pkg.ID
	}
	for i := range bundle.PostalOrders {
		bundle.PostalOrders[i].PackageID = pkg.ID
	}

	newEvents, err := s.events.AppendEvents(ctx, bundle.History)
	if err != nil {
		return fmt.Errorf("failed to persist tracking events: %w", err)
	}
	newOrders, err := s.events.AppendPostalOrderEvents(ctx, bundle.PostalOrders)
	if err != nil {
		return fmt.Errorf("failed to persist postal order events: %w", err)
	}

	if err = s.packages.MarkTracked(ctx, pkg.ID, s.now()); err != nil {
		return fmt.Errorf("failed to mark package tracked: %w", err)
	}

	metrics.TrackingPolls.WithLabelValues("success").Inc()
	log.WithFields(logrus.Fields{
		"events":     len(bundle.History),
		"new_events": newEvents,
		"orders":     len(bundle.PostalOrders),
		"new_orders": newOrders,
		"cache_hit":  cacheHit,
	}).Info("package tracking updated")
	return nil
}

func (s *Service) fetchBundle(ctx context.Context, trackingNumber string, force bool, log *logrus.Entry) (domain.TrackingBundle, bool, error) {
	key := bundleKey(trackingNumber)

	if !force {
		if v, ok := s.cache.Get(key); ok {
			if bundle, ok := v.(domain.TrackingBundle); ok {
				metrics.TrackingCache.WithLabelValues("hit").Inc()
				return bundle, true, nil
			}
		}
	}
	metrics.TrackingCache.WithLabelValues("miss").Inc()

	if !s.limiter.Allow() {
		metrics.LimiterDropped.Inc()
		log.Warn("tracking provider quota exhausted, skipping")
		return domain.TrackingBundle{}, false, &domain.ProviderError{
			Provider: s.provider.Identifier(),
			Kind:     domain.ProviderRateLimit,
			Err:      fmt.Errorf("outbound quota exhausted"),
		}
	}

	history, err := s.provider.GetTrackingHistory(ctx, trackingNumber)
	if err != nil {
		return domain.TrackingBundle{}, false, err
	}
	orders, err := s.provider.GetPostalOrderEvents(ctx, trackingNumber)
	if err != nil {
		return domain.TrackingBundle{}, false, err
	}

	bundle := domain.TrackingBundle{History: history, PostalOrders: orders}
	s.cache.Set(key, bundle, s.cacheTTL)
	return bundle, false, nil
}
