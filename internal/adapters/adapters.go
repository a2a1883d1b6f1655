package adapters

import (
	"context"
	"time"

	"extsync/internal/domain"
)

// RateProvider fetches the full set of quotations for one calendar day
// from an external source, already normalized to base-per-1-unit.
type RateProvider interface {
	GetRates(ctx context.Context, date time.Time) ([]domain.ExchangeRate, error)
	Name() string
}

type RateRepository interface {
	// Save upserts on (base, target, date).
	Save(ctx context.Context, rate domain.ExchangeRate) error
	FindByDate(ctx context.Context, date time.Time, base, target string) (*domain.ExchangeRate, error)
	// FindHistorical returns rates with date in [from, to], ascending by date.
	FindHistorical(ctx context.Context, base, target string, from, to time.Time) ([]domain.ExchangeRate, error)
	HasRatesFor(ctx context.Context, base string, date time.Time) (bool, error)
}

// Cache is the injected TTL cache port. Values are stored as-is; callers
// own key naming and type assertions on the way out.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Del(key string)
}

// TrackingProvider wraps the authenticated postal tracking API. Failures
// come back as *domain.ProviderError so callers can branch on kind.
type TrackingProvider interface {
	GetTrackingHistory(ctx context.Context, trackingNumber string) ([]domain.TrackingEvent, error)
	GetPostalOrderEvents(ctx context.Context, trackingNumber string) ([]domain.PostalOrderEvent, error)
	Identifier() string
}

type PackageRepository interface {
	// FindPollable selects packages with a tracking number, a requested
	// status, and a last poll older than the status repoll delay (or never
	// polled), stalest first, at most limit rows.
	FindPollable(ctx context.Context, statuses []domain.PackageStatus, limit int) ([]domain.Package, error)
	MarkTracked(ctx context.Context, packageID int64, at time.Time) error
}

type TrackingEventRepository interface {
	// AppendEvents inserts new rows, silently skipping natural-key
	// duplicates, and returns how many were actually inserted.
	AppendEvents(ctx context.Context, events []domain.TrackingEvent) (int, error)
	AppendPostalOrderEvents(ctx context.Context, events []domain.PostalOrderEvent) (int, error)
}
