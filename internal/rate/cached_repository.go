package rate

import (
	"context"
	"time"

	"extsync/internal/adapters"
	"extsync/internal/domain"
)

// CachedRateRepository is a read-through decorator over a RateRepository.
// Point lookups are cached under "base_target_date" with pointTTL; range
// lookups under "base_target_from_to" with their own (longer) rangeTTL.
// Save invalidates only the exact point key — range entries are left to
// expire passively, which is an accepted staleness window. Misses are
// never cached.
type CachedRateRepository struct {
	next     adapters.RateRepository
	cache    adapters.Cache
	pointTTL time.Duration
	rangeTTL time.Duration
}

func NewCachedRateRepository(next adapters.RateRepository, cache adapters.Cache, pointTTL, rangeTTL time.Duration) *CachedRateRepository {
	if pointTTL <= 0 {
		pointTTL = time.Hour
	}
	if rangeTTL <= 0 {
		rangeTTL = 30 * pointTTL
	}
	return &CachedRateRepository{next: next, cache: cache, pointTTL: pointTTL, rangeTTL: rangeTTL}
}

func pointKey(base, target string, date time.Time) string {
	return base + "_" + target + "_" + date.Format("2006-01-02")
}

func rangeKey(base, target string, from, to time.Time) string {
	return base + "_" + target + "_" + from.Format("2006-01-02") + "_" + to.Format("2006-01-02")
}

func (r *CachedRateRepository) Save(ctx context.Context, rate domain.ExchangeRate) error {
	if err := r.next.Save(ctx, rate); err != nil {
		return err
	}
	r.cache.Del(pointKey(rate.Base, rate.Target, domain.Day(rate.Date)))
	return nil
}

func (r *CachedRateRepository) FindByDate(ctx context.Context, date time.Time, base, target string) (*domain.ExchangeRate, error) {
	key := pointKey(base, target, domain.Day(date))
	if v, ok := r.cache.Get(key); ok {
		if cached, ok := v.(domain.ExchangeRate); ok {
			return &cached, nil
		}
	}

	rate, err := r.next.FindByDate(ctx, date, base, target)
	if err != nil || rate == nil {
		return rate, err
	}
	r.cache.Set(key, *rate, r.pointTTL)
	return rate, nil
}

func (r *CachedRateRepository) FindHistorical(ctx context.Context, base, target string, from, to time.Time) ([]domain.ExchangeRate, error) {
	key := rangeKey(base, target, domain.Day(from), domain.Day(to))
	if v, ok := r.cache.Get(key); ok {
		if cached, ok := v.([]domain.ExchangeRate); ok {
			return cached, nil
		}
	}

	rates, err := r.next.FindHistorical(ctx, base, target, from, to)
	if err != nil {
		return nil, err
	}
	if len(rates) > 0 {
		r.cache.Set(key, rates, r.rangeTTL)
	}
	return rates, nil
}

func (r *CachedRateRepository) HasRatesFor(ctx context.Context, base string, date time.Time) (bool, error) {
	return r.next.HasRatesFor(ctx, base, date)
}
