package rate

import (
	"context"
	"time"

	"extsync/internal/adapters"
	"extsync/internal/domain"
	"extsync/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Service owns the rate pipeline: fetching a day of quotations from the
// provider, conversions and historical lookups.
type Service struct {
	provider adapters.RateProvider
	repo     adapters.RateRepository
	base     string
}

func NewService(provider adapters.RateProvider, repo adapters.RateRepository, baseCurrency string) *Service {
	return &Service{provider: provider, repo: repo, base: baseCurrency}
}

func (s *Service) BaseCurrency() string { return s.base }

// UpdateRates fetches all quotations for date and upserts them one by one.
// The loop is not transactional: a mid-loop failure leaves earlier
// currencies saved, and re-running the same date is a safe upsert replay.
// Returns how many rates were saved.
func (s *Service) UpdateRates(ctx context.Context, date time.Time) (int, error) {
	day := domain.Day(date)
	log := logrus.WithFields(logrus.Fields{
		"provider": s.provider.Name(),
		"date":     day.Format("2006-01-02"),
	})
	log.Info("rate update started")

	rates, err := s.provider.GetRates(ctx, day)
	if err != nil {
		log.WithError(err).Error("rate update failed to fetch")
		return 0, &domain.RateUpdateError{Date: day, Err: err}
	}

	saved := 0
	for _, r := range rates {
		if err := s.repo.Save(ctx, r); err != nil {
			log.WithError(err).WithField("saved", saved).Error("rate update failed mid-save")
			return saved, &domain.RateUpdateError{Date: day, Err: err}
		}
		saved++
		metrics.RatesSaved.Inc()
	}

	log.WithField("saved", saved).Info("rate update finished")
	return saved, nil
}

// Convert converts amount between two currencies using the stored rates
// for date. All cross conversions go through the base currency. The second
// return value is the effective multiplier applied to amount.
func (s *Service) Convert(ctx context.Context, amount float64, from, to string, date time.Time) (float64, float64, error) {
	if from == to {
		return amount, 1, nil
	}

	switch {
	case from == s.base:
		rate, err := s.rateFor(ctx, to, date)
		if err != nil {
			return 0, 0, err
		}
		return amount * rate, rate, nil
	case to == s.base:
		rate, err := s.rateFor(ctx, from, date)
		if err != nil {
			return 0, 0, err
		}
		return amount / rate, 1 / rate, nil
	default:
		fromRate, err := s.rateFor(ctx, from, date)
		if err != nil {
			return 0, 0, err
		}
		toRate, err := s.rateFor(ctx, to, date)
		if err != nil {
			return 0, 0, err
		}
		eff := toRate / fromRate
		return amount / fromRate * toRate, eff, nil
	}
}

// HistoricalRates returns stored rates with date in [from, to], ascending.
// No rows is an empty slice, not an error.
func (s *Service) HistoricalRates(ctx context.Context, base, target string, from, to time.Time) ([]domain.ExchangeRate, error) {
	return s.repo.FindHistorical(ctx, base, target, from, to)
}

// rateFor looks up base→target for the exact day; there is no fallback to
// adjacent dates.
func (s *Service) rateFor(ctx context.Context, target string, date time.Time) (float64, error) {
	rate, err := s.repo.FindByDate(ctx, date, s.base, target)
	if err != nil {
		return 0, err
	}
	if rate == nil {
		return 0, &domain.RateNotFoundError{Base: s.base, Target: target, Date: domain.Day(date)}
	}
	return rate.Rate, nil
}
