package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"extsync/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RateRepository struct {
	pool *pgxpool.Pool
}

func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

func (r *RateRepository) Save(ctx context.Context, rate domain.ExchangeRate) error {
	const q = `
		insert into exchange_rates (base, target, rate, rate_date, updated_at)
		values ($1, $2, $3, $4, now())
		on conflict (base, target, rate_date)
		do update set rate = excluded.rate, updated_at = now();
	`
	if _, err := r.pool.Exec(ctx, q, rate.Base, rate.Target, rate.Rate, domain.Day(rate.Date)); err != nil {
		return fmt.Errorf("failed to save rate %s/%s for %s: %w",
			rate.Base, rate.Target, rate.Date.Format("2006-01-02"), err)
	}
	return nil
}

func (r *RateRepository) FindByDate(ctx context.Context, date time.Time, base, target string) (*domain.ExchangeRate, error) {
	const q = `
		select base, target, rate, rate_date
		from exchange_rates
		where base = $1 and target = $2 and rate_date = $3;
	`
	var rate domain.ExchangeRate
	err := r.pool.QueryRow(ctx, q, base, target, domain.Day(date)).Scan(
		&rate.Base, &rate.Target, &rate.Rate, &rate.Date,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select rate %s/%s: %w", base, target, err)
	}
	return &rate, nil
}

func (r *RateRepository) FindHistorical(ctx context.Context, base, target string, from, to time.Time) ([]domain.ExchangeRate, error) {
	const q = `
		select base, target, rate, rate_date
		from exchange_rates
		where base = $1 and target = $2 and rate_date between $3 and $4
		order by rate_date asc;
	`
	rows, err := r.pool.Query(ctx, q, base, target, domain.Day(from), domain.Day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query historical rates %s/%s: %w", base, target, err)
	}
	defer rows.Close()

	rates := make([]domain.ExchangeRate, 0, 32)
	for rows.Next() {
		var rate domain.ExchangeRate
		if err = rows.Scan(&rate.Base, &rate.Target, &rate.Rate, &rate.Date); err != nil {
			return nil, fmt.Errorf("failed to scan historical rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating historical rates: %w", err)
	}
	return rates, nil
}

func (r *RateRepository) HasRatesFor(ctx context.Context, base string, date time.Time) (bool, error) {
	const q = `select exists (select 1 from exchange_rates where base = $1 and rate_date = $2);`
	var found bool
	if err := r.pool.QueryRow(ctx, q, base, domain.Day(date)).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check rates for %s: %w", date.Format("2006-01-02"), err)
	}
	return found, nil
}
