package postgres

import (
	"context"
	"fmt"
	"time"

	"extsync/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PackageRepository struct {
	pool *pgxpool.Pool
}

func NewPackageRepository(pool *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{pool: pool}
}

// FindPollable selects packages eligible for a tracking poll: tracking
// number present, status in the requested set, and last poll either absent
// or older than the status repoll delay. Only the "too fresh" zone
// excludes; arbitrarily stale packages stay eligible. Stalest first so a
// tight limit drains the backlog.
func (r *PackageRepository) FindPollable(ctx context.Context, statuses []domain.PackageStatus, limit int) ([]domain.Package, error) {
	if len(statuses) == 0 || limit <= 0 {
		return nil, nil
	}

	const q = `
		select id, tracking_number, status, last_tracking_update
		from packages
		where tracking_number is not null
		  and status = any($1)
		  and (
		    last_tracking_update is null
		    or last_tracking_update <= now() - make_interval(secs =>
		         case status
		           when 'SENT'     then $2::float8
		           when 'RECEIVED' then $3::float8
		           else                 $4::float8
		         end)
		  )
		order by last_tracking_update asc nulls first
		limit $5;
	`

	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}

	rows, err := r.pool.Query(ctx, q, names,
		domain.RepollDelay(domain.StatusSent).Seconds(),
		domain.RepollDelay(domain.StatusReceived).Seconds(),
		domain.RepollDelay("").Seconds(),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pollable packages: %w", err)
	}
	defer rows.Close()

	pkgs := make([]domain.Package, 0, limit)
	for rows.Next() {
		var p domain.Package
		if err = rows.Scan(&p.ID, &p.TrackingNumber, &p.Status, &p.LastTrackingUpdate); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		pkgs = append(pkgs, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pollable packages: %w", err)
	}
	return pkgs, nil
}

func (r *PackageRepository) MarkTracked(ctx context.Context, packageID int64, at time.Time) error {
	const q = `update packages set last_tracking_update = $2 where id = $1;`
	if _, err := r.pool.Exec(ctx, q, packageID, at); err != nil {
		return fmt.Errorf("failed to mark package %d tracked: %w", packageID, err)
	}
	return nil
}
