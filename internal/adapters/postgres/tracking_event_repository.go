package postgres

import (
	"context"
	"fmt"

	"extsync/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TrackingEventRepository struct {
	pool *pgxpool.Pool
}

func NewTrackingEventRepository(pool *pgxpool.Pool) *TrackingEventRepository {
	return &TrackingEventRepository{pool: pool}
}

// AppendEvents inserts history rows, skipping rows whose natural key
// (package, operation date, operation type, barcode) already exists.
// Returns the number of rows actually inserted.
func (r *TrackingEventRepository) AppendEvents(ctx context.Context, events []domain.TrackingEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	const q = `
		insert into tracking_events (
			package_id, operation_date, operation_type_id, operation_type,
			operation_attr_id, operation_attr, index_from, index_to, address_to,
			country_from, country_to, item_barcode, mass_grams,
			payment_minor, declared_val_minor
		)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		on conflict (package_id, operation_date, operation_type_id, item_barcode) do nothing;
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for _, e := range events {
		tag, execErr := tx.Exec(ctx, q,
			e.PackageID, e.OperationDate, e.OperationTypeID, e.OperationType,
			e.OperationAttrID, e.OperationAttr, e.IndexFrom, e.IndexTo, e.AddressTo,
			e.CountryFrom, e.CountryTo, e.ItemBarcode, e.MassGrams,
			e.PaymentMinor, e.DeclaredValMinor,
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert tracking event for package %d: %w", e.PackageID, execErr)
		}
		inserted += int(tag.RowsAffected())
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit tracking events: %w", err)
	}
	return inserted, nil
}

// AppendPostalOrderEvents behaves like AppendEvents for cash-on-delivery
// events, deduplicated by (number, event time, event type).
func (r *TrackingEventRepository) AppendPostalOrderEvents(ctx context.Context, events []domain.PostalOrderEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	const q = `
		insert into postal_order_events (
			package_id, number, event_date_time, event_type_id, event_name,
			index_to, index_event, sum_payment_forward, country_from_id, country_to_id
		)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		on conflict (number, event_date_time, event_type_id) do nothing;
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for _, e := range events {
		tag, execErr := tx.Exec(ctx, q,
			e.PackageID, e.Number, e.EventDateTime, e.EventTypeID, e.EventName,
			e.IndexTo, e.IndexEvent, e.SumPaymentForward, e.CountryFromID, e.CountryToID,
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert postal order event %q: %w", e.Number, execErr)
		}
		inserted += int(tag.RowsAffected())
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit postal order events: %w", err)
	}
	return inserted, nil
}
