package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/telemetry"
)

// BucketRow is one archived bucket as stored in power_buckets.
type BucketRow struct {
	OwnerID     string    `db:"owner_id"`
	Granularity string    `db:"granularity"`
	BucketDate  time.Time `db:"bucket_date"`
	domain.ChartRow
}

// Buckets archives aggregated chart rows in Postgres.
type Buckets struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Buckets { return &Buckets{db: db} }

const upsertBucket = `
INSERT INTO power_buckets (owner_id, granularity, bucket_key, bucket_date, current_a, current_b, current_c,
	voltage_ab, voltage_bc, voltage_ca, real_power_total, power_factor, updated_at)
VALUES (:owner_id, :granularity, :bucket_key, :bucket_date, :current_a, :current_b, :current_c,
	:voltage_ab, :voltage_bc, :voltage_ca, :real_power_total, :power_factor, now())
ON CONFLICT (owner_id, granularity, bucket_key) DO UPDATE SET
	current_a = EXCLUDED.current_a,
	current_b = EXCLUDED.current_b,
	current_c = EXCLUDED.current_c,
	voltage_ab = EXCLUDED.voltage_ab,
	voltage_bc = EXCLUDED.voltage_bc,
	voltage_ca = EXCLUDED.voltage_ca,
	real_power_total = EXCLUDED.real_power_total,
	power_factor = EXCLUDED.power_factor,
	updated_at = now()`

// SaveBuckets upserts rows in one transaction; re-archiving a bucket
// replaces its values.
func (r *Buckets) SaveBuckets(ctx context.Context, owner string, g telemetry.Granularity, rows []domain.ChartRow) error {
	recs, err := ToBucketRows(owner, g, rows)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, rec := range recs {
		if _, err := tx.NamedExecContext(ctx, upsertBucket, rec); err != nil {
			return fmt.Errorf("upsert bucket %s: %w", rec.Timestamp, err)
		}
	}
	return tx.Commit()
}

func (r *Buckets) ListBuckets(ctx context.Context, owner string, g telemetry.Granularity) ([]domain.ChartRow, error) {
	var recs []BucketRow
	err := r.db.SelectContext(ctx, &recs, `
		SELECT owner_id, granularity, bucket_key, bucket_date, current_a, current_b, current_c,
			voltage_ab, voltage_bc, voltage_ca, real_power_total, power_factor
		FROM power_buckets
		WHERE owner_id = $1 AND granularity = $2
		ORDER BY bucket_date, bucket_key`, owner, string(g))
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChartRow, len(recs))
	for i, rec := range recs {
		out[i] = rec.ChartRow
	}
	return out, nil
}

// ToBucketRows attaches the owner, granularity and canonical date to each
// chart row.
func ToBucketRows(owner string, g telemetry.Granularity, rows []domain.ChartRow) ([]BucketRow, error) {
	out := make([]BucketRow, 0, len(rows))
	for _, row := range rows {
		date, err := telemetry.CanonicalDate(row.Timestamp, g)
		if err != nil {
			return nil, err
		}
		out = append(out, BucketRow{
			OwnerID:     owner,
			Granularity: string(g),
			BucketDate:  date,
			ChartRow:    row,
		})
	}
	return out, nil
}
