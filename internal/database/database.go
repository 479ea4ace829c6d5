package database

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS power_buckets (
	owner_id         TEXT             NOT NULL,
	granularity      TEXT             NOT NULL,
	bucket_key       TEXT             NOT NULL,
	bucket_date      DATE             NOT NULL,
	current_a        DOUBLE PRECISION NOT NULL,
	current_b        DOUBLE PRECISION NOT NULL,
	current_c        DOUBLE PRECISION NOT NULL,
	voltage_ab       DOUBLE PRECISION,
	voltage_bc       DOUBLE PRECISION,
	voltage_ca       DOUBLE PRECISION,
	real_power_total DOUBLE PRECISION NOT NULL,
	power_factor     DOUBLE PRECISION,
	updated_at       TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (owner_id, granularity, bucket_key)
);
CREATE INDEX IF NOT EXISTS power_buckets_date_idx ON power_buckets (owner_id, granularity, bucket_date);
`

// Connect opens the Postgres pool through the pgx stdlib driver.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Migrate creates the archive tables if they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
