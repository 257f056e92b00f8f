package database

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS shipments (
		id                   TEXT PRIMARY KEY,
		tracking_number      TEXT NOT NULL UNIQUE,
		sender               JSONB NOT NULL,
		recipient            JSONB NOT NULL,
		package              JSONB NOT NULL,
		service              TEXT NOT NULL,
		special_instructions TEXT NOT NULL DEFAULT '',
		status               TEXT NOT NULL,
		current_location     JSONB,
		courier_id           TEXT,
		courier              JSONB,
		total_cost           DOUBLE PRECISION NOT NULL DEFAULT 0,
		estimated_delivery   TIMESTAMPTZ NOT NULL,
		actual_delivery      TIMESTAMPTZ,
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS shipment_events (
		shipment_id TEXT NOT NULL REFERENCES shipments(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		status      TEXT NOT NULL,
		location    TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (shipment_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(status)`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_created_at ON shipments(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_courier_id ON shipments(courier_id)`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_sender_email ON shipments(lower(sender->>'email'))`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_recipient_email ON shipments(lower(recipient->>'email'))`,
}

// Migrate создает схему базы данных, если она еще не создана
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit tx: %w", err)
	}
	return nil
}
