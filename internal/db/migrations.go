package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS dataset_snapshots (
		id UUID PRIMARY KEY,
		loaded_at TIMESTAMPTZ NOT NULL,
		row_counts JSONB NOT NULL DEFAULT '{}'::jsonb
	);`,
	`CREATE INDEX IF NOT EXISTS idx_dataset_snapshots_loaded_at ON dataset_snapshots (loaded_at DESC);`,
	`CREATE TABLE IF NOT EXISTS dataset_rows (
		id BIGSERIAL PRIMARY KEY,
		snapshot_id UUID NOT NULL REFERENCES dataset_snapshots(id) ON DELETE CASCADE,
		dataset TEXT NOT NULL,
		position INTEGER NOT NULL,
		payload JSONB NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_dataset_rows_snapshot ON dataset_rows (snapshot_id, dataset, position);`,
	`ALTER TABLE dataset_rows ADD COLUMN IF NOT EXISTS year TEXT NOT NULL DEFAULT '';`,
	`DROP MATERIALIZED VIEW IF EXISTS mv_trip_yearly;`,
	`CREATE MATERIALIZED VIEW mv_trip_yearly AS
	SELECT
		r.snapshot_id,
		NULLIF(r.year, '') AS year,
		COUNT(*) AS total_trips
	FROM dataset_rows r
	WHERE r.dataset = 'trips'
	GROUP BY 1, 2;`,
	`CREATE INDEX IF NOT EXISTS idx_mv_trip_yearly_snapshot ON mv_trip_yearly (snapshot_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
