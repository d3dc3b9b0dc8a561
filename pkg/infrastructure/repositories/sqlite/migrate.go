package sqlite

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS scheduled_items (
		id             TEXT PRIMARY KEY,
		resource_id    TEXT NOT NULL,
		order_id       TEXT NOT NULL,
		process_id     TEXT NOT NULL,
		quantity       INTEGER NOT NULL CHECK (quantity > 0),
		start_at       TEXT NOT NULL,
		end_at         TEXT NOT NULL,
		duration_ns    INTEGER NOT NULL,
		work_minutes   REAL NOT NULL DEFAULT 0,
		batch_number   INTEGER NOT NULL DEFAULT 0,
		parent_id      TEXT NOT NULL DEFAULT '',
		auto_scheduled INTEGER NOT NULL DEFAULT 0,
		latest_start   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_items_resource ON scheduled_items(resource_id, start_at)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_items_parent ON scheduled_items(parent_id)`,
	`CREATE TABLE IF NOT EXISTS timeline_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// Migrate runs all schema migrations. Every statement is idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
