package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// migrations are applied in order by Migrate. Each one is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS keychain_entries (
		keychain_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (keychain_id, key)
	)`,
	`CREATE INDEX IF NOT EXISTS keychain_entries_purge_idx
		ON keychain_entries (keychain_id, updated_at) WHERE deleted`,
}

// Open connects to PostgreSQL at dsn and applies the keychain schema.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the keychain_entries table and the index used by Purge.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
