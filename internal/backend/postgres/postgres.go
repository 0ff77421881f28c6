// Package postgres provides a keychain backend stored in a PostgreSQL table.
//
// Entries of many keychains share one table and are partitioned by
// keychain id. Deletes are soft: the row is flagged and later removed by
// StartPurger.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/juju/errors"
	"github.com/lib/pq"
)

// Backend implements keychain operations against a PostgreSQL database.
type Backend struct {
	// DB is the database handle for executing queries.
	DB *sql.DB

	keychainID string
	now        func() time.Time
}

// New creates a Backend serving keychainID over db.
// db must be a valid connection with the schema created by Open.
func New(db *sql.DB, keychainID string) *Backend {
	return &Backend{DB: db, keychainID: keychainID, now: time.Now}
}

// Get returns the live value stored under key.
func (b *Backend) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := b.DB.QueryRowContext(ctx, `
		SELECT value FROM keychain_entries
		WHERE keychain_id = $1 AND key = $2 AND deleted = false
	`, b.keychainID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.NotFoundf("secret %q", key)
	}
	if err != nil {
		return "", annotate(err, "postgres get %q", key)
	}
	return value, nil
}

// Set inserts key or replaces its value, reviving a soft-deleted row.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	_, err := b.DB.ExecContext(ctx, `
		INSERT INTO keychain_entries (keychain_id, key, value, deleted, updated_at)
		VALUES ($1, $2, $3, false, $4)
		ON CONFLICT (keychain_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			deleted = false,
			updated_at = EXCLUDED.updated_at
	`, b.keychainID, key, value, b.now().Unix())
	if err != nil {
		return annotate(err, "postgres set %q", key)
	}
	return nil
}

// Has reports whether a live row exists for key.
func (b *Backend) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := b.DB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM keychain_entries WHERE keychain_id = $1 AND key = $2 AND deleted = false)
	`, b.keychainID, key).Scan(&exists)
	if err != nil {
		return false, annotate(err, "postgres has %q", key)
	}
	return exists, nil
}

// Delete soft-deletes key. Deleting an absent key is a no-op.
func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.DB.ExecContext(ctx, `
		UPDATE keychain_entries SET deleted = true, updated_at = $3
		WHERE keychain_id = $1 AND key = $2 AND deleted = false
	`, b.keychainID, key, b.now().Unix())
	if err != nil {
		return annotate(err, "postgres delete %q", key)
	}
	return nil
}

// annotate adds the SQLSTATE of driver errors to the annotation.
func annotate(err error, format string, args ...any) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		format += " (sqlstate " + string(pqErr.Code) + ")"
	}
	return errors.Annotatef(err, format, args...)
}
