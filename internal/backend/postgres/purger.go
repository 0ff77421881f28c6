package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purge hard-deletes the entries of this keychain that were soft-deleted
// more than retention ago and returns how many rows it removed.
func (b *Backend) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := b.now().Add(-retention).Unix()
	res, err := b.DB.ExecContext(ctx, `
		DELETE FROM keychain_entries
		WHERE keychain_id = $1 AND deleted = true AND updated_at < $2
	`, b.keychainID, cutoff)
	if err != nil {
		return 0, annotate(err, "postgres purge %q", b.keychainID)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, annotate(err, "postgres purge %q", b.keychainID)
	}
	return removed, nil
}

// StartPurger calls Purge every interval until ctx is done. The returned
// channel is closed once the loop has stopped.
func (b *Backend) StartPurger(ctx context.Context, interval, retention time.Duration, log *zap.Logger) <-chan struct{} {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("keychain_id", b.keychainID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			removed, err := b.Purge(ctx, retention)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				log.Error("purge of deleted entries failed", zap.Error(err))
			case removed > 0:
				log.Info("purged deleted entries",
					zap.Int64("removed", removed),
					zap.Duration("retention", retention),
				)
			}
		}
	}()
	return done
}
