// Package backend opens the secret-storage backend selected by the
// configuration.
package backend

import (
	"context"
	"time"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/atinyakov/keychain/internal/backend/keyring"
	"github.com/atinyakov/keychain/internal/backend/memory"
	"github.com/atinyakov/keychain/internal/backend/osxkeychain"
	"github.com/atinyakov/keychain/internal/backend/postgres"
	"github.com/atinyakov/keychain/internal/backend/vault"
	"github.com/atinyakov/keychain/internal/client"
	"github.com/atinyakov/keychain/internal/config"
	"github.com/atinyakov/keychain/internal/keychain"
)

const remoteTimeout = 30 * time.Second

func noopClose() error { return nil }

// Open builds the backend named by opts.Backend. The returned close function
// releases its resources and must be called once the backend is no longer
// used. Background work started for the backend stops when ctx is done.
func Open(ctx context.Context, opts *config.Options, log *zap.Logger) (keychain.Backend, func() error, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch opts.Backend {
	case config.BackendMemory, "":
		return memory.New(), noopClose, nil

	case config.BackendPostgres:
		if opts.DatabaseDSN == "" {
			return nil, nil, errors.NotValidf("postgres backend without database DSN")
		}
		db, err := postgres.Open(ctx, opts.DatabaseDSN)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		b := postgres.New(db, opts.KeychainID)
		if opts.PurgeInterval > 0 {
			b.StartPurger(ctx, opts.PurgeInterval, opts.PurgeRetention, log.Named("purger"))
		}
		return b, db.Close, nil

	case config.BackendKeyring:
		return keyring.New(opts.KeychainID), noopClose, nil

	case config.BackendVault:
		b, err := vault.New(vault.Config{
			Address: opts.Vault.Address,
			Token:   opts.Vault.Token,
			Mount:   opts.Vault.Mount,
		}, opts.KeychainID)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		return b, noopClose, nil

	case config.BackendOSXKeychain:
		b, err := osxkeychain.New(opts.KeychainID)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		return b, noopClose, nil

	case config.BackendRemote:
		if opts.RemoteURL == "" {
			return nil, nil, errors.NotValidf("remote backend without remote URL")
		}
		return client.New(opts.RemoteURL, remoteTimeout), noopClose, nil
	}

	return nil, nil, errors.NotValidf("backend %q", opts.Backend)
}
