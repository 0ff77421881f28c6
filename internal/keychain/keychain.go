// Package keychain implements a get/set/has/delete facade over a pluggable
// secret-storage backend.
//
// The facade holds no locks and performs no retries. Each operation is a
// single backend call; failures are converted into *Error values with a
// stable Kind and normalized diagnostic text.
package keychain

import (
	"context"

	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Backend is the secret-storage capability a Keychain delegates to.
//
// Set must overwrite an existing value. Get must fail when the key is
// absent; absence is recognized when the error matches errors.NotFound from
// github.com/juju/errors or when the backend implements NotFoundClassifier.
// Delete of an absent key may succeed or fail with a not-found error.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// NotFoundClassifier is implemented by backends whose not-found signal is
// specific to the backend.
type NotFoundClassifier interface {
	IsNotFound(err error) bool
}

// Options configures a Keychain.
type Options struct {
	// InstanceID identifies this facade instance.
	InstanceID string
	// KeychainID identifies the logical keychain served by the backend.
	KeychainID string
	// Backend stores the secrets.
	Backend Backend
	// Logger receives failure diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// Keychain is the CRUD facade over a Backend.
type Keychain struct {
	instanceID string
	keychainID string
	backend    Backend
	log        *zap.Logger
}

// New validates opts and returns a Keychain.
func New(opts Options) (*Keychain, error) {
	if opts.Backend == nil {
		return nil, errors.NotValidf("nil keychain backend")
	}
	if opts.InstanceID == "" {
		return nil, errors.NotValidf("empty instance id")
	}
	if opts.KeychainID == "" {
		return nil, errors.NotValidf("empty keychain id")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Keychain{
		instanceID: opts.InstanceID,
		keychainID: opts.KeychainID,
		backend:    opts.Backend,
		log: log.With(
			zap.String("instance_id", opts.InstanceID),
			zap.String("keychain_id", opts.KeychainID),
		),
	}, nil
}

// InstanceID returns the id of this facade instance.
func (k *Keychain) InstanceID() string { return k.instanceID }

// KeychainID returns the id of the keychain.
func (k *Keychain) KeychainID() string { return k.keychainID }

// Has reports whether key is present.
func (k *Keychain) Has(ctx context.Context, key string) (bool, error) {
	ok, err := k.backend.Has(ctx, key)
	if err != nil {
		return false, k.fail("has", key, err)
	}
	return ok, nil
}

// Get returns the value stored under key. An absent key yields a NotFound
// error whose message is "<key> secret not found".
func (k *Keychain) Get(ctx context.Context, key string) (string, error) {
	value, err := k.backend.Get(ctx, key)
	if err != nil {
		if k.isNotFound(err) {
			k.log.Debug("secret not found", zap.String("key", key))
			return "", newNotFound(key, err)
		}
		return "", k.fail("get", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (k *Keychain) Set(ctx context.Context, key, value string) error {
	if err := k.backend.Set(ctx, key, value); err != nil {
		return k.fail("set", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key succeeds.
func (k *Keychain) Delete(ctx context.Context, key string) error {
	if err := k.backend.Delete(ctx, key); err != nil {
		if k.isNotFound(err) {
			return nil
		}
		return k.fail("delete", key, err)
	}
	return nil
}

func (k *Keychain) isNotFound(err error) bool {
	if errors.Is(err, errors.NotFound) {
		return true
	}
	if c, ok := k.backend.(NotFoundClassifier); ok {
		return c.IsNotFound(err)
	}
	return false
}

func (k *Keychain) fail(op, key string, err error) error {
	kerr := newBackendFailure(op, key, err)
	k.log.Warn("keychain backend call failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.String("kind", string(kerr.Kind)),
		zap.String("message", kerr.Message),
	)
	return kerr
}
