// Package keyring provides a keychain backend on top of the operating
// system keyring (macOS Keychain, Secret Service over D-Bus, Windows
// Credential Manager).
package keyring

import (
	"context"

	"github.com/juju/errors"
	gokeyring "github.com/zalando/go-keyring"
)

// Backend stores each secret as a keyring item whose service is the
// keychain id and whose user is the secret key.
type Backend struct {
	service string
}

// New creates a Backend for the keyring service name.
func New(service string) *Backend {
	return &Backend{service: service}
}

func (b *Backend) Get(_ context.Context, key string) (string, error) {
	val, err := gokeyring.Get(b.service, key)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return "", errors.NotFoundf("secret %q", key)
	}
	if err != nil {
		return "", errors.Annotatef(err, "keyring get %q", key)
	}
	return val, nil
}

func (b *Backend) Set(_ context.Context, key, value string) error {
	if err := gokeyring.Set(b.service, key, value); err != nil {
		return errors.Annotatef(err, "keyring set %q", key)
	}
	return nil
}

func (b *Backend) Has(_ context.Context, key string) (bool, error) {
	_, err := gokeyring.Get(b.service, key)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Annotatef(err, "keyring has %q", key)
	}
	return true, nil
}

// Delete removes key. An absent key is reported as not found.
func (b *Backend) Delete(_ context.Context, key string) error {
	err := gokeyring.Delete(b.service, key)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return errors.NotFoundf("secret %q", key)
	}
	if err != nil {
		return errors.Annotatef(err, "keyring delete %q", key)
	}
	return nil
}
