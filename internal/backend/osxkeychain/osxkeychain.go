// Package osxkeychain provides a keychain backend stored as generic password
// items in the macOS Keychain.
//
// Items use the keychain id as service, the secret key as account and are
// never synced to iCloud. On other platforms New returns a NotSupported error.
package osxkeychain

import (
	"context"

	"github.com/juju/errors"
)

// Backend implements keychain operations on the macOS Keychain.
type Backend struct {
	service string
}

// New creates a Backend for the Keychain service name.
func New(service string) (*Backend, error) {
	if !supported {
		return nil, errors.NotSupportedf("macOS keychain backend on this platform")
	}
	return &Backend{service: service}, nil
}

func (b *Backend) Get(_ context.Context, key string) (string, error) {
	data, err := getItem(b.service, key)
	if err != nil {
		return "", errors.Trace(err)
	}
	return string(data), nil
}

// Set replaces any existing item for key.
func (b *Backend) Set(_ context.Context, key, value string) error {
	if err := deleteItem(b.service, key); err != nil && !errors.Is(err, errors.NotFound) {
		return errors.Trace(err)
	}
	return errors.Trace(addItem(b.service, key, []byte(value)))
}

func (b *Backend) Has(_ context.Context, key string) (bool, error) {
	_, err := getItem(b.service, key)
	if errors.Is(err, errors.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Trace(err)
	}
	return true, nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	return errors.Trace(deleteItem(b.service, key))
}
