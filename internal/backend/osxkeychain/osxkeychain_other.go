//go:build !darwin

package osxkeychain

import "github.com/juju/errors"

const supported = false

func getItem(_, _ string) ([]byte, error) {
	return nil, errors.NotSupportedf("macOS keychain")
}

func addItem(_, _ string, _ []byte) error {
	return errors.NotSupportedf("macOS keychain")
}

func deleteItem(_, _ string) error {
	return errors.NotSupportedf("macOS keychain")
}
