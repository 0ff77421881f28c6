//go:build darwin

package osxkeychain

import (
	"fmt"

	"github.com/juju/errors"
	gokeychain "github.com/keybase/go-keychain"
)

const supported = true

func getItem(service, account string) ([]byte, error) {
	data, err := gokeychain.GetGenericPassword(service, account, "", "")
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return nil, errors.NotFoundf("secret %q", account)
		}
		return nil, errors.Annotatef(err, "keychain get %q", account)
	}
	if data == nil {
		return nil, errors.NotFoundf("secret %q", account)
	}
	return data, nil
}

func addItem(service, account string, data []byte) error {
	item := gokeychain.NewGenericPassword(
		service,
		account,
		fmt.Sprintf("%s: %s", service, account),
		data,
		"",
	)
	item.SetSynchronizable(gokeychain.SynchronizableNo)
	item.SetAccessible(gokeychain.AccessibleWhenUnlockedThisDeviceOnly)

	if err := gokeychain.AddItem(item); err != nil {
		return errors.Annotatef(err, "keychain add %q", account)
	}
	return nil
}

func deleteItem(service, account string) error {
	err := gokeychain.DeleteGenericPasswordItem(service, account)
	if errors.Is(err, gokeychain.ErrorItemNotFound) {
		return errors.NotFoundf("secret %q", account)
	}
	if err != nil {
		return errors.Annotatef(err, "keychain delete %q", account)
	}
	return nil
}
