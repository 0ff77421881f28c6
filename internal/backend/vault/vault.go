// Package vault provides a keychain backend stored in a HashiCorp Vault
// KV version 2 secrets engine.
//
// Each secret lives at <mount>/data/<keychain id>/<escaped key> with the
// value in the "value" field. The key is path-escaped into a single segment,
// so keys containing "/" or dot segments stay inside their keychain.
package vault

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/vault/api"
	"github.com/juju/errors"
)

// DefaultMount is the KV v2 mount used when Config.Mount is empty.
const DefaultMount = "secret"

const valueField = "value"

// Config holds the connection settings of a Backend.
type Config struct {
	// Address is the Vault server URL. Empty uses VAULT_ADDR or the client default.
	Address string `json:"address" yaml:"address"`
	// Token authenticates requests. Empty uses VAULT_TOKEN.
	Token string `json:"-" yaml:"-"`
	// Mount is the path of the KV v2 engine.
	Mount string `json:"mount" yaml:"mount"`
}

// kvClient is the subset of *api.KVv2 used by Backend.
type kvClient interface {
	Get(ctx context.Context, secretPath string) (*api.KVSecret, error)
	Put(ctx context.Context, secretPath string, data map[string]interface{}, opts ...api.KVOption) (*api.KVSecret, error)
	DeleteMetadata(ctx context.Context, secretPath string) error
}

// Backend implements keychain operations on a Vault KV v2 engine.
//
// Get returns Vault errors unchanged apart from annotation; absence is
// recognized through IsNotFound.
type Backend struct {
	kv     kvClient
	prefix string
}

// New connects a Backend for keychainID using cfg.
func New(cfg Config, keychainID string) (*Backend, error) {
	vc := api.DefaultConfig()
	if vc.Error != nil {
		return nil, errors.Annotate(vc.Error, "vault config")
	}
	if cfg.Address != "" {
		vc.Address = cfg.Address
	}
	client, err := api.NewClient(vc)
	if err != nil {
		return nil, errors.Annotate(err, "vault client")
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	mount := cfg.Mount
	if mount == "" {
		mount = DefaultMount
	}
	return newBackend(client.KVv2(mount), keychainID), nil
}

func newBackend(kv kvClient, keychainID string) *Backend {
	return &Backend{kv: kv, prefix: strings.Trim(keychainID, "/")}
}

func (b *Backend) secretPath(key string) string {
	seg := url.PathEscape(key)
	// PathEscape leaves dots alone; "." and ".." would be cleaned away.
	if seg == "." || seg == ".." {
		seg = strings.ReplaceAll(seg, ".", "%2E")
	}
	if b.prefix == "" {
		return seg
	}
	return b.prefix + "/" + seg
}

func (b *Backend) Get(ctx context.Context, key string) (string, error) {
	secret, err := b.kv.Get(ctx, b.secretPath(key))
	if err != nil {
		return "", errors.Annotatef(err, "vault get %q", key)
	}
	// A destroyed latest version keeps metadata but has no data.
	if secret == nil || secret.Data == nil {
		return "", errors.Annotatef(api.ErrSecretNotFound, "vault get %q", key)
	}
	raw, ok := secret.Data[valueField]
	if !ok {
		return "", errors.NotValidf("vault secret %q without %q field", key, valueField)
	}
	value, ok := raw.(string)
	if !ok {
		return "", errors.NotValidf("vault secret %q with %T %q field", key, raw, valueField)
	}
	return value, nil
}

func (b *Backend) Set(ctx context.Context, key, value string) error {
	_, err := b.kv.Put(ctx, b.secretPath(key), map[string]interface{}{valueField: value})
	if err != nil {
		return errors.Annotatef(err, "vault set %q", key)
	}
	return nil
}

func (b *Backend) Has(ctx context.Context, key string) (bool, error) {
	_, err := b.Get(ctx, key)
	if b.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Trace(err)
	}
	return true, nil
}

// Delete removes every version and the metadata of key.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.kv.DeleteMetadata(ctx, b.secretPath(key)); err != nil {
		return errors.Annotatef(err, "vault delete %q", key)
	}
	return nil
}

// IsNotFound reports whether err is Vault's way of saying the secret does
// not exist.
func (b *Backend) IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, api.ErrSecretNotFound) {
		return true
	}
	var apiErr *api.ResponseError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
