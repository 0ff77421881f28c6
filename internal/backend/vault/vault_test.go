package vault

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV mimics the KV v2 client over a map keyed by secret path.
type fakeKV struct {
	mu      sync.Mutex
	data    map[string]map[string]interface{}
	err     error
	deleted []string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]map[string]interface{})}
}

func (f *fakeKV) Get(_ context.Context, secretPath string) (*api.KVSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.data[secretPath]
	if !ok {
		return nil, fmt.Errorf("%w: at secret/data/%s", api.ErrSecretNotFound, secretPath)
	}
	return &api.KVSecret{Data: data}, nil
}

func (f *fakeKV) Put(_ context.Context, secretPath string, data map[string]interface{}, _ ...api.KVOption) (*api.KVSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.data[secretPath] = data
	return &api.KVSecret{Data: data}, nil
}

func (f *fakeKV) DeleteMetadata(_ context.Context, secretPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, secretPath)
	delete(f.data, secretPath)
	return nil
}

func TestBackend_Lifecycle(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	b := newBackend(kv, "/kc1/")

	has, err := b.Has(ctx, "db/password")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = b.Get(ctx, "db/password")
	require.Error(t, err)
	assert.True(t, b.IsNotFound(err))

	require.NoError(t, b.Set(ctx, "db/password", "hunter2"))
	assert.Equal(t, "hunter2", kv.data["kc1/db%2Fpassword"]["value"])

	has, err = b.Has(ctx, "db/password")
	require.NoError(t, err)
	assert.True(t, has)

	val, err := b.Get(ctx, "db/password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", val)

	require.NoError(t, b.Delete(ctx, "db/password"))
	require.NoError(t, b.Delete(ctx, "db/password"))
	assert.Equal(t, []string{"kc1/db%2Fpassword", "kc1/db%2Fpassword"}, kv.deleted)

	has, err = b.Has(ctx, "db/password")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSecretPath(t *testing.T) {
	b := newBackend(newFakeKV(), "kc1")

	tests := []struct {
		key  string
		want string
	}{
		{key: "token", want: "kc1/token"},
		{key: "db/password", want: "kc1/db%2Fpassword"},
		{key: "../x", want: "kc1/..%2Fx"},
		{key: "a/../b", want: "kc1/a%2F..%2Fb"},
		{key: "..", want: "kc1/%2E%2E"},
		{key: ".", want: "kc1/%2E"},
		{key: "%2E", want: "kc1/%252E"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, b.secretPath(tt.key))
		})
	}
}

func TestBackend_KeysStayInsideKeychain(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kc1 := newBackend(kv, "kc1")
	kc2 := newBackend(kv, "kc2")

	require.NoError(t, kc2.Set(ctx, "token", "kc2-secret"))

	_, err := kc1.Get(ctx, "../kc2/token")
	require.Error(t, err)
	assert.True(t, kc1.IsNotFound(err))

	require.NoError(t, kc1.Set(ctx, "../kc2/token", "overwrite"))
	val, err := kc2.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "kc2-secret", val)
}

func TestBackend_DistinctKeysDoNotCollide(t *testing.T) {
	ctx := context.Background()
	b := newBackend(newFakeKV(), "kc1")

	require.NoError(t, b.Set(ctx, "a/../b", "x"))

	has, err := b.Has(ctx, "b")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, b.Set(ctx, "b", "y"))
	val, err := b.Get(ctx, "a/../b")
	require.NoError(t, err)
	assert.Equal(t, "x", val)
}

func TestBackend_MalformedSecret(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.data["kc1/no-field"] = map[string]interface{}{"other": "x"}
	kv.data["kc1/not-string"] = map[string]interface{}{"value": 42}
	b := newBackend(kv, "kc1")

	for _, key := range []string{"no-field", "not-string"} {
		t.Run(key, func(t *testing.T) {
			_, err := b.Get(ctx, key)
			require.Error(t, err)
			assert.False(t, b.IsNotFound(err))
			assert.True(t, errors.Is(err, errors.NotValid))
		})
	}
}

func TestBackend_DestroyedVersion(t *testing.T) {
	kv := newFakeKV()
	kv.data["kc1/gone"] = nil
	b := newBackend(kv, "kc1")

	_, err := b.Get(context.Background(), "gone")
	assert.True(t, b.IsNotFound(err))
}

func TestBackend_Failures(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.err = &api.ResponseError{StatusCode: http.StatusForbidden, Errors: []string{"permission denied"}}
	b := newBackend(kv, "kc1")

	_, err := b.Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, b.IsNotFound(err))
	assert.Contains(t, err.Error(), `vault get "k"`)

	_, err = b.Has(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, b.Set(ctx, "k", "v"))
	assert.Error(t, b.Delete(ctx, "k"))
}

func TestIsNotFound(t *testing.T) {
	b := newBackend(newFakeKV(), "kc1")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "secret not found", err: errors.Annotate(api.ErrSecretNotFound, "vault get"), want: true},
		{name: "404 response", err: &api.ResponseError{StatusCode: http.StatusNotFound}, want: true},
		{name: "403 response", err: &api.ResponseError{StatusCode: http.StatusForbidden}, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.IsNotFound(tt.err))
		})
	}
}

func TestNew(t *testing.T) {
	b, err := New(Config{Address: "http://127.0.0.1:8200", Token: "root"}, "kc1")
	require.NoError(t, err)
	assert.Equal(t, "kc1", b.prefix)
	assert.NotNil(t, b.kv)
}
