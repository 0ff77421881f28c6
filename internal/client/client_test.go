package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/keychain/internal/backend/memory"
	"github.com/atinyakov/keychain/internal/keychain"
	handler "github.com/atinyakov/keychain/internal/server/handler/http"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	k, err := keychain.New(keychain.Options{
		InstanceID: "inst-1",
		KeychainID: "kc-1",
		Backend:    memory.New(),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(handler.NewRouter(&handler.KeychainHandler{Keychain: k}, zap.NewNop()))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second)
}

func TestClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	has, err := c.Has(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = c.Get(ctx, "k1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotFound))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "k1 secret not found", apiErr.Message)

	require.NoError(t, c.Set(ctx, "k1", "v1"))
	require.NoError(t, c.Set(ctx, "k1", "v2"))

	val, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v2", val)

	has, err = c.Has(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, c.Delete(ctx, "k1"))
	require.NoError(t, c.Delete(ctx, "k1"))
}

func TestClient_Info(t *testing.T) {
	info, err := newClient(t).Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "inst-1", info.InstanceID)
	assert.Equal(t, "kc-1", info.KeychainID)
}

func TestClient_ServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"disk full","stack":"at write"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).Set(context.Background(), "k", "v")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.NotFound))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, &APIError{StatusCode: 500, Message: "disk full", Stack: "at write"}, apiErr)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Has(context.Background(), "k")
	require.Error(t, err)
	assert.Equal(t, "keychain API error 502: bad gateway", err.Error())
}

func TestClient_AsFacadeBackend(t *testing.T) {
	ctx := context.Background()
	remote, err := keychain.New(keychain.Options{
		InstanceID: "edge",
		KeychainID: "kc-1",
		Backend:    newClient(t),
	})
	require.NoError(t, err)

	_, err = remote.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, keychain.IsNotFound(err))
	assert.Equal(t, "missing secret not found", err.Error())

	require.NoError(t, remote.Set(ctx, "k", "v"))
	val, err := remote.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestClient_ResponseSizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "at limit", size: maxResponseBytes},
		{name: "over limit", size: 2 * maxResponseBytes, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := strings.Repeat("x", tt.size)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				_, _ = w.Write([]byte(value))
			}))
			defer srv.Close()

			got, err := New(srv.URL, 5*time.Second).Get(context.Background(), "big")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.NotValid))
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.size)
		})
	}
}
