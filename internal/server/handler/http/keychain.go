// Package http provides the HTTP handlers and routing of the keychain API.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/atinyakov/keychain/internal/exception"
	"github.com/atinyakov/keychain/internal/keychain"
	"github.com/atinyakov/keychain/internal/models"
)

const maxBodyBytes = 1 << 20

// now is replaced in tests.
var now = time.Now

// Keychain defines the facade operations required by the KeychainHandler.
type Keychain interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	InstanceID() string
	KeychainID() string
}

// KeychainHandler serves the keychain entry endpoints.
type KeychainHandler struct {
	Keychain Keychain
	// Logger may be nil.
	Logger *zap.Logger
}

// GetEntry handles POST /get-keychain-entry. The stored value is written
// as the text/plain response body.
func (h *KeychainHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	var req models.GetKeychainEntryRequest
	if !decode(w, r, &req) || !requireKey(w, req.Key) {
		return
	}

	value, err := h.Keychain.Get(r.Context(), req.Key)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(value))
}

// SetEntry handles POST /set-keychain-entry.
func (h *KeychainHandler) SetEntry(w http.ResponseWriter, r *http.Request) {
	var req models.SetKeychainEntryRequest
	if !decode(w, r, &req) || !requireKey(w, req.Key) {
		return
	}
	if req.Value == nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.Keychain.Set(r.Context(), req.Key, *req.Value); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HasEntry handles POST /has-keychain-entry.
func (h *KeychainHandler) HasEntry(w http.ResponseWriter, r *http.Request) {
	var req models.HasKeychainEntryRequest
	if !decode(w, r, &req) || !requireKey(w, req.Key) {
		return
	}

	present, err := h.Keychain.Has(r.Context(), req.Key)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.HasKeychainEntryResponse{
		Key:       req.Key,
		CheckedAt: now().UTC(),
		IsPresent: present,
	})
}

// DeleteEntry handles POST /delete-keychain-entry.
func (h *KeychainHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteKeychainEntryRequest
	if !decode(w, r, &req) || !requireKey(w, req.Key) {
		return
	}

	if err := h.Keychain.Delete(r.Context(), req.Key); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Info handles GET /info.
func (h *KeychainHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.InfoResponse{
		InstanceID: h.Keychain.InstanceID(),
		KeychainID: h.Keychain.KeychainID(),
	})
}

// writeError maps a facade error to a response. NotFound becomes 404 with
// the message only; anything else is a 500 carrying message and stack.
func (h *KeychainHandler) writeError(w http.ResponseWriter, err error) {
	if keychain.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp := models.ErrorResponse{
		Error: exception.ExtractMessage(err),
		Stack: exception.ExtractStack(err),
	}
	var kerr *keychain.Error
	if errors.As(err, &kerr) {
		resp = models.ErrorResponse{Error: kerr.Message, Stack: kerr.Stack}
	}

	if h.Logger != nil {
		h.Logger.Error("keychain request failed", zap.String("error", resp.Error))
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request"})
		return false
	}
	return true
}

func requireKey(w http.ResponseWriter, key string) bool {
	if key == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
