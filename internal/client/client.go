// Package client is a Go client for the keychain REST API.
//
// *Client implements the keychain backend interface, so a keychain served
// by one process can back the facade of another.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/atinyakov/keychain/internal/models"
	handler "github.com/atinyakov/keychain/internal/server/handler/http"
)

const maxResponseBytes = 1 << 20

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Stack      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("keychain API error %d: %s", e.StatusCode, e.Message)
}

// Is makes a 404 response match errors.NotFound from github.com/juju/errors.
func (e *APIError) Is(target error) bool {
	return e.StatusCode == http.StatusNotFound && target == errors.NotFound
}

// Client calls a keychain server rooted at BaseURL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client for baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Get returns the value stored under key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	body, err := c.post(ctx, "get-keychain-entry", models.GetKeychainEntryRequest{Key: key})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Set stores value under key.
func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.post(ctx, "set-keychain-entry", models.SetKeychainEntryRequest{Key: key, Value: &value})
	return err
}

// Has reports whether key is present.
func (c *Client) Has(ctx context.Context, key string) (bool, error) {
	body, err := c.post(ctx, "has-keychain-entry", models.HasKeychainEntryRequest{Key: key})
	if err != nil {
		return false, err
	}
	var resp models.HasKeychainEntryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}
	return resp.IsPresent, nil
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.post(ctx, "delete-keychain-entry", models.DeleteKeychainEntryRequest{Key: key})
	return err
}

// Info returns the identity of the remote keychain.
func (c *Client) Info(ctx context.Context) (models.InfoResponse, error) {
	var info models.InfoResponse
	body, err := c.do(ctx, http.MethodGet, "info", nil)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return info, fmt.Errorf("decoding response: %w", err)
	}
	return info, nil
}

func (c *Client) post(ctx context.Context, op string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, op, b)
}

func (c *Client) do(ctx context.Context, method, op string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+handler.BasePath+"/"+op, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to keychain server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return nil, errors.NotValidf("keychain response larger than %d bytes", maxResponseBytes)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var er models.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			apiErr.Message = er.Error
			apiErr.Stack = er.Stack
		}
		return nil, apiErr
	}
	return data, nil
}
