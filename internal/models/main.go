// Package models defines the request and response payloads of the keychain
// REST API.
package models

import "time"

// GetKeychainEntryRequest is the body of POST /get-keychain-entry.
type GetKeychainEntryRequest struct {
	Key string `json:"key"`
}

// SetKeychainEntryRequest is the body of POST /set-keychain-entry.
type SetKeychainEntryRequest struct {
	Key string `json:"key"`
	// Value is a pointer so that a missing value can be told apart from an empty one.
	Value *string `json:"value"`
}

// HasKeychainEntryRequest is the body of POST /has-keychain-entry.
type HasKeychainEntryRequest struct {
	Key string `json:"key"`
}

// HasKeychainEntryResponse reports whether Key was present at CheckedAt.
type HasKeychainEntryResponse struct {
	Key       string    `json:"key"`
	CheckedAt time.Time `json:"checkedAt"`
	IsPresent bool      `json:"isPresent"`
}

// DeleteKeychainEntryRequest is the body of POST /delete-keychain-entry.
type DeleteKeychainEntryRequest struct {
	Key string `json:"key"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	// Stack is empty for client errors and not-found responses.
	Stack string `json:"stack,omitempty"`
}

// InfoResponse identifies the serving keychain.
type InfoResponse struct {
	InstanceID string `json:"instanceId"`
	KeychainID string `json:"keychainId"`
}
