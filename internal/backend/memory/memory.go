// Package memory provides an in-process keychain backend.
package memory

import (
	"context"
	"sync"

	"github.com/juju/errors"
)

// Store keeps secrets in a map. It is safe for concurrent use; concurrent
// writes to one key resolve to the last writer.
type Store struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{secrets: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.secrets[key]
	if !ok {
		return "", errors.NotFoundf("secret %q", key)
	}
	return val, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = value
	return nil
}

func (s *Store) Has(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.secrets[key]
	return ok, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, key)
	return nil
}
