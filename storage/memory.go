// Package storage provides in-memory credential storage.
//
// Information Hiding:
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"sync"

	"github.com/richinex/omnireport/model"
)

// InMemoryStore implements CredentialStore in process memory.
// Data is lost when process terminates.
type InMemoryStore struct {
	mu    sync.RWMutex
	creds model.Credentials
}

// NewInMemoryStore creates a store seeded with initial.
func NewInMemoryStore(initial model.Credentials) *InMemoryStore {
	return &InMemoryStore{creds: initial}
}

// LoadCredentials returns the current credentials.
func (s *InMemoryStore) LoadCredentials(ctx context.Context) (model.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, nil
}

// SaveCredentials replaces the credentials.
func (s *InMemoryStore) SaveCredentials(ctx context.Context, creds model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

// Verify InMemoryStore implements CredentialStore
var _ CredentialStore = (*InMemoryStore)(nil)
