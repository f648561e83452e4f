// Package storage provides the credential storage collaborator.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures

package storage

import (
	"context"

	"github.com/richinex/omnireport/model"
)

// Setting keys used for credentials.
const (
	KeySearchAPIKey     = "search_api_key"
	KeyGenerationAPIKey = "generation_api_key"
	KeyModel            = "model"
)

// CredentialStore loads and saves the session credentials.
type CredentialStore interface {
	// LoadCredentials returns the stored credentials. Missing values are
	// empty strings, not errors.
	LoadCredentials(ctx context.Context) (model.Credentials, error)

	// SaveCredentials replaces the stored credentials.
	SaveCredentials(ctx context.Context, creds model.Credentials) error
}

// Merge returns base with every non-empty field of update applied, so a
// partial update keeps the values it does not mention.
func Merge(base, update model.Credentials) model.Credentials {
	if update.SearchAPIKey != "" {
		base.SearchAPIKey = update.SearchAPIKey
	}
	if update.GenerationAPIKey != "" {
		base.GenerationAPIKey = update.GenerationAPIKey
	}
	if update.Model != "" {
		base.Model = update.Model
	}
	return base
}
