// Package storage provides SQLite settings storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/omnireport/model"
)

// SqliteStorage implements CredentialStore on a key/value settings table.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates a private in-memory database.
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadCredentials reads the credential keys. Missing keys load as empty.
func (s *SqliteStorage) LoadCredentials(ctx context.Context) (model.Credentials, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM settings WHERE key IN (?, ?, ?)",
		KeySearchAPIKey, KeyGenerationAPIKey, KeyModel)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var creds model.Credentials
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.Credentials{}, fmt.Errorf("failed to scan credential: %w", err)
		}
		switch key {
		case KeySearchAPIKey:
			creds.SearchAPIKey = value
		case KeyGenerationAPIKey:
			creds.GenerationAPIKey = value
		case KeyModel:
			creds.Model = value
		}
	}

	if err := rows.Err(); err != nil {
		return model.Credentials{}, fmt.Errorf("error iterating credentials: %w", err)
	}

	return creds, nil
}

// SaveCredentials replaces all three credential keys in one transaction.
func (s *SqliteStorage) SaveCredentials(ctx context.Context, creds model.Credentials) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, kv := range [][2]string{
		{KeySearchAPIKey, creds.SearchAPIKey},
		{KeyGenerationAPIKey, creds.GenerationAPIKey},
		{KeyModel, creds.Model},
	} {
		if _, err := stmt.ExecContext(ctx, kv[0], kv[1], now); err != nil {
			return fmt.Errorf("failed to save %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Verify SqliteStorage implements CredentialStore
var _ CredentialStore = (*SqliteStorage)(nil)
