// Package sqlitestore provides the SQLite-backed auth.Store adapter for
// hosts that want sessions to survive restarts without trusting a plain
// file. Schema management uses embedded goose migrations.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/mixcore/sdk-go/internal/dbx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements auth.Store over a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dsn and applies pending
// migrations. A plain file path is a valid dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating session db: %w", err)
	}
	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session_store[%s]: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_store (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing session_store[%s]: %w", key, err)
	}
	return nil
}

// SetMany writes all pairs in a single transaction so a token and its
// refresh token are never persisted half-updated.
func (s *Store) SetMany(ctx context.Context, values map[string][]byte) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for key, value := range values {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO session_store (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, key, value)
			if err != nil {
				return fmt.Errorf("writing session_store[%s]: %w", key, err)
			}
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_store WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting session_store[%s]: %w", key, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_store`)
	if err != nil {
		return fmt.Errorf("clearing session_store: %w", err)
	}
	return nil
}

// Available reports whether the database responds to a ping.
func (s *Store) Available() bool {
	return s.db.Ping() == nil
}
