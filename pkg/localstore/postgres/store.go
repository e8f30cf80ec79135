// Package postgres provides a PostgreSQL-backed local store. Values live in
// the local_storage table created by the embedded migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/txn2/realty-crm/pkg/localstore"
)

// Store persists values in PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new Store. The caller owns db; Close does not close it.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get implements localstore.Store.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM local_storage WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading local value: %w", err)
	}
	return value, true, nil
}

// Set implements localstore.Store.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO local_storage (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("saving local value: %w", err)
	}
	return nil
}

// Remove implements localstore.Store.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = $1`, key); err != nil {
		return fmt.Errorf("removing local value: %w", err)
	}
	return nil
}

// Close implements localstore.Store.
func (*Store) Close() error {
	return nil
}

// Verify interface compliance.
var _ localstore.Store = (*Store)(nil)
