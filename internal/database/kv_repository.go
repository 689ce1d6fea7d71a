package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// KVRepository stores text values under unique names. It backs the
// missed-word ledgers.
type KVRepository struct {
	db *sqlx.DB
}

// NewKVRepository creates a new repository instance
func NewKVRepository(db *sqlx.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value stored under key
func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, r.db.Rebind("SELECT value FROM kv_store WHERE name = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get value %q: %w", key, err)
	}
	return value, true, nil
}

// Put inserts or replaces the value stored under key
func (r *KVRepository) Put(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), key, value); err != nil {
		return fmt.Errorf("failed to put value %q: %w", key, err)
	}
	return nil
}

// Keys returns all keys starting with prefix, sorted
func (r *KVRepository) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	query := "SELECT name FROM kv_store WHERE substr(name, 1, ?) = ? ORDER BY name"
	if err := r.db.SelectContext(ctx, &keys, r.db.Rebind(query), len(prefix), prefix); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Delete removes key. Missing keys are not an error.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM kv_store WHERE name = ?"), key); err != nil {
		return fmt.Errorf("failed to delete value %q: %w", key, err)
	}
	return nil
}
