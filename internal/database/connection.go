package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Connect opens the database and makes sure the schema exists.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(dsn); dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == DriverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
	}

	// Create key/value table holding serialized ledgers
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_store (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}

	// Create lesson catalog table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS words (
			id ` + id + `,
			lesson TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			word TEXT NOT NULL,
			translation TEXT NOT NULL,
			part_of_speech TEXT NOT NULL DEFAULT '',
			example_sentence TEXT NOT NULL DEFAULT '',
			example_translation TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			pronunciation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(lesson, word)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create words table: %w", err)
	}

	// Create session results table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS session_results (
			id ` + id + `,
			chat_id BIGINT NOT NULL,
			lesson TEXT NOT NULL,
			mode TEXT NOT NULL,
			is_review BOOLEAN NOT NULL DEFAULT false,
			total_words INTEGER NOT NULL,
			score INTEGER NOT NULL,
			max_streak INTEGER NOT NULL DEFAULT 0,
			finished_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create session_results table: %w", err)
	}

	return nil
}

// insertReturningID runs an INSERT and returns the new row id.
// PostgreSQL reports it through RETURNING, SQLite through LastInsertId.
func insertReturningID(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (int64, error) {
	if db.DriverName() == DriverPostgres {
		var id int64
		err := db.QueryRowxContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
