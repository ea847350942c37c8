package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// SQLiteBackend keeps each collection as one row holding its serialized array
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at dbPath
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Load returns the stored array for a collection
func (b *SQLiteBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx,
		"SELECT body FROM collections WHERE name = ?",
		collection,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoUnit
	}
	if err != nil {
		return nil, fmt.Errorf("select collection: %w", err)
	}
	return body, nil
}

// Save replaces the stored array for a collection in one statement
func (b *SQLiteBackend) Save(ctx context.Context, collection string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO collections (name, body, updated_at) VALUES (?, ?, ?)",
		collection, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close closes the database connection
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
