package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pbaille/fine/internal/config"
)

// ErrNoUnit is returned by a Backend when a collection has never been written.
var ErrNoUnit = errors.New("storage unit does not exist")

// Backend persists one serialized storage unit per collection.
type Backend interface {
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, collection string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the backend selected by cfg.Driver
func Open(cfg config.StoreConfig) (Backend, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return NewFileBackend(cfg.DataDir)
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		return NewSQLiteBackend(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
