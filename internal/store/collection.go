package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/pbaille/fine/internal/domain"
)

type validator interface {
	Validate() error
}

// Collection is a typed, ordered record set stored as one JSON array.
//
// Writers are serialized per collection; readers never take the lock and
// rely on the backend replacing units atomically.
type Collection[T any] struct {
	name    string
	backend Backend
	log     *slog.Logger

	mu sync.Mutex
}

// NewCollection binds a named collection to a backend
func NewCollection[T any](name string, backend Backend, logger *slog.Logger) *Collection[T] {
	return &Collection[T]{
		name:    name,
		backend: backend,
		log:     logger.With(slog.String("collection", name)),
	}
}

// ReadAll returns every valid record in stored order. A missing or corrupt
// unit reads as empty; the failure is logged, never returned.
func (c *Collection[T]) ReadAll(ctx context.Context) []T {
	records, _, err := c.read(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "read failed, treating collection as empty",
			slog.String("op", "read"),
			slog.Any("error", err),
		)
		return []T{}
	}
	return records
}

// WriteAll replaces the whole collection with records.
func (c *Collection[T]) WriteAll(ctx context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, records, nil)
}

// Update runs a read-modify-write cycle while holding the collection's
// writer lock. Unlike ReadAll, the read is strict: a corrupt unit aborts the
// update instead of being overwritten. If fn returns an error nothing is
// written. Quarantined records are carried over unchanged.
func (c *Collection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, quarantined, err := c.read(ctx)
	if err != nil {
		c.log.ErrorContext(ctx, "update aborted",
			slog.String("op", "read"),
			slog.Any("error", err),
		)
		return err
	}

	next, err := fn(records)
	if err != nil {
		return err
	}
	return c.write(ctx, next, quarantined)
}

func (c *Collection[T]) read(ctx context.Context) ([]T, []json.RawMessage, error) {
	data, err := c.backend.Load(ctx, c.name)
	if errors.Is(err, ErrNoUnit) {
		return []T{}, nil, nil
	}
	if err != nil {
		return nil, nil, &domain.StorageError{Collection: c.name, Op: "read", Err: err}
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, &domain.StorageError{Collection: c.name, Op: "decode", Err: err}
	}

	records := make([]T, 0, len(raws))
	var quarantined []json.RawMessage
	for i, raw := range raws {
		rec, err := decodeRecord[T](raw)
		if err != nil {
			c.log.WarnContext(ctx, "quarantined malformed record",
				slog.Int("index", i),
				slog.Any("error", err),
			)
			quarantined = append(quarantined, raw)
			continue
		}
		records = append(records, rec)
	}
	return records, quarantined, nil
}

func decodeRecord[T any](raw json.RawMessage) (T, error) {
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, err
	}
	if v, ok := any(rec).(validator); ok {
		if err := v.Validate(); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func (c *Collection[T]) write(ctx context.Context, records []T, quarantined []json.RawMessage) error {
	units := make([]json.RawMessage, 0, len(records)+len(quarantined))
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return c.writeFailed(ctx, "encode", err)
		}
		units = append(units, raw)
	}
	units = append(units, quarantined...)

	data, err := json.MarshalIndent(units, "", "  ")
	if err != nil {
		return c.writeFailed(ctx, "encode", err)
	}

	if err := c.backend.Save(ctx, c.name, data); err != nil {
		return c.writeFailed(ctx, "write", err)
	}
	return nil
}

func (c *Collection[T]) writeFailed(ctx context.Context, op string, err error) error {
	c.log.ErrorContext(ctx, "write failed",
		slog.String("op", op),
		slog.Any("error", err),
	)
	return &domain.StorageError{Collection: c.name, Op: op, Err: err}
}
