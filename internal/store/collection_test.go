package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/fine/internal/config"
	"github.com/pbaille/fine/internal/domain"
	"github.com/pbaille/fine/internal/logger"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	file, err := Open(config.StoreConfig{Driver: config.DriverFile, DataDir: filepath.Join(dir, "files")})
	require.NoError(t, err)

	sqlite, err := Open(config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(dir, "db", "fine.db")})
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{"file": file, "sqlite": sqlite}
}

func TestCollection_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			events := NewCollection[domain.Event]("calendar", b, logger.Discard())

			records := []domain.Event{
				{ID: "b", Date: "2026-04-02", Title: "second"},
				{ID: "a", Date: "2026-04-01", Title: "first"},
				{ID: "c", Date: "2026-04-02", Title: "third"},
			}
			require.NoError(t, events.WriteAll(ctx, records))
			assert.Equal(t, records, events.ReadAll(ctx))

			// repeated reads with no writes in between are identical
			assert.Equal(t, events.ReadAll(ctx), events.ReadAll(ctx))
		})
	}
}

func TestCollection_MissingUnitReadsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			events := NewCollection[domain.Event]("calendar", b, logger.Discard())
			got := events.ReadAll(ctx)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestCollection_CorruptUnit(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Save(ctx, "calendar", []byte("{not json")))
			events := NewCollection[domain.Event]("calendar", b, logger.Discard())

			assert.Empty(t, events.ReadAll(ctx))

			err := events.Update(ctx, func(records []domain.Event) ([]domain.Event, error) {
				return append(records, domain.Event{ID: "x", Date: "2026-01-01", Title: "t"}), nil
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrStorage))

			raw, err := b.Load(ctx, "calendar")
			require.NoError(t, err)
			assert.Equal(t, "{not json", string(raw), "corrupt unit must not be overwritten")
		})
	}
}

func TestCollection_QuarantinesMalformedRecords(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			unit := `[
				{"id": "1", "date": "2026-04-01", "title": "ok"},
				{"id": "2", "date": "tomorrow", "title": "bad date"},
				null,
				{"id": "3", "date": "2026-04-03", "title": "ok too"}
			]`
			require.NoError(t, b.Save(ctx, "calendar", []byte(unit)))
			events := NewCollection[domain.Event]("calendar", b, logger.Discard())

			got := events.ReadAll(ctx)
			require.Len(t, got, 2)
			assert.Equal(t, "1", got[0].ID)
			assert.Equal(t, "3", got[1].ID)

			require.NoError(t, events.Update(ctx, func(records []domain.Event) ([]domain.Event, error) {
				return append(records, domain.Event{ID: "4", Date: "2026-04-04", Title: "new"}), nil
			}))

			raw, err := b.Load(ctx, "calendar")
			require.NoError(t, err)
			assert.Contains(t, string(raw), "tomorrow", "quarantined record is kept on update")

			got = events.ReadAll(ctx)
			require.Len(t, got, 3)
			assert.Equal(t, "4", got[2].ID)
		})
	}
}

func TestCollection_UpdateErrorLeavesUnitUnchanged(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			events := NewCollection[domain.Event]("calendar", b, logger.Discard())
			initial := []domain.Event{{ID: "1", Date: "2026-04-01", Title: "a"}}
			require.NoError(t, events.WriteAll(ctx, initial))

			boom := errors.New("boom")
			err := events.Update(ctx, func(records []domain.Event) ([]domain.Event, error) {
				return nil, boom
			})
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, initial, events.ReadAll(ctx))
		})
	}
}

func TestCollection_ConcurrentUpdatesKeepEveryWrite(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			events := NewCollection[domain.Event]("calendar", b, logger.Discard())

			const writers = 20
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					err := events.Update(ctx, func(records []domain.Event) ([]domain.Event, error) {
						return append(records, domain.Event{
							ID:    fmt.Sprintf("e%d", i),
							Date:  "2026-04-01",
							Title: "concurrent",
						}), nil
					})
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			assert.Len(t, events.ReadAll(ctx), writers)
		})
	}
}

func TestCollection_WriteFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	events := NewCollection[domain.Event]("calendar", b, logger.Discard())
	err = events.WriteAll(ctx, []domain.Event{{ID: "1", Date: "2026-04-01", Title: "a"}})
	require.Error(t, err)

	var se *domain.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "calendar", se.Collection)
	assert.Equal(t, "write", se.Op)
}
