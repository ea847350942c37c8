package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/fine/internal/config"
)

func TestFileBackend_SaveLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, b.Save(ctx, "community", []byte("[]")))
	require.NoError(t, b.Save(ctx, "community", []byte(`[{"id":"1"}]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "community.json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "community.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(data))
}

func TestFileBackend_LoadMissing(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	_, err = b.Load(context.Background(), "calendar")
	assert.ErrorIs(t, err, ErrNoUnit)
}

func TestFileBackend_Ping(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	assert.NoError(t, b.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, b.Ping(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.StoreConfig{Driver: "mongo"})
	assert.Error(t, err)
}
