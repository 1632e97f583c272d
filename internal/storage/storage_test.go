package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectdev/commit-reflect/internal/config"
	"github.com/reflectdev/commit-reflect/pkg/models"
)

// fakeBackend records writes and optionally fails them.
type fakeBackend struct {
	name   string
	err    error
	writes int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Write(_ context.Context, _ *models.Reflection) error {
	f.writes++
	return f.err
}

func (f *fakeBackend) Close() error { return nil }

func TestMultiWriteBestEffort(t *testing.T) {
	ok := &fakeBackend{name: "ok"}
	bad := &fakeBackend{name: "bad", err: errors.New("disk full")}
	multi := NewMulti(bad, ok)

	// One successful backend is enough
	err := multi.Write(context.Background(), testReflection())
	assert.NoError(t, err)
	assert.Equal(t, 1, ok.writes)
	assert.Equal(t, 1, bad.writes)
}

func TestMultiWriteAllFail(t *testing.T) {
	a := &fakeBackend{name: "a", err: errors.New("boom")}
	b := &fakeBackend{name: "b", err: errors.New("bang")}
	multi := NewMulti(a, b)

	err := multi.Write(context.Background(), testReflection())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all storage backends failed")
}

func TestOpenFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		StorageBackends: []string{"jsonl", "sqlite"},
		JSONLPath:       filepath.Join(dir, "r.jsonl"),
		DBPath:          filepath.Join(dir, "r.db"),
		MaxConns:        2,
	}

	multi, err := Open(cfg)
	require.NoError(t, err)
	defer multi.Close()

	require.Len(t, multi.Backends(), 2)
	assert.Equal(t, "jsonl", multi.Backends()[0].Name())
	assert.Equal(t, "sqlite", multi.Backends()[1].Name())

	r := testReflection()
	require.NoError(t, multi.Write(context.Background(), r))

	recent, err := multi.ReadRecent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, r.ID, recent[0].ID)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(&config.Config{StorageBackends: []string{"cloud"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestOpenNoBackends(t *testing.T) {
	_, err := Open(&config.Config{})
	assert.Error(t, err)
}
