package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "session.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.Set(ctx, "user", []byte(`{"token":"a"}`)))
	require.NoError(t, s.Set(ctx, "user", []byte(`{"token":"b"}`)))

	got, err := s.Get(ctx, "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"b"}`, string(got))
}

func TestSQLiteStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.Set(ctx, "user", []byte("x")))
	require.NoError(t, s.Delete(ctx, "user"))
	require.NoError(t, s.Delete(ctx, "user"))

	_, err := s.Get(ctx, "user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	require.NoError(t, s.Set(ctx, "user", []byte("persisted")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}
