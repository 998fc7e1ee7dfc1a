package storage

import (
	"context"
	"leetfresh/internal/structures"
	"leetfresh/internal/testutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_SetThenGet(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, map[string][]byte{
		"username":    []byte(`"alice"`),
		"lastUpdated": []byte("1700000000000"),
	}))
	require.NoError(t, s.Set(ctx, map[string][]byte{"username": []byte(`"bob"`)}))

	got, err := s.Get(ctx, []string{"username", "lastUpdated", "missing"})
	require.NoError(t, err)
	assert.Equal(t, `"bob"`, string(got["username"]))
	assert.Equal(t, "1700000000000", string(got["lastUpdated"]))
	assert.Len(t, got, 2)
}

func TestSQLiteStore_EmptyKeys(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leetfresh.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, map[string][]byte{"latestTimestamp": []byte("2000")}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, []string{"latestTimestamp"})
	require.NoError(t, err)
	assert.Equal(t, "2000", string(got["latestTimestamp"]))
}

func TestNewStore_SelectsDriver(t *testing.T) {
	dir := t.TempDir()
	logger := &testutil.MockLogger{}

	conf := &structures.Config{Persistence: structures.Persistence{Driver: "file", FilePath: filepath.Join(dir, "a.dat")}}
	st, err := NewStore(conf, &testutil.MockCompressor{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, st)

	conf.Persistence = structures.Persistence{Driver: "sqlite", FilePath: filepath.Join(dir, "a.db")}
	st, err = NewStore(conf, &testutil.MockCompressor{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	require.NoError(t, st.Close())

	conf.Persistence.Driver = "redis"
	_, err = NewStore(conf, &testutil.MockCompressor{}, logger)
	assert.Error(t, err)
}
