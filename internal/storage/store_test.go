package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "interviewState")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "interviewState", `{"completedRounds":[]}`))
	v, ok, err := s.Get(ctx, "interviewState")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"completedRounds":[]}`, v)

	require.NoError(t, s.Set(ctx, "interviewState", `{"completedRounds":["dsa"]}`))
	v, _, err = s.Get(ctx, "interviewState")
	require.NoError(t, err)
	assert.Equal(t, `{"completedRounds":["dsa"]}`, v)

	require.NoError(t, s.Remove(ctx, "interviewState"))
	_, ok, err = s.Get(ctx, "interviewState")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing twice is fine
	require.NoError(t, s.Remove(ctx, "interviewState"))
	assert.NoError(t, s.HealthCheck(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_KeysWithSeparators(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "session:a/b:interviewState", "x"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, dir, filepath.Dir(filepath.Join(dir, entries[0].Name())))

	v, ok, err := s.Get(ctx, "session:a/b:interviewState")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	got, err := mr.Get(keyPrefix + "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestPrefixed(t *testing.T) {
	base := NewMemoryStore()
	a := Prefixed(base, "session:a:")
	b := Prefixed(base, "session:b:")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "interviewState", "A"))
	require.NoError(t, b.Set(ctx, "interviewState", "B"))

	va, _, _ := a.Get(ctx, "interviewState")
	vb, _, _ := b.Get(ctx, "interviewState")
	assert.Equal(t, "A", va)
	assert.Equal(t, "B", vb)
	assert.Equal(t, 2, base.Len())

	raw, ok, _ := base.Get(ctx, "session:a:interviewState")
	assert.True(t, ok)
	assert.Equal(t, "A", raw)

	require.NoError(t, a.Remove(ctx, "interviewState"))
	assert.Equal(t, 1, base.Len())

	// closing a view leaves the base usable
	require.NoError(t, a.Close())
	require.NoError(t, base.Set(ctx, "x", "y"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Backend: BackendFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_kv_store.sql"}, names)
}
