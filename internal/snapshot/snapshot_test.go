package snapshot_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/litekv/litekv/internal/fs"
	"github.com/litekv/litekv/internal/keyspace"
	"github.com/litekv/litekv/internal/snapshot"
	"github.com/litekv/litekv/internal/ttl"
	"github.com/litekv/litekv/internal/value"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.aof")

	ks := keyspace.New()
	sched := ttl.NewScheduler(func(key []byte) { ks.Delete(key) }, func() int64 { return 1000 })

	ks.Mutate([]byte("n"), 1000, func(*value.Value) (*value.Value, bool) { return value.NewInt(42), false })
	ks.Mutate([]byte("s"), 1000, func(*value.Value) (*value.Value, bool) { return value.NewStr([]byte("hi")), false })
	ks.Mutate([]byte("l"), 1000, func(*value.Value) (*value.Value, bool) {
		v := value.NewList()
		v.List.PushRight([]byte("x"))
		v.List.PushRight([]byte("y"))
		return v, false
	})
	sched.SetAt([]byte("n"), 999999999)

	real := fs.NewReal()
	writer := fs.NewAtomicWriter(real)
	require.NoError(t, snapshot.Save(writer, path, ks, sched))

	loadedKs := keyspace.New()
	loadedSched := ttl.NewScheduler(func(key []byte) { loadedKs.Delete(key) }, func() int64 { return 1000 })

	loaded, err := snapshot.Load(real, path, loadedKs, loadedSched, 1000)
	require.NoError(t, err)
	require.Equal(t, 3, loaded)
	require.Equal(t, ks.Len(), loadedKs.Len())

	tag, ok := loadedKs.Type([]byte("n"))
	require.True(t, ok)
	require.Equal(t, value.TagInt, tag)

	fireAt, ok := loadedSched.Get([]byte("n"))
	require.True(t, ok)
	require.Equal(t, int64(999999999), fireAt)

	_, ok = loadedSched.Get([]byte("s"))
	require.False(t, ok)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.aof")
	real := fs.NewReal()
	writer := fs.NewAtomicWriter(real)
	require.NoError(t, writer.WriteFileAtomic(path, []byte("NOTASNAPSHOTHEADERBYTES!"), 0o644))

	ks := keyspace.New()
	sched := ttl.NewScheduler(func([]byte) {}, func() int64 { return 0 })
	_, err := snapshot.Load(real, path, ks, sched, 0)
	require.Error(t, err)
}

func TestLoadStopsAtTruncatedTailAndReturnsPartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.aof")

	ks := keyspace.New()
	sched := ttl.NewScheduler(func(key []byte) { ks.Delete(key) }, func() int64 { return 1000 })
	ks.Mutate([]byte("a"), 1000, func(*value.Value) (*value.Value, bool) { return value.NewInt(1), false })
	ks.Mutate([]byte("b"), 1000, func(*value.Value) (*value.Value, bool) { return value.NewInt(2), false })

	real := fs.NewReal()
	writer := fs.NewAtomicWriter(real)
	require.NoError(t, snapshot.Save(writer, path, ks, sched))

	data, err := real.ReadFile(path)
	require.NoError(t, err)
	truncated := data[:len(data)-3] // cut into the last record
	require.NoError(t, writer.WriteFileAtomic(path, truncated, 0o644))

	loadedKs := keyspace.New()
	loadedSched := ttl.NewScheduler(func(key []byte) { loadedKs.Delete(key) }, func() int64 { return 1000 })
	loaded, err := snapshot.Load(real, path, loadedKs, loadedSched, 1000)

	require.ErrorIs(t, err, snapshot.ErrTruncatedSnapshot)
	require.Equal(t, 1, loaded)
}
