package walog_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/litekv/litekv/internal/fs"
	"github.com/litekv/litekv/internal/walog"
)

func openLogFile(t *testing.T, dir string) (fs.File, string) {
	t.Helper()
	real := fs.NewReal()
	path := filepath.Join(dir, "litekv.log")
	f, err := real.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
	require.NoError(t, err)
	return f, path
}

func TestAppendBelowCapacityStaysBufferedUntilFlush(t *testing.T) {
	dir := t.TempDir()
	f, path := openLogFile(t, dir)
	defer f.Close()

	l := walog.New(f, 4096)
	require.NoError(t, l.Append([]byte("*1\r\n$3\r\nfoo\r\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, data, "record should still be buffered, not yet on disk")

	require.NoError(t, l.Flush())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "*1\r\n$3\r\nfoo\r\n", string(data))
}

func TestAppendSwapsAndFlushesOnceCapacityReached(t *testing.T) {
	dir := t.TempDir()
	f, path := openLogFile(t, dir)
	defer f.Close()

	l := walog.New(f, 8)
	l.Start()
	defer l.Stop()

	require.NoError(t, l.Append([]byte("0123456789")))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == "0123456789"
	}, time.Second, 5*time.Millisecond)
}

func TestStopFlushesBothBuffers(t *testing.T) {
	dir := t.TempDir()
	f, path := openLogFile(t, dir)

	l := walog.New(f, 4096)
	l.Start()

	require.NoError(t, l.Append([]byte("a")))
	require.NoError(t, l.Append([]byte("b")))
	require.NoError(t, l.Stop())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "ab", string(data))
}

func TestSetAutoFlushDisablesSwapOnFull(t *testing.T) {
	dir := t.TempDir()
	f, path := openLogFile(t, dir)
	defer f.Close()

	l := walog.New(f, 4)
	l.SetAutoFlush(false)

	require.NoError(t, l.Append([]byte("0123456789")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, data)

	require.NoError(t, l.Flush())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(data))
}

func TestFlushReportsWriteFailure(t *testing.T) {
	dir := t.TempDir()
	f, _ := openLogFile(t, dir)
	l := walog.New(f, 4096)

	require.NoError(t, f.Close())
	require.NoError(t, l.Append([]byte("x")))
	require.Error(t, l.Flush())
}
