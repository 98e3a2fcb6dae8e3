package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/litekv/litekv/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.conf"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadParsesKeyValueLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "litekv.conf")
	contents := "# comment line\n" +
		"ip 0.0.0.0\n" +
		"port 6380\n" +
		"dumpfile snapshot.aof\n" +
		"dump-cachesize 4096\n" +
		"lru true\n" +
		"\n" +
		"max_mem_bytes 1048576\n" +
		"trigger_ratio 0.8\n" +
		"evict_batch 50\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.IP)
	require.Equal(t, 6380, cfg.Port)
	require.Equal(t, "snapshot.aof", cfg.Dumpfile)
	require.Equal(t, 4096, cfg.DumpCacheSize)
	require.True(t, cfg.LRU)
	require.Equal(t, int64(1048576), cfg.MaxMemBytes)
	require.Equal(t, 0.8, cfg.TriggerRatio)
	require.Equal(t, 50, cfg.EvictBatch)
}

func TestLoadAcceptsEqualsForm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "litekv.conf")
	require.NoError(t, os.WriteFile(path, []byte("port = 7000\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 7000, cfg.Port)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "litekv.conf")
	require.NoError(t, os.WriteFile(path, []byte("bogus-key value\n"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "litekv.conf")
	require.NoError(t, os.WriteFile(path, []byte("justoneword\n"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadJSONParsesHujson(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "litekv.jsonc")
	contents := `{
		// trailing comma and comments allowed
		"ip": "10.0.0.1",
		"port": 9000,
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.LoadJSON(path)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", cfg.IP)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, config.Default().Dumpfile, cfg.Dumpfile)
}

func TestLoadJSONMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadJSON(filepath.Join(t.TempDir(), "nope.jsonc"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}
