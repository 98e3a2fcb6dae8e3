// Package config loads litekv's server configuration: a flat `key value`
// file per spec.md §6, with an alternate hujson (JSON-with-comments) loader
// for callers that prefer structured config. CLI-flag overrides are applied
// by cmd/litekv-server on top of the loaded Config.
package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds every server-tunable spec.md §6 names.
type Config struct {
	IP            string  `json:"ip"`
	Port          int     `json:"port"`
	Dumpfile      string  `json:"dumpfile"`
	DumpCacheSize int     `json:"dump-cachesize"`
	MaxMemBytes   int64   `json:"max_mem_bytes"`
	TriggerRatio  float64 `json:"trigger_ratio"`
	EvictBatch    int     `json:"evict_batch"`
	LRU           bool    `json:"lru"`
}

// Default returns spec.md §6's documented defaults.
func Default() Config {
	return Config{
		IP:            "127.0.0.1",
		Port:          9527,
		Dumpfile:      "dump.aof",
		DumpCacheSize: 1024,
		MaxMemBytes:   0,
		TriggerRatio:  0.9,
		EvictBatch:    20,
		LRU:           false,
	}
}

var errInvalidLine = errors.New("config: invalid line")

// Load reads the flat `key value` (or `key = value`) config file at path,
// one setting per line, case-insensitive keys, `#` starting a comment.
// Missing path is not an error: Load returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			return Config{}, fmt.Errorf("%w at line %d: %q", errInvalidLine, lineNo, line)
		}

		if err := applySetting(&cfg, strings.ToLower(key), value); err != nil {
			return Config{}, fmt.Errorf("config: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	return cfg, nil
}

// splitKeyValue accepts both "key value" and "key = value" forms.
func splitKeyValue(line string) (key, value string, ok bool) {
	if k, v, found := strings.Cut(line, "="); found {
		return strings.TrimSpace(k), strings.TrimSpace(v), true
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], strings.Join(fields[1:], " "), true
}

func applySetting(cfg *Config, key, value string) error {
	switch key {
	case "ip":
		cfg.IP = value
	case "port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = n
	case "dumpfile":
		cfg.Dumpfile = value
	case "dump-cachesize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("dump-cachesize: %w", err)
		}
		cfg.DumpCacheSize = n
	case "max_mem_bytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("max_mem_bytes: %w", err)
		}
		cfg.MaxMemBytes = n
	case "trigger_ratio":
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("trigger_ratio: %w", err)
		}
		cfg.TriggerRatio = n
	case "evict_batch":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("evict_batch: %w", err)
		}
		cfg.EvictBatch = n
	case "lru":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("lru: %w", err)
		}
		cfg.LRU = b
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

// LoadJSON reads a hujson (JSON-with-comments) config file, for callers
// that prefer structured config over the flat key/value format Load reads.
// None of litekv's binaries call it; litekv-server reads its file with Load.
func LoadJSON(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid JSONC in %q: %w", path, err)
	}

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid JSON in %q: %w", path, err)
	}

	return cfg, nil
}
