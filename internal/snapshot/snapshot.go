// Package snapshot implements the compact binary snapshot codec (C10):
// varint/fixed-width record encoding, a magic+version file header, an
// atomic save path, and an mmap-based load path that tolerates a truncated
// tail by returning the partial result alongside ErrTruncatedSnapshot.
package snapshot

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/litekv/litekv/internal/fs"
	"github.com/litekv/litekv/internal/keyspace"
	"github.com/litekv/litekv/internal/ttl"
	"github.com/litekv/litekv/internal/value"
)

// ErrTruncatedSnapshot is returned by Load alongside a partial result when the file
// ends mid-record (an invalid start/end sentinel or a length running past
// EOF). Per spec.md §4.10 this is a recoverable condition, not a hard
// failure: the caller decides whether a partial load is acceptable.
var ErrTruncatedSnapshot = errors.New("snapshot: truncated file, partial load")

// Save walks ks and ttlSched and writes one binary snapshot to path. The
// write is atomic: w's temp-file-then-rename contract means a crash
// mid-write never leaves a corrupt file at path.
func Save(w fs.AtomicFileWriter, path string, ks *keyspace.Keyspace, ttlSched *ttl.Scheduler) error {
	var records []byte
	var count uint64

	ks.Each(func(key []byte, v *value.Value) {
		fireAtMs, hasExpire := ttlSched.Get(key)
		records = encodeRecord(records, key, v, hasExpire, fireAtMs)
		count++
	})

	out := make([]byte, 0, headerSize+len(records))
	out = append(out, encodeHeader(count)...)
	out = append(out, records...)

	if err := w.WriteFileAtomic(path, out, 0o644); err != nil {
		return fmt.Errorf("snapshot: save %q: %w", path, err)
	}
	return nil
}

// Load memory-maps path read-only, validates the header, and installs every
// record it can parse into ks (and ttlSched, for records carrying a TTL).
// loaded is the number of records successfully installed. If the file ends
// mid-record, Load returns loaded and a non-nil error wrapping ErrTruncatedSnapshot
// rather than discarding the partial state.
func Load(fsys fs.FS, path string, ks *keyspace.Keyspace, ttlSched *ttl.Scheduler, nowMs int64) (loaded int, err error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, fmt.Errorf("snapshot: open %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("snapshot: stat %q: %w", path, err)
	}
	size := info.Size()
	if size < headerSize {
		return 0, fmt.Errorf("snapshot: %q smaller than header: %w", path, ErrTruncatedSnapshot)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return 0, fmt.Errorf("snapshot: mmap %q: %w", path, err)
	}
	defer func() {
		if uerr := unix.Munmap(data); uerr != nil {
			slog.Warn("snapshot: munmap failed", "path", path, "error", uerr)
		}
	}()

	wantCount, err := decodeHeader(data)
	if err != nil {
		return 0, fmt.Errorf("snapshot: %q: %w", path, err)
	}

	body := data[headerSize:]
	for i := uint64(0); i < wantCount; i++ {
		rec, n, err := decodeRecord(body)
		if err != nil {
			slog.Warn("snapshot: stopping at corrupt record", "path", path, "records_loaded", loaded, "error", err)
			return loaded, fmt.Errorf("snapshot: %q: %w", path, ErrTruncatedSnapshot)
		}
		body = body[n:]

		ks.Mutate(rec.key, nowMs, func(*value.Value) (*value.Value, bool) {
			return rec.value, false
		})
		if rec.hasExpire {
			ttlSched.SetAt(rec.key, rec.expireAtMs)
		}
		loaded++
	}

	return loaded, nil
}
