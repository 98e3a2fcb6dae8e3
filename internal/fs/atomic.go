package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ErrAtomicWriteDirSync indicates the parent directory could not be synced
// after rename. When returned, the new file is in place but durability
// across a crash is not guaranteed.
var ErrAtomicWriteDirSync = errors.New("dir sync")

// AtomicFileWriter is the narrow contract snapshot Save and the log
// compactor write through: one whole-file atomic write, permissions
// included. [Real] satisfies it via natefinch/atomic directly; [AtomicWriter]
// satisfies it through the FS interface so tests can substitute a fake
// filesystem.
type AtomicFileWriter interface {
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error
}

// AtomicWriter writes files atomically using temp-file-then-rename. The
// binaries hand it to the snapshot writer (internal/snapshot) and the log
// compactor (internal/walog), so a crash mid-write can never leave a
// half-written snapshot or compacted log at its real path.
type AtomicWriter struct {
	fs FS
}

// NewAtomicWriter creates an AtomicWriter that uses the given filesystem.
func NewAtomicWriter(fs FS) *AtomicWriter {
	if fs == nil {
		panic("fs is nil")
	}
	return &AtomicWriter{fs: fs}
}

// AtomicWriteOptions configures Write.
type AtomicWriteOptions struct {
	// SyncDir controls whether the parent directory is synced after
	// rename. Default: true.
	SyncDir bool

	// Perm specifies the file permissions, applied via Chmod regardless
	// of umask. Must be non-zero.
	Perm os.FileMode
}

// DefaultOptions returns 0644 permissions with directory sync enabled.
func (*AtomicWriter) DefaultOptions() AtomicWriteOptions {
	return AtomicWriteOptions{SyncDir: true, Perm: 0o644}
}

// WriteWithDefaults writes content atomically using DefaultOptions.
func (w *AtomicWriter) WriteWithDefaults(path string, r io.Reader) error {
	return w.Write(path, r, w.DefaultOptions())
}

// WriteFileAtomic satisfies [AtomicFileWriter] by delegating to Write with
// directory sync enabled.
func (w *AtomicWriter) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return w.Write(path, bytes.NewReader(data), AtomicWriteOptions{SyncDir: true, Perm: perm})
}

var _ AtomicFileWriter = (*AtomicWriter)(nil)

// Write writes data from r to path atomically and durably: it writes to a
// temp file in the same directory, syncs it, renames it over path, then
// syncs the parent directory (if opts.SyncDir is set).
func (w *AtomicWriter) Write(path string, r io.Reader, opts AtomicWriteOptions) error {
	if r == nil {
		panic("reader is nil")
	}
	if path == "" {
		return errors.New("path is empty")
	}
	if opts.Perm == 0 {
		return errors.New("opts.Perm must be non-zero")
	}

	dir, base := filepath.Split(path)
	if base == "" || base == string(os.PathSeparator) || base == "." {
		return fmt.Errorf("path is invalid: %q", path)
	}
	if dir == "" {
		dir = "."
	}
	dir = filepath.Clean(dir)

	tmpFile, tmpPath, err := createAtomicTempFile(w.fs, dir, base, opts.Perm)
	if err != nil {
		return err
	}

	cleanup := func() error {
		closeErr := closeNamed(tmpPath, tmpFile)
		removeErr := removeIfExists(w.fs, tmpPath)
		return errors.Join(closeErr, removeErr)
	}

	if err := tmpFile.Chmod(opts.Perm); err != nil {
		return errors.Join(fmt.Errorf("chmod temp file %q: %w", tmpPath, err), cleanup())
	}

	if err := writeAndSync(tmpFile, tmpPath, r); err != nil {
		return errors.Join(err, cleanup())
	}

	if err := w.fs.Rename(tmpPath, path); err != nil {
		return errors.Join(fmt.Errorf("rename: %w", err), cleanup())
	}

	cleanupErr := cleanup()

	if opts.SyncDir {
		if err := fsyncDir(w.fs, dir); err != nil {
			return errors.Join(err, cleanupErr)
		}
	}

	return nil
}

func writeAndSync(file File, path string, r io.Reader) error {
	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("write temp file %q: %w", path, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync temp file %q: %w", path, err)
	}
	return nil
}

const atomicWriteMaxAttempts = 10000

var atomicWriteCounter atomic.Uint64

func createAtomicTempFile(fsys FS, dir, base string, perm os.FileMode) (File, string, error) {
	for range atomicWriteMaxAttempts {
		seq := atomicWriteCounter.Add(1)
		path := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, seq))

		file, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return file, path, nil
		}
		if os.IsExist(err) {
			continue
		}
		return nil, "", fmt.Errorf("create temp file: %w", err)
	}
	return nil, "", fmt.Errorf("exhausted temp file attempts in %q", dir)
}

func fsyncDir(fsys FS, dirPath string) error {
	dirFd, err := fsys.Open(dirPath)
	if err != nil {
		return errors.Join(ErrAtomicWriteDirSync, fmt.Errorf("open dir %q: %w", dirPath, err))
	}

	syncErr := dirFd.Sync()
	if syncErr == nil {
		return closeNamed(dirPath, dirFd)
	}
	return errors.Join(ErrAtomicWriteDirSync, fmt.Errorf("%q: %w", dirPath, syncErr), closeNamed(dirPath, dirFd))
}

func closeNamed(path string, file File) error {
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %q: %w", path, err)
	}
	return nil
}

func removeIfExists(fsys FS, path string) error {
	if err := fsys.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file %q: %w", path, err)
	}
	return nil
}
