// Package fs provides filesystem abstractions used by the snapshot writer,
// the append log, and the log compactor: an [FS] interface wrapping the
// handful of [os] operations those components need, plus an atomic writer
// and an flock-based [Locker] built on top of it.
//
// Example usage:
//
//	real := fs.NewReal()
//	f, err := real.Open("litekv.conf")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
package fs

import (
	"io"
	"os"
)

// File represents an open file descriptor.
//
// This interface is satisfied by [os.File] and can be used with all
// standard library functions that accept [io.Reader], [io.Writer],
// [io.Seeker], or [io.Closer].
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the file descriptor, used for flock in [Locker].
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file.
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk.
	Sync() error

	// Chmod changes the file's mode, used by [AtomicWriter] to apply the
	// requested permission regardless of umask.
	Chmod(mode os.FileMode) error
}

// FS defines the filesystem operations litekv's persistence layer needs.
// Production code uses [Real]; tests can substitute a fake to exercise
// error paths (disk full, permission denied) without touching a real disk.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions. See
	// [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// ReadDir reads a directory and returns its entries, sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. Returns [os.ErrNotExist] if path is absent.
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Rename moves/renames a file, atomic on the same filesystem.
	Rename(oldpath, newpath string) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
