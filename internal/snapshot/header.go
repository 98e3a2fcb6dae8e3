package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// magic identifies a litekv snapshot file; version is the 4 ASCII digit
// format version, bumped whenever the record layout changes incompatibly.
const (
	magic   = "LITEKV"
	version = "0001"

	// headerSize is len(magic) + len(version) + 8 (u64 LE record count).
	headerSize = 6 + 4 + 8
)

// ErrBadMagic means the file does not start with the expected magic bytes.
var ErrBadMagic = errors.New("snapshot: bad magic")

// ErrUnsupportedVersion means the file's version digits do not match the
// version this build writes and reads.
var ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

func encodeHeader(recordCount uint64) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:6], magic)
	copy(buf[6:10], version)
	binary.LittleEndian.PutUint64(buf[10:18], recordCount)
	return buf
}

func decodeHeader(buf []byte) (recordCount uint64, err error) {
	if len(buf) < headerSize {
		return 0, fmt.Errorf("snapshot: truncated header (%d bytes)", len(buf))
	}
	if string(buf[0:6]) != magic {
		return 0, fmt.Errorf("%w: got %q", ErrBadMagic, buf[0:6])
	}
	if string(buf[6:10]) != version {
		return 0, fmt.Errorf("%w: got %q, want %q", ErrUnsupportedVersion, buf[6:10], version)
	}
	return binary.LittleEndian.Uint64(buf[10:18]), nil
}
