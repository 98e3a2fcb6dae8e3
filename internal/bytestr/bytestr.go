// Package bytestr implements the owned, heap-grown byte buffer used as the
// String value kind and as keys/fields/members throughout litekv.
package bytestr

import (
	"errors"
	"strconv"
)

// Sentinel errors for ParseInt.
var (
	ErrNotAnInteger = errors.New("not an integer")
	ErrOverflow     = errors.New("integer overflow")
)

// growthFactor and minExtra implement the amortised growth contract from the
// spec: append grows capacity to at least (len+add)*1.5 + 1 when needed.
const growthFactor = 3 // applied as (n*3)/2 to stay in integer arithmetic
const minExtra = 1

// Bytes is a growable byte buffer with explicit length/capacity bookkeeping,
// kept distinct from a bare []byte so capacity growth follows the spec's
// contract instead of Go's built-in append heuristics.
type Bytes struct {
	buf []byte // len(buf) == capacity; data lives in buf[:length]
	n   int    // length
}

// New returns an empty Bytes with no backing allocation.
func New() *Bytes { return &Bytes{} }

// FromBytes copies b into a new Bytes value.
func FromBytes(b []byte) *Bytes {
	s := &Bytes{}
	s.Append(b)
	return s
}

// Len returns the number of live bytes.
func (s *Bytes) Len() int { return s.n }

// Cap returns the current backing capacity.
func (s *Bytes) Cap() int { return len(s.buf) }

// Bytes returns the live byte range. The slice is only valid until the next
// mutating call on s; callers that need to retain it must copy.
func (s *Bytes) Bytes() []byte { return s.buf[:s.n] }

// String returns a copy of the live bytes as a string.
func (s *Bytes) String() string { return string(s.buf[:s.n]) }

// grow ensures capacity for at least n more bytes, following the spec's
// (len+add)*1.5+1 amortised growth formula.
func (s *Bytes) grow(add int) {
	need := s.n + add
	if need <= len(s.buf) {
		return
	}

	newCap := (need*growthFactor)/2 + minExtra
	if newCap < need {
		newCap = need
	}

	grown := make([]byte, newCap)
	copy(grown, s.buf[:s.n])
	s.buf = grown
}

// Append appends b to the buffer, growing the backing array if needed.
// Amortised O(1) per byte.
func (s *Bytes) Append(b []byte) {
	if len(b) == 0 {
		return
	}

	s.grow(len(b))
	copy(s.buf[s.n:], b)
	s.n += len(b)
}

// AppendString appends the bytes of str.
func (s *Bytes) AppendString(str string) {
	s.Append([]byte(str))
}

// Reset clears the length to zero, then appends b. The existing allocation
// is kept when it is already large enough.
func (s *Bytes) Reset(b []byte) {
	s.n = 0
	s.Append(b)
}

// Shrink reallocates the backing array to exactly Len()+1, releasing any
// slack capacity accumulated during growth.
func (s *Bytes) Shrink() {
	want := s.n + 1
	if len(s.buf) == want {
		return
	}

	shrunk := make([]byte, want)
	copy(shrunk, s.buf[:s.n])
	s.buf = shrunk
}

// ParseInt returns the value as a signed 64-bit integer only if the entire
// content is a canonical decimal representation (round-trips back to the
// same bytes). "007", "+5", " 5", and "" are all rejected.
func (s *Bytes) ParseInt() (int64, error) {
	return ParseInt(s.buf[:s.n])
}

// ParseInt is the free-function form, used where no Bytes wrapper exists yet.
func ParseInt(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, ErrNotAnInteger
	}

	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, ErrOverflow
		}
		return 0, ErrNotAnInteger
	}

	// Canonical round-trip check: reject leading zeros, "+5", stray whitespace.
	if strconv.FormatInt(v, 10) != string(b) {
		return 0, ErrNotAnInteger
	}

	return v, nil
}

// FormatInt renders v as its canonical decimal Bytes representation.
func FormatInt(v int64) *Bytes {
	return FromBytes([]byte(strconv.FormatInt(v, 10)))
}

// hashTime33Seed is the traditional Bernstein djb2 seed used by the "Time33"
// hash variant: h = h*33 + c, starting from 5381.
const hashTime33Seed = 5381

// Hash computes the Bernstein-style multiplicative ("Time33") hash of b.
func Hash(b []byte) uint64 {
	h := uint64(hashTime33Seed)
	for _, c := range b {
		h = h*33 + uint64(c)
	}
	return h
}

// Hash returns the Time33 hash of the live content.
func (s *Bytes) Hash() uint64 { return Hash(s.buf[:s.n]) }

// Equal reports byte-for-byte equality.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Compare returns -1, 0, or 1 using lexicographic byte ordering.
func Compare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
