package snapshot

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 16384, 1 << 40, ^uint64(0)}
	for _, v := range cases {
		buf := appendVarint(nil, v)
		got, n, ok := readVarint(buf)
		if !ok {
			t.Fatalf("readVarint(%d): not ok", v)
		}
		if n != len(buf) {
			t.Fatalf("readVarint(%d): consumed %d, want %d", v, n, len(buf))
		}
		if got != v {
			t.Fatalf("readVarint round trip: got %d, want %d", got, v)
		}
	}
}

func TestReadVarintTruncatedIsNotOk(t *testing.T) {
	buf := appendVarint(nil, 300) // needs 2 bytes, high bit set on first
	_, _, ok := readVarint(buf[:1])
	if ok {
		t.Fatal("expected not ok for truncated varint")
	}
}

func TestReinterpretSignedRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 42, -42, 9223372036854775807, -9223372036854775808}
	for _, v := range cases {
		got := reinterpretSigned(reinterpretUnsigned(v))
		if got != v {
			t.Fatalf("reinterpret round trip: got %d, want %d", got, v)
		}
	}
}
