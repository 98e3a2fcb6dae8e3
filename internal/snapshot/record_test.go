package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/litekv/litekv/internal/value"
)

func TestEncodeDecodeRecordInt(t *testing.T) {
	v := value.NewInt(-42)
	buf := encodeRecord(nil, []byte("k"), v, false, 0)

	rec, n, err := decodeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, []byte("k"), rec.key)
	require.False(t, rec.hasExpire)
	require.Equal(t, value.TagInt, rec.value.Tag)
	require.Equal(t, int64(-42), rec.value.Int)
}

func TestEncodeDecodeRecordWithExpire(t *testing.T) {
	v := value.NewStr([]byte("hello"))
	buf := encodeRecord(nil, []byte("k"), v, true, 999999)

	rec, _, err := decodeRecord(buf)
	require.NoError(t, err)
	require.True(t, rec.hasExpire)
	require.Equal(t, int64(999999), rec.expireAtMs)
	require.Equal(t, "hello", rec.value.Str.String())
}

func TestEncodeDecodeRecordList(t *testing.T) {
	v := value.NewList()
	v.List.PushRight([]byte("a"))
	v.List.PushRight([]byte("b"))
	v.List.PushRight([]byte("c"))

	buf := encodeRecord(nil, []byte("mylist"), v, false, 0)
	rec, _, err := decodeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, value.TagList, rec.value.Tag)
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, rec.value.List.Range(0, 2))
}

func TestEncodeDecodeRecordHash(t *testing.T) {
	v := value.NewHash()
	v.Hash.Put([]byte("f1"), []byte("v1"))
	v.Hash.Put([]byte("f2"), []byte("v2"))

	buf := encodeRecord(nil, []byte("h"), v, false, 0)
	rec, _, err := decodeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, 2, rec.value.Hash.Len())
	got, ok := rec.value.Hash.Get([]byte("f1"))
	require.True(t, ok)
	require.Equal(t, []byte("v1"), got)
}

func TestEncodeDecodeRecordSet(t *testing.T) {
	v := value.NewSet()
	v.Set.Add([]byte("x"))
	v.Set.Add([]byte("y"))

	buf := encodeRecord(nil, []byte("s"), v, false, 0)
	rec, _, err := decodeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, 2, rec.value.Set.Len())
	require.True(t, rec.value.Set.Contains([]byte("x")))
}

func TestEncodeDecodeRecordEmptyList(t *testing.T) {
	v := value.NewList()
	buf := encodeRecord(nil, []byte("empty"), v, false, 0)
	rec, n, err := decodeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, 0, rec.value.List.Len())
}

func TestDecodeRecordRejectsBadStartByte(t *testing.T) {
	_, _, err := decodeRecord([]byte{0x00, 0x01, 0x00})
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestDecodeRecordRejectsBadEndByte(t *testing.T) {
	v := value.NewInt(1)
	buf := encodeRecord(nil, []byte("k"), v, false, 0)
	buf[len(buf)-1] = 0x00 // corrupt the end sentinel

	_, _, err := decodeRecord(buf)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestDecodeRecordRejectsTruncatedKey(t *testing.T) {
	v := value.NewInt(1)
	buf := encodeRecord(nil, []byte("longkey"), v, false, 0)
	truncated := buf[:5] // cut off mid key

	_, _, err := decodeRecord(truncated)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestMultipleRecordsConcatenateCleanly(t *testing.T) {
	var buf []byte
	buf = encodeRecord(buf, []byte("a"), value.NewInt(1), false, 0)
	buf = encodeRecord(buf, []byte("b"), value.NewInt(2), false, 0)

	rec1, n1, err := decodeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, []byte("a"), rec1.key)

	rec2, n2, err := decodeRecord(buf[n1:])
	require.NoError(t, err)
	require.Equal(t, []byte("b"), rec2.key)
	require.Equal(t, len(buf), n1+n2)
}
