package bytestr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/litekv/litekv/internal/bytestr"
)

func TestAppendAndReset(t *testing.T) {
	t.Parallel()

	s := bytestr.New()
	s.AppendString("hello")
	s.Append([]byte(" world"))
	require.Equal(t, "hello world", s.String())
	require.Equal(t, 11, s.Len())

	s.Reset([]byte("reset"))
	require.Equal(t, "reset", s.String())
	require.Equal(t, 5, s.Len())
}

func TestShrink(t *testing.T) {
	t.Parallel()

	s := bytestr.New()
	s.AppendString("abc")
	before := s.Cap()
	s.Shrink()
	require.LessOrEqual(t, s.Cap(), before)
	require.Equal(t, s.Len()+1, s.Cap())
	require.Equal(t, "abc", s.String())
}

func TestParseIntCanonical(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{"123", 123, nil},
		{"-123", -123, nil},
		{"0", 0, nil},
		{"007", 0, bytestr.ErrNotAnInteger},
		{"+5", 0, bytestr.ErrNotAnInteger},
		{" 5", 0, bytestr.ErrNotAnInteger},
		{"", 0, bytestr.ErrNotAnInteger},
		{"9223372036854775808", 0, bytestr.ErrOverflow},
		{"-9223372036854775809", 0, bytestr.ErrOverflow},
		{"9223372036854775807", 9223372036854775807, nil},
	}

	for _, tc := range cases {
		got, err := bytestr.ParseInt([]byte(tc.in))
		if tc.wantErr != nil {
			require.ErrorIs(t, err, tc.wantErr, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestFormatIntRoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []int64{0, 1, -1, 123456789, -123456789} {
		s := bytestr.FormatInt(v)
		got, err := s.ParseInt()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestHashStable(t *testing.T) {
	t.Parallel()

	require.Equal(t, bytestr.Hash([]byte("abc")), bytestr.Hash([]byte("abc")))
	require.NotEqual(t, bytestr.Hash([]byte("abc")), bytestr.Hash([]byte("abd")))
}

func TestCompareAndEqual(t *testing.T) {
	t.Parallel()

	require.True(t, bytestr.Equal([]byte("abc"), []byte("abc")))
	require.False(t, bytestr.Equal([]byte("abc"), []byte("abd")))

	require.Equal(t, -1, bytestr.Compare([]byte("abc"), []byte("abd")))
	require.Equal(t, 1, bytestr.Compare([]byte("b"), []byte("a")))
	require.Equal(t, 0, bytestr.Compare([]byte("same"), []byte("same")))
	require.Equal(t, -1, bytestr.Compare([]byte("ab"), []byte("abc")))
}
