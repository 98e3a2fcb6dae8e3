package deque_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/litekv/litekv/internal/deque"
)

func b(s string) []byte { return []byte(s) }

func TestPushPopBasic(t *testing.T) {
	t.Parallel()

	d := deque.New()
	d.PushRight(b("a"))
	d.PushRight(b("b"))
	d.PushRight(b("c"))
	d.PushRight(b("d"))
	require.Equal(t, 4, d.Len())

	v, ok := d.PopLeft()
	require.True(t, ok)
	require.Equal(t, "a", string(v))
	require.Equal(t, 3, d.Len())
}

func TestRangeClamping(t *testing.T) {
	t.Parallel()

	d := deque.New()
	for _, s := range []string{"b", "c", "d"} {
		d.PushRight(b(s))
	}

	all := d.Range(0, -1)
	require.Equal(t, []string{"b", "c", "d"}, toStrings(all))

	tail := d.Range(-2, -1)
	require.Equal(t, []string{"c", "d"}, toStrings(tail))

	empty := d.Range(5, 10)
	require.Empty(t, empty)

	empty2 := d.Range(2, 1)
	require.Empty(t, empty2)
}

func TestIndexAndSetIndex(t *testing.T) {
	t.Parallel()

	d := deque.New()
	for i := 0; i < 40; i++ {
		d.PushRight([]byte{byte(i)})
	}

	v, ok := d.Index(39)
	require.True(t, ok)
	require.Equal(t, byte(39), v[0])

	v, ok = d.Index(-1)
	require.True(t, ok)
	require.Equal(t, byte(39), v[0])

	_, ok = d.Index(40)
	require.False(t, ok)

	require.True(t, d.SetIndex(0, b("x")))
	v, _ = d.Index(0)
	require.Equal(t, "x", string(v))

	require.False(t, d.SetIndex(1000, b("y")))
}

func TestPushPopManyNodes(t *testing.T) {
	t.Parallel()

	d := deque.New()
	const n = 1000

	for i := 0; i < n; i++ {
		if i%2 == 0 {
			d.PushRight([]byte{byte(i)})
		} else {
			d.PushLeft([]byte{byte(i)})
		}
	}

	require.Equal(t, n, d.Len())

	count := 0
	for {
		if _, ok := d.PopLeft(); !ok {
			break
		}
		count++
	}
	require.Equal(t, n, count)
	require.Equal(t, 0, d.Len())
}

func TestCompactReleasesSpareNodes(t *testing.T) {
	t.Parallel()

	d := deque.New()
	for i := 0; i < 64; i++ {
		d.PushRight([]byte{byte(i)})
	}
	for i := 0; i < 60; i++ {
		_, _ = d.PopLeft()
	}

	d.Compact()
	require.Equal(t, 4, d.Len())

	// After compaction the deque must still behave correctly.
	d.PushLeft(b("z"))
	v, ok := d.Index(0)
	require.True(t, ok)
	require.Equal(t, "z", string(v))
}

func toStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, v := range bs {
		out[i] = string(v)
	}
	return out
}
