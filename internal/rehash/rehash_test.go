package rehash_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/litekv/litekv/internal/rehash"
)

func TestMapPutGetRemove(t *testing.T) {
	t.Parallel()

	m := rehash.NewMap(0)

	updated := m.Put([]byte("a"), []byte("1"))
	require.False(t, updated)

	updated = m.Put([]byte("a"), []byte("2"))
	require.True(t, updated)

	v, ok := m.Get([]byte("a"))
	require.True(t, ok)
	require.Equal(t, "2", string(v))

	require.True(t, m.Remove([]byte("a")))
	require.False(t, m.Remove([]byte("a")))

	_, ok = m.Get([]byte("a"))
	require.False(t, ok)
}

func TestSetAddExists(t *testing.T) {
	t.Parallel()

	s := rehash.NewSet(0)

	require.True(t, s.Add([]byte("x")))
	require.False(t, s.Add([]byte("x")))
	require.True(t, s.Contains([]byte("x")))
	require.Equal(t, 1, s.Len())

	require.True(t, s.Remove([]byte("x")))
	require.False(t, s.Contains([]byte("x")))
}

// TestRehashPreservesAllKeys drives enough insertions to force several
// incremental rehashes (low max load factor, small initial table) and checks
// that every key resolves to its last-written value throughout, and that the
// final key set matches exactly what was inserted.
func TestRehashPreservesAllKeys(t *testing.T) {
	t.Parallel()

	m := rehash.NewMap(0.5)

	const n = 2000
	for i := 0; i < n; i++ {
		k := []byte(fmt.Sprintf("key-%d", i))
		v := []byte(fmt.Sprintf("val-%d", i))
		m.Put(k, v)

		// Spot-check a handful of previously written keys on every iteration
		// to exercise lookups while a rehash may be mid-flight.
		for _, check := range []int{0, i / 2, i} {
			k2 := []byte(fmt.Sprintf("key-%d", check))
			v2, ok := m.Get(k2)
			require.True(t, ok, "key-%d missing at iteration %d", check, i)
			require.Equal(t, fmt.Sprintf("val-%d", check), string(v2))
		}
	}

	require.Equal(t, n, m.Len())

	seen := map[string]bool{}
	m.Each(func(field, value []byte) {
		seen[string(field)] = true
		idx := -1
		_, err := fmt.Sscanf(string(field), "key-%d", &idx)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("val-%d", idx), string(value))
	})
	require.Len(t, seen, n)
}

func TestRehashDeleteDuringMigration(t *testing.T) {
	t.Parallel()

	s := rehash.NewSet(0.5)

	const n = 500
	for i := 0; i < n; i++ {
		s.Add([]byte(fmt.Sprintf("m-%d", i)))
	}

	// Remove every other member; this happens while rehashes are ongoing.
	for i := 0; i < n; i += 2 {
		require.True(t, s.Remove([]byte(fmt.Sprintf("m-%d", i))))
	}

	require.Equal(t, n/2, s.Len())

	for i := 0; i < n; i++ {
		want := i%2 == 1
		require.Equal(t, want, s.Contains([]byte(fmt.Sprintf("m-%d", i))), "i=%d", i)
	}
}
