package ttl_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/litekv/litekv/internal/ttl"
)

func TestSetGetCancel(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	s := ttl.NewScheduler(func([]byte) { fired.Add(1) }, func() int64 { return 0 })

	s.SetAt([]byte("k"), 1000)
	at, ok := s.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, int64(1000), at)

	require.True(t, s.Cancel([]byte("k")))
	_, ok = s.Get([]byte("k"))
	require.False(t, ok)
	require.False(t, s.Cancel([]byte("k")))
}

func TestPollFiresDueEntriesOnly(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var firedKeys []string

	s := ttl.NewScheduler(func(k []byte) {
		mu.Lock()
		firedKeys = append(firedKeys, string(k))
		mu.Unlock()
	}, func() int64 { return 0 })

	s.SetAt([]byte("early"), 100)
	s.SetAt([]byte("late"), 10000)

	s.Poll(100)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"early"}, firedKeys)
	require.Equal(t, 1, s.Len())
}

func TestMsUntilNextFire(t *testing.T) {
	t.Parallel()

	s := ttl.NewScheduler(func([]byte) {}, func() int64 { return 0 })
	require.Equal(t, int64(-1), s.MsUntilNextFire(0))

	s.SetAt([]byte("a"), 500)
	s.SetAt([]byte("b"), 200)
	require.Equal(t, int64(200), s.MsUntilNextFire(0))
}

func TestStartStopFiresAsync(t *testing.T) {
	t.Parallel()

	fired := make(chan string, 1)
	now := atomic.Int64{}
	now.Store(0)

	s := ttl.NewScheduler(func(k []byte) { fired <- string(k) }, func() int64 { return now.Load() })
	s.Start()
	defer s.Stop()

	s.SetAt([]byte("x"), 10)
	now.Store(1000)

	select {
	case k := <-fired:
		require.Equal(t, "x", k)
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}
