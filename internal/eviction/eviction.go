// Package eviction implements the eviction engine (C7): random and
// LRU-approximate sampling eviction over a keyspace's key pool.
package eviction

import (
	"math/rand"
	"time"

	"github.com/litekv/litekv/internal/keyspace"
)

// Policy selects the sampling strategy.
type Policy int

const (
	Random Policy = iota
	LruApprox
)

// lruSampleSize is the number of candidates drawn per round by LruApprox.
const lruSampleSize = 10

// lruRoundBudget bounds the wall-clock time an LruApprox round may spend.
const lruRoundBudget = 25 * time.Millisecond

// keyspaceView is the narrow slice of *keyspace.Keyspace the engine needs;
// declared as an interface so tests can substitute a fake pool.
type keyspaceView interface {
	PoolSampleKeys(n int, rng *rand.Rand) [][]byte
	LastVisit(key []byte) (int64, bool)
	Delete(key []byte) bool
}

// Engine runs eviction rounds against a keyspace.
type Engine struct {
	ks     keyspaceView
	policy Policy
	rng    *rand.Rand
	clock  func() time.Time
}

// New returns an Engine for ks using the given policy. seed controls the
// sampling RNG (deterministic tests should pass a fixed seed).
func New(ks *keyspace.Keyspace, policy Policy, seed int64) *Engine {
	return &Engine{
		ks:     ks,
		policy: policy,
		rng:    rand.New(rand.NewSource(seed)),
		clock:  time.Now,
	}
}

// Evict removes up to n keys according to the configured policy and returns
// exactly the keys it deleted (for synthesising a "del k1 k2 ..." log
// record). Random never removes more than n; LruApprox also stops early once
// it has spent more than 25ms in the round.
func (e *Engine) Evict(n int) [][]byte {
	if n <= 0 {
		return nil
	}

	switch e.policy {
	case LruApprox:
		return e.evictLRU(n)
	default:
		return e.evictRandom(n)
	}
}

func (e *Engine) evictRandom(n int) [][]byte {
	candidates := e.ks.PoolSampleKeys(n, e.rng)

	deleted := make([][]byte, 0, len(candidates))
	for _, k := range candidates {
		if e.ks.Delete(k) {
			deleted = append(deleted, k)
		}
	}
	return deleted
}

func (e *Engine) evictLRU(n int) [][]byte {
	start := e.clock()
	deleted := make([][]byte, 0, n)

	for len(deleted) < n {
		if e.clock().Sub(start) > lruRoundBudget {
			break
		}

		candidates := e.ks.PoolSampleKeys(lruSampleSize, e.rng)
		if len(candidates) == 0 {
			break
		}

		oldestKey := candidates[0]
		oldestTs, ok := e.ks.LastVisit(oldestKey)
		if !ok {
			oldestTs = int64(^uint64(0) >> 1) // treat vanished key as never-oldest
		}

		for _, c := range candidates[1:] {
			ts, ok := e.ks.LastVisit(c)
			if !ok {
				continue
			}
			if ts < oldestTs {
				oldestKey, oldestTs = c, ts
			}
		}

		if e.ks.Delete(oldestKey) {
			deleted = append(deleted, oldestKey)
		}
	}

	return deleted
}
