// Package keyspace implements the sharded keyspace (C5): a fixed array of
// independently-locked buckets mapping key to value.Value, plus the key pool
// used by the eviction engine for sampling.
package keyspace

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/litekv/litekv/internal/bytestr"
	"github.com/litekv/litekv/internal/value"
)

// NBuckets is the fixed bucket count from the spec.
const NBuckets = 512

// bucket owns an independent mutex and key->value map. Lock order is always
// bucket before keyspace (see Keyspace.poolMu).
type bucket struct {
	mu sync.Mutex
	m  map[string]*value.Value
}

// Keyspace is the sharded keyspace.
type Keyspace struct {
	buckets [NBuckets]*bucket

	// poolMu guards pool, taken only by eviction and by snapshot/overview.
	// Ordinary handlers append/remove pool entries while already holding
	// their bucket lock (lock order: bucket before keyspace).
	poolMu sync.Mutex
	pool   []string
	// poolIndex speeds up membership checks but NOT removal: Delete still
	// performs the O(n) linear scan/shift the spec calls out as a known hot
	// spot (§9); this map only avoids duplicate inserts.
	poolIndex map[string]struct{}
}

// New returns an empty Keyspace.
func New() *Keyspace {
	ks := &Keyspace{pool: nil, poolIndex: make(map[string]struct{})}
	for i := range ks.buckets {
		ks.buckets[i] = &bucket{m: make(map[string]*value.Value)}
	}
	return ks
}

func bucketIndex(key []byte) int {
	return int(bytestr.Hash(key) % NBuckets)
}

func (ks *Keyspace) bucketFor(key []byte) *bucket {
	return ks.buckets[bucketIndex(key)]
}

func (ks *Keyspace) lockBucket(key []byte) (*bucket, func()) {
	b := ks.bucketFor(key)
	b.mu.Lock()
	return b, b.mu.Unlock
}

func (ks *Keyspace) poolAdd(key string) {
	ks.poolMu.Lock()
	defer ks.poolMu.Unlock()

	if _, ok := ks.poolIndex[key]; ok {
		return
	}
	ks.poolIndex[key] = struct{}{}
	ks.pool = append(ks.pool, key)
}

// poolRemove performs the spec's acknowledged O(n) linear scan.
func (ks *Keyspace) poolRemove(key string) {
	ks.poolMu.Lock()
	defer ks.poolMu.Unlock()

	if _, ok := ks.poolIndex[key]; !ok {
		return
	}
	delete(ks.poolIndex, key)

	for i, k := range ks.pool {
		if k == key {
			ks.pool = append(ks.pool[:i], ks.pool[i+1:]...)
			return
		}
	}
}

// View looks up key and calls fn with its current value; fn is not called if
// the key is absent.
// existed reports whether the key was present. If it was, its last-visit
// timestamp is updated to nowMs, since the spec updates it on every read.
func (ks *Keyspace) View(key []byte, nowMs int64, fn func(v *value.Value)) (existed bool) {
	b, unlock := ks.lockBucket(key)
	defer unlock()

	v, ok := b.m[string(key)]
	if !ok {
		return false
	}

	fn(v)
	v.Touch(nowMs)

	return true
}

// Mutate resolves key, invokes fn with the existing value (nil if absent),
// and applies the result:
//   - fn returns (result, false): result is installed under key (created or
//     replacing/updating the existing value) and its last-visit time is set
//     to nowMs.
//   - fn returns (nil, true): key is deleted, if present.
//   - fn returns (nil, false): no change (e.g. a read-only error path).
//
// The key pool is kept consistent with the bucket map as part of the same
// locked section.
func (ks *Keyspace) Mutate(key []byte, nowMs int64, fn func(existing *value.Value) (result *value.Value, del bool)) (existed bool) {
	b, unlock := ks.lockBucket(key)
	defer unlock()

	keyStr := string(key)
	existing, ok := b.m[keyStr]

	result, del := fn(existing)

	switch {
	case del:
		if ok {
			delete(b.m, keyStr)
			ks.poolRemove(keyStr)
		}
	case result != nil:
		if !ok {
			b.m[keyStr] = result
			ks.poolAdd(keyStr)
		} else {
			b.m[keyStr] = result
		}
		result.Touch(nowMs)
	}

	return ok
}

// Delete removes a single key, reporting whether it was present.
func (ks *Keyspace) Delete(key []byte) bool {
	return ks.Mutate(key, 0, func(existing *value.Value) (*value.Value, bool) {
		return nil, existing != nil
	})
}

// DeleteMany deletes every key in keys, locking buckets in ascending
// bucket-index order (and keys within a bucket in byte order) to preclude
// deadlock against any other multi-key command. Returns the number actually
// deleted.
func (ks *Keyspace) DeleteMany(keys [][]byte) int {
	type item struct {
		bi  int
		key []byte
	}

	items := make([]item, len(keys))
	for i, k := range keys {
		items[i] = item{bi: bucketIndex(k), key: k}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].bi != items[j].bi {
			return items[i].bi < items[j].bi
		}
		return bytestr.Compare(items[i].key, items[j].key) < 0
	})

	// Each key takes and releases its own bucket lock in turn; sorting by
	// (bucket index, key) above fixes the order buckets are touched in, so
	// two concurrent multi-key commands can never lock them in reverse order
	// of each other.
	deleted := 0
	for _, it := range items {
		if ks.Delete(it.key) {
			deleted++
		}
	}

	return deleted
}

// Exists reports whether key is present.
func (ks *Keyspace) Exists(key []byte) bool {
	b, unlock := ks.lockBucket(key)
	defer unlock()
	_, ok := b.m[string(key)]
	return ok
}

// Type returns the tag stored under key, or ok=false if absent.
func (ks *Keyspace) Type(key []byte) (value.Tag, bool) {
	b, unlock := ks.lockBucket(key)
	defer unlock()
	v, ok := b.m[string(key)]
	if !ok {
		return 0, false
	}
	return v.Tag, true
}

// LastVisit returns the last-visit timestamp for key without updating it
// (used by eviction sampling, which must not itself count as a visit).
func (ks *Keyspace) LastVisit(key []byte) (int64, bool) {
	b, unlock := ks.lockBucket(key)
	defer unlock()
	v, ok := b.m[string(key)]
	if !ok {
		return 0, false
	}
	return v.LastVisitMs, true
}

// Len returns the total number of live keys.
func (ks *Keyspace) Len() int {
	ks.poolMu.Lock()
	defer ks.poolMu.Unlock()
	return len(ks.pool)
}

// PoolLen returns the current key pool size (equal to Len(), exposed
// separately since eviction reasons about pool indices explicitly).
func (ks *Keyspace) PoolLen() int { return ks.Len() }

// PoolSampleKeys samples up to n distinct keys uniformly at random from the
// key pool, returning their byte-slice form. Fewer than n keys are returned
// if the pool is smaller than n.
func (ks *Keyspace) PoolSampleKeys(n int, rng *rand.Rand) [][]byte {
	ks.poolMu.Lock()
	pool := ks.pool
	if n > len(pool) {
		n = len(pool)
	}
	// Sample indices against a snapshot of the current length; copy the
	// strings we need before releasing poolMu.
	idxs := rng.Perm(len(pool))[:n]
	out := make([][]byte, 0, n)
	for _, i := range idxs {
		out = append(out, []byte(pool[i]))
	}
	ks.poolMu.Unlock()

	return out
}

// Each calls fn for every live key/value pair, bucket by bucket. Used by
// snapshot save and log compaction. fn must not call back into the
// Keyspace (it is invoked while that bucket's lock is held).
func (ks *Keyspace) Each(fn func(key []byte, v *value.Value)) {
	for _, b := range ks.buckets {
		b.mu.Lock()
		for k, v := range b.m {
			fn([]byte(k), v)
		}
		b.mu.Unlock()
	}
}
