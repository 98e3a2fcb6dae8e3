// Package ttl implements the TTL scheduler (C6): a process-wide table
// mapping key to a timer entry that fires a deletion callback at a scheduled
// wall-clock instant.
package ttl

import (
	"sync"
	"time"
)

// Entry is a scheduled timer. The TTL use case always sets RemainingFires to
// 1; periodic timers are modelled for completeness but unused by litekv's
// command set.
type Entry struct {
	FireAtMs       int64
	IntervalMs     int64
	RemainingFires int
}

// Scheduler is the TTL table plus the goroutine that fires due entries.
// The reactor (out of scope for this core) is expected to either drive
// Scheduler.Poll itself on its idle path, or let Scheduler.Start run its own
// ticking goroutine; litekv's server uses the latter.
type Scheduler struct {
	mu    sync.Mutex
	table map[string]*Entry

	onFire func(key []byte)
	nowMs  func() int64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler returns a Scheduler that calls onFire when a key's timer
// fires. nowMs supplies the current wall clock in milliseconds (injectable
// for tests).
func NewScheduler(onFire func(key []byte), nowMs func() int64) *Scheduler {
	return &Scheduler{
		table:  make(map[string]*Entry),
		onFire: onFire,
		nowMs:  nowMs,
		stopCh: make(chan struct{}),
	}
}

// SetAt schedules key to fire at fireAtMs, replacing any existing schedule.
func (s *Scheduler) SetAt(key []byte, fireAtMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[string(key)] = &Entry{FireAtMs: fireAtMs, RemainingFires: 1}
}

// Cancel removes key's schedule, reporting whether one existed.
func (s *Scheduler) Cancel(key []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	if _, ok := s.table[k]; !ok {
		return false
	}
	delete(s.table, k)
	return true
}

// Get returns key's scheduled fire time, if any.
func (s *Scheduler) Get(key []byte) (fireAtMs int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.table[string(key)]
	if !ok {
		return 0, false
	}
	return e.FireAtMs, true
}

// MsUntilNextFire returns the number of milliseconds until the soonest
// scheduled entry fires (0 or negative if one is already due), or -1 if the
// table is empty. This is the interface the spec describes the reactor
// polling on its idle path.
func (s *Scheduler) MsUntilNextFire(nowMs int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	best := int64(-1)
	for _, e := range s.table {
		d := e.FireAtMs - nowMs
		if best == -1 || d < best {
			best = d
		}
	}
	return best
}

// Poll fires every entry due at or before nowMs. The TTL lock is released
// before onFire is invoked, per the spec's locking discipline (TTL lock
// consumes the entry, then Delete takes the bucket lock separately).
func (s *Scheduler) Poll(nowMs int64) {
	for {
		key, ok := s.consumeOneDue(nowMs)
		if !ok {
			return
		}
		s.onFire(key)
	}
}

// consumeOneDue removes and returns one due entry's key, if any, while
// holding the TTL lock only for the duration of the map operation.
func (s *Scheduler) consumeOneDue(nowMs int64) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.table {
		if e.FireAtMs <= nowMs {
			delete(s.table, k)
			return []byte(k), true
		}
	}
	return nil, false
}

// pollInterval bounds how long Start's background loop can sleep with no
// scheduled entries, so a newly-set TTL is never discovered more than this
// long after it becomes due.
const pollInterval = 20 * time.Millisecond

// Start launches the background polling goroutine. Stop must be called to
// release it.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.Poll(s.nowMs())
			}
		}
	}()
}

// Stop signals the background goroutine to exit and waits for it.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// Len returns the number of scheduled entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.table)
}
