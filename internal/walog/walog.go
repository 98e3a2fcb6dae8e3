// Package walog implements the append-only log (C9): a double-buffered
// in-memory writer that acknowledges commands before their record reaches
// disk, a background flusher, log replay, and offline compaction.
package walog

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/litekv/litekv/internal/fs"
)

// Log is the append-only command log. Append is safe for concurrent use;
// Start/Stop manage the background flusher goroutine.
//
// Two in-memory buffers take the place of writing every record straight to
// disk: one is "active" and receives new records, the other is "draining"
// and is owned by the background flusher. Append swaps them once active
// fills, signalling the flusher over a buffered channel rather than a
// sync.Cond — the same channel-based wake-up zond-juicemud's storage/queue
// package uses in place of a condition variable, for the same reason: it
// composes cleanly with the stop channel in a single select.
type Log struct {
	mu        sync.Mutex
	bufs      [2]*bytes.Buffer
	active    int
	capacity  int
	autoFlush bool

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup

	file     fs.File
	flushErr error
}

// New wraps an already-open, append-mode log file. capacity is the byte
// threshold at which Append swaps buffers and wakes the flusher.
func New(file fs.File, capacity int) *Log {
	return &Log{
		bufs:      [2]*bytes.Buffer{new(bytes.Buffer), new(bytes.Buffer)},
		capacity:  capacity,
		autoFlush: true,
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		file:      file,
	}
}

// SetAutoFlush toggles whether a full active buffer triggers an automatic
// swap+flush. Callers doing a batch of administrative mutations (e.g. an
// eviction round) can disable it for the duration and re-enable it after,
// per spec.md §4.9.
func (l *Log) SetAutoFlush(enabled bool) {
	l.mu.Lock()
	l.autoFlush = enabled
	l.mu.Unlock()
}

// Append appends record to the active buffer. It returns as soon as the
// record is buffered in memory: durability is best-effort, matching an
// "everysec"-style policy, per spec.md §4.9.
func (l *Log) Append(record []byte) error {
	l.mu.Lock()
	l.bufs[l.active].Write(record)
	full := l.autoFlush && l.bufs[l.active].Len() >= l.capacity
	l.mu.Unlock()

	if full {
		l.trySwap()
	}
	return nil
}

// trySwap swaps active and draining if draining has already been emptied by
// the flusher. If the flusher hasn't caught up yet, the active buffer is
// left to grow past capacity rather than blocking writers.
func (l *Log) trySwap() {
	l.mu.Lock()
	drainIdx := 1 - l.active
	if l.bufs[drainIdx].Len() > 0 {
		l.mu.Unlock()
		return
	}
	l.active = drainIdx
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Start launches the background flusher goroutine.
func (l *Log) Start() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-l.wake:
				l.drainInactive()
			case <-l.stop:
				return
			}
		}
	}()
}

// drainInactive writes whatever the non-active buffer holds to disk and
// clears it.
func (l *Log) drainInactive() {
	l.mu.Lock()
	idx := 1 - l.active
	data := append([]byte(nil), l.bufs[idx].Bytes()...)
	l.bufs[idx].Reset()
	l.mu.Unlock()

	if len(data) == 0 {
		return
	}
	if err := l.writeAndSync(data); err != nil {
		l.mu.Lock()
		l.flushErr = err
		l.mu.Unlock()
	}
}

func (l *Log) writeAndSync(data []byte) error {
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("write log record: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	return nil
}

// Stop halts the flusher goroutine and performs one final synchronous flush
// of both buffers, in record order, so a clean shutdown never loses a
// buffered-but-unflushed record.
func (l *Log) Stop() error {
	close(l.stop)
	l.wg.Wait()
	return l.Flush()
}

// Flush synchronously drains both buffers to disk, oldest records first.
// Safe to call after Stop (the flusher is no longer touching the buffers);
// calling it concurrently with a running flusher can race, so callers that
// need a flush while Start is still active should rely on the automatic
// swap-on-full path instead.
func (l *Log) Flush() error {
	l.mu.Lock()
	drainIdx := 1 - l.active
	data := append([]byte(nil), l.bufs[drainIdx].Bytes()...)
	data = append(data, l.bufs[l.active].Bytes()...)
	l.bufs[0].Reset()
	l.bufs[1].Reset()
	l.mu.Unlock()

	if len(data) == 0 {
		return nil
	}
	return l.writeAndSync(data)
}

// Err returns the last error the background flusher encountered, if any.
func (l *Log) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushErr
}
