// Package memstat samples the process's resident memory, the signal the
// dispatcher compares against max_mem_bytes*trigger_ratio to decide whether
// to ask the eviction engine to run.
package memstat

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// SampleInterval is how often the background sampler refreshes its reading.
const SampleInterval = 100 * time.Millisecond

// Sampler holds the most recently observed resident set size, refreshed by a
// background goroutine so hot command paths never block on a syscall.
type Sampler struct {
	bytes atomic.Int64
	stop  chan struct{}
	done  chan struct{}
}

// NewSampler returns a Sampler with an initial reading already taken.
func NewSampler() *Sampler {
	s := &Sampler{stop: make(chan struct{}), done: make(chan struct{})}
	s.bytes.Store(readRSSBytes())
	return s
}

// Bytes returns the most recent resident-memory estimate.
func (s *Sampler) Bytes() int64 { return s.bytes.Load() }

// Start launches the background sampling goroutine, refreshing every
// SampleInterval.
func (s *Sampler) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(SampleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.bytes.Store(readRSSBytes())
			}
		}
	}()
}

// Stop halts the background goroutine and waits for it to exit.
func (s *Sampler) Stop() {
	close(s.stop)
	<-s.done
}

// readRSSBytes reads VmRSS from /proc/self/status. If that's unavailable
// (non-Linux, permission issues, containerised sandboxes without /proc),
// it falls back to getrusage(2)'s maxrss, which is coarser (peak, not
// current, RSS) but always available on POSIX systems.
func readRSSBytes() int64 {
	if v, ok := readProcStatusVmRSS(); ok {
		return v
	}
	return readRusageMaxRSS()
}

func readProcStatusVmRSS() (int64, bool) {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}

		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}

		return kb * 1024, true
	}

	return 0, false
}

func readRusageMaxRSS() int64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	// On Linux, ru_maxrss is already in kilobytes.
	return ru.Maxrss * 1024
}
