// Package dispatch implements the command dispatcher (C8): it maps verbs to
// handlers, validates arity, resolves values against the keyspace, and
// produces reply frames. It is the seam where C5 (keyspace), C6 (TTL), C7
// (eviction) and C9 (append log) meet.
package dispatch

import (
	"errors"
	"time"

	"github.com/litekv/litekv/internal/eviction"
	"github.com/litekv/litekv/internal/keyspace"
	"github.com/litekv/litekv/internal/kverr"
	"github.com/litekv/litekv/internal/memstat"
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/resp"
	"github.com/litekv/litekv/internal/ttl"
)

// Appender is the narrow seam into the append-only log (C9): the dispatcher
// never manages buffers or flushing itself, it just hands finished command
// records to whatever Appender the server wired in.
type Appender interface {
	Append(record []byte) error
}

// noopAppender discards records; used during log replay, where records must
// not be re-appended to the very log they came from.
type noopAppender struct{}

func (noopAppender) Append([]byte) error { return nil }

// NoopAppender is the Appender used when write_to_log = false (replay).
var NoopAppender Appender = noopAppender{}

// Config bounds the eviction trigger: once the memory sampler reports more
// than MaxMemBytes*TriggerRatio resident bytes, EvictIfUnderPressure asks
// the eviction engine to reclaim EvictBatch keys.
type Config struct {
	MaxMemBytes  int64
	TriggerRatio float64
	EvictBatch   int
}

// DefaultConfig matches spec.md's suggested defaults: no memory limit
// (MaxMemBytes == 0 disables the check), since §6 only requires the server
// to consume whatever limit the config file supplies.
func DefaultConfig() Config {
	return Config{MaxMemBytes: 0, TriggerRatio: 0.9, EvictBatch: 20}
}

// Dispatcher is the command dispatcher. It is safe for concurrent use: all
// shared state (keyspace, TTL table, pool) does its own locking.
type Dispatcher struct {
	ks     *keyspace.Keyspace
	ttl    *ttl.Scheduler
	evict  *eviction.Engine
	mem    *memstat.Sampler
	pubsub *pubsub.Registry
	log    Appender
	nowMs  func() int64
	cfg    Config

	startedAt time.Time
}

// New wires a Dispatcher around an already-constructed keyspace, TTL
// scheduler and eviction engine. The scheduler's fire callback is supplied
// by the caller when it builds ttlSched and is expected to delete the key
// from ks; see NewWired for the common case.
func New(ks *keyspace.Keyspace, ttlSched *ttl.Scheduler, evictEngine *eviction.Engine, mem *memstat.Sampler, reg *pubsub.Registry, log Appender, nowMs func() int64, cfg Config) *Dispatcher {
	return &Dispatcher{
		ks:        ks,
		ttl:       ttlSched,
		evict:     evictEngine,
		mem:       mem,
		pubsub:    reg,
		log:       log,
		nowMs:     nowMs,
		cfg:       cfg,
		startedAt: time.Now(),
	}
}

// NewWired builds a fully wired Dispatcher: a fresh keyspace, a TTL
// scheduler whose fire callback deletes from that keyspace, an eviction
// engine over it, and a memory sampler, all driven by nowMs. Start must be
// called once construction (and any log replay) is complete.
func NewWired(nowMs func() int64, policy eviction.Policy, seed int64, reg *pubsub.Registry, log Appender, cfg Config) *Dispatcher {
	ks := keyspace.New()
	sched := ttl.NewScheduler(func(key []byte) { ks.Delete(key) }, nowMs)
	evictEngine := eviction.New(ks, policy, seed)
	mem := memstat.NewSampler()

	return New(ks, sched, evictEngine, mem, reg, log, nowMs, cfg)
}

// Start launches the TTL scheduler's and memory sampler's background
// goroutines. Call once, after any log replay has populated the keyspace.
func (d *Dispatcher) Start() {
	d.ttl.Start()
	d.mem.Start()
}

// Stop releases the background goroutines started by Start.
func (d *Dispatcher) Stop() {
	d.ttl.Stop()
	d.mem.Stop()
}

// Keyspace exposes the underlying keyspace for snapshot save/load.
func (d *Dispatcher) Keyspace() *keyspace.Keyspace { return d.ks }

// TTL exposes the underlying TTL scheduler for snapshot save/load (each
// snapshot record carries its key's fire time) and for log compaction.
func (d *Dispatcher) TTL() *ttl.Scheduler { return d.ttl }

// Dispatch executes one already-parsed request and returns its reply frame.
// fromLog is true during log replay: mutating verbs then skip re-appending
// to the log (write_to_log = false, per spec.md §4.9). sess identifies the
// calling session for publish/subscribe/unsubscribe; callers that never use
// those verbs (replay, the compactor) can pass 0.
func (d *Dispatcher) Dispatch(sess pubsub.SessionID, args [][]byte, fromLog bool) resp.Reply {
	if len(args) == 0 {
		return errReply(kverr.ErrSyntax, "empty command")
	}

	verb := normalizeVerb(args[0])
	spec, ok := verbTable[verb]
	if !ok {
		return errReply(kverr.ErrUnknownCommand, "unknown command '"+string(args[0])+"'")
	}

	if !spec.arity(len(args)) {
		return errReply(kverr.ErrSyntax, "wrong number of arguments for '"+verb+"'")
	}

	reply, logArgs := spec.handler(d, sess, args)

	if !fromLog && spec.writesLog && logArgs != nil {
		_ = d.log.Append(resp.EncodeRequest(logArgs))
	}

	return reply
}

// EvictIfUnderPressure asks the eviction engine to reclaim keys if the
// memory sampler reports pressure above cfg.TriggerRatio. It appends the
// evicted keys to the log as one synthetic "del k1 k2 ..." record, so replay
// reproduces the eviction, and returns them.
func (d *Dispatcher) EvictIfUnderPressure() [][]byte {
	if d.cfg.MaxMemBytes <= 0 {
		return nil
	}

	threshold := float64(d.cfg.MaxMemBytes) * d.cfg.TriggerRatio
	if float64(d.mem.Bytes()) < threshold {
		return nil
	}

	deleted := d.evict.Evict(d.cfg.EvictBatch)
	if len(deleted) == 0 {
		return nil
	}

	logArgs := make([][]byte, 0, len(deleted)+1)
	logArgs = append(logArgs, []byte("del"))
	logArgs = append(logArgs, deleted...)
	_ = d.log.Append(resp.EncodeRequest(logArgs))

	return deleted
}

func errReply(sentinel error, msg string) resp.Reply {
	return resp.Error(kindFor(sentinel), msg)
}

// kindFor maps a kverr sentinel to its wire-visible error token. spec.md §7
// only gives WRONGTYPE its own prefix; every other kind replies as the
// generic ERROR.
func kindFor(err error) string {
	if errors.Is(err, kverr.ErrWrongType) {
		return "WRONGTYPE"
	}
	return "ERROR"
}

func normalizeVerb(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
