package dispatch

import (
	"fmt"
	"time"

	"github.com/litekv/litekv/internal/bytestr"
	"github.com/litekv/litekv/internal/kverr"
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/resp"
)

func handleOverview(d *Dispatcher, _ pubsub.SessionID, _ [][]byte) (resp.Reply, [][]byte) {
	uptimeMs := time.Since(d.startedAt).Milliseconds()
	summary := fmt.Sprintf("uptime_ms:%d keys:%d mem_bytes:%d", uptimeMs, d.ks.Len(), d.mem.Bytes())
	return resp.BulkString([]byte(summary)), nil
}

func handleTotal(d *Dispatcher, _ pubsub.SessionID, _ [][]byte) (resp.Reply, [][]byte) {
	return resp.Integer(int64(d.ks.Len())), nil
}

func handlePing(_ *Dispatcher, _ pubsub.SessionID, _ [][]byte) (resp.Reply, [][]byte) {
	return resp.SimpleString("PONG"), nil
}

// handleEvict is the manual administrative counterpart to
// Dispatcher.EvictIfUnderPressure: it evicts up to n keys regardless of
// current memory pressure.
func handleEvict(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	n, err := bytestr.ParseInt(args[1])
	if err != nil || n < 0 {
		return errReply(kverr.ErrNotAnInteger, "evict count must be a non-negative integer"), nil
	}

	deleted := d.evict.Evict(int(n))
	if len(deleted) == 0 {
		return resp.Integer(0), nil
	}

	logArgs := make([][]byte, 0, len(deleted)+1)
	logArgs = append(logArgs, []byte("del"))
	logArgs = append(logArgs, deleted...)
	return resp.Integer(int64(len(deleted))), logArgs
}

func handleDel(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	deleted := d.ks.DeleteMany(args[1:])
	if deleted == 0 {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(deleted)), args
}

func handleExists(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	if d.ks.Exists(args[1]) {
		return resp.Integer(1), nil
	}
	return resp.Integer(0), nil
}

func handleType(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	tag, ok := d.ks.Type(args[1])
	if !ok {
		return resp.SimpleString("none"), nil
	}
	return resp.SimpleString(tag.String()), nil
}

// handleExpire rewrites "expire key seconds" into an equivalent
// "expireat key <now_ms + seconds*1000>" record before delegating, so log
// replay is deterministic against wall-clock (spec.md §4.8). A negative
// seconds only cancels any existing TTL and never deletes the key (spec.md
// §9 Design Notes); that case is logged verbatim instead of rewritten,
// since cancellation is time-independent and replaying the same negative
// "expire" is idempotent regardless of when replay happens.
func handleExpire(d *Dispatcher, sess pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	seconds, err := bytestr.ParseInt(args[2])
	if err != nil {
		return errReply(kverr.ErrNotAnInteger, "expire argument must be an integer"), nil
	}

	if !d.ks.Exists(args[1]) {
		return resp.Integer(0), nil
	}

	if seconds < 0 {
		d.ttl.Cancel(args[1])
		return resp.Integer(1), args
	}

	fireAtMs := d.nowMs() + seconds*1000
	rewritten := [][]byte{[]byte("expireat"), args[1], []byte(bytestr.FormatInt(fireAtMs).String())}
	return handleExpireAt(d, sess, rewritten)
}

func handleExpireAt(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	fireAtMs, err := bytestr.ParseInt(args[2])
	if err != nil {
		return errReply(kverr.ErrNotAnInteger, "expireat argument must be an integer"), nil
	}

	if !d.ks.Exists(args[1]) {
		return resp.Integer(0), nil
	}

	if fireAtMs <= d.nowMs() {
		d.ttl.Cancel(args[1])
		d.ks.Delete(args[1])
		return resp.Integer(1), args
	}

	d.ttl.SetAt(args[1], fireAtMs)
	return resp.Integer(1), args
}

func handleTTL(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	if !d.ks.Exists(args[1]) {
		return resp.Integer(-2), nil
	}

	fireAtMs, ok := d.ttl.Get(args[1])
	if !ok {
		return resp.Integer(-1), nil
	}

	remaining := fireAtMs - d.nowMs()
	if remaining < 0 {
		remaining = 0
	}
	return resp.Integer(remaining), nil
}
