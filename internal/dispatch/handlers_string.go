package dispatch

import (
	"github.com/litekv/litekv/internal/bytestr"
	"github.com/litekv/litekv/internal/kverr"
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/resp"
	"github.com/litekv/litekv/internal/value"
)

// handleSet auto-detects integer representability (spec.md §4.8): a
// canonical decimal literal is stored as Int, anything else as Str.
func handleSet(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	key, raw := args[1], args[2]

	var v *value.Value
	if n, err := bytestr.ParseInt(raw); err == nil {
		v = value.NewInt(n)
	} else {
		v = value.NewStr(raw)
	}

	d.ks.Mutate(key, d.nowMs(), func(_ *value.Value) (*value.Value, bool) {
		return v, false
	})

	return resp.SimpleString("OK"), args
}

func handleGet(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var reply resp.Reply
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		switch v.Tag {
		case value.TagInt:
			reply = resp.BulkString(bytestr.FormatInt(v.Int).Bytes())
		case value.TagStr:
			reply = resp.BulkString(v.Str.Bytes())
		default:
			typeErr = kverr.ErrWrongType
		}
	})

	if !existed {
		return resp.Nil(), nil
	}
	if typeErr != nil {
		return errReply(typeErr, "value is not a string"), nil
	}
	return reply, nil
}

func handleIncr(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	return applyDelta(d, args[1], 1, [][]byte{[]byte("incr"), args[1]})
}

func handleDecr(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	return applyDelta(d, args[1], -1, [][]byte{[]byte("decr"), args[1]})
}

// handleIncrBy and handleDecrBy require a non-negative operand; the sign of
// the actual delta applied is fixed by the verb (spec.md §4.8).
func handleIncrBy(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	operand, err := bytestr.ParseInt(args[2])
	if err != nil {
		return errReply(kverr.ErrNotAnInteger, "operand must be an integer"), nil
	}
	if operand < 0 {
		return errReply(kverr.ErrOutOfRange, "operand must be non-negative"), nil
	}
	return applyDelta(d, args[1], operand, args)
}

func handleDecrBy(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	operand, err := bytestr.ParseInt(args[2])
	if err != nil {
		return errReply(kverr.ErrNotAnInteger, "operand must be an integer"), nil
	}
	if operand < 0 {
		return errReply(kverr.ErrOutOfRange, "operand must be non-negative"), nil
	}
	return applyDelta(d, args[1], -operand, args)
}

// applyDelta adds delta to the Int stored at key (treating an absent key as
// 0), returning the resulting reply and, only on success, the log record to
// append. mutated tracks whether Mutate actually installed a new value, so
// a WRONGTYPE/Overflow failure never gets logged.
func applyDelta(d *Dispatcher, key []byte, delta int64, logArgs [][]byte) (resp.Reply, [][]byte) {
	var reply resp.Reply
	mutated := false

	d.ks.Mutate(key, d.nowMs(), func(existing *value.Value) (*value.Value, bool) {
		var cur int64
		if existing != nil {
			if existing.Tag != value.TagInt {
				reply = errReply(kverr.ErrWrongType, "value is not an integer")
				return nil, false
			}
			cur = existing.Int
		}

		sum, overflow := addOverflows(cur, delta)
		if overflow {
			reply = errReply(kverr.ErrOverflow, "increment or decrement would overflow")
			return nil, false
		}

		reply = resp.Integer(sum)
		mutated = true
		return value.NewInt(sum), false
	})

	if !mutated {
		return reply, nil
	}
	return reply, logArgs
}

func addOverflows(a, b int64) (sum int64, overflow bool) {
	sum = a + b
	if b > 0 && sum < a {
		return 0, true
	}
	if b < 0 && sum > a {
		return 0, true
	}
	return sum, false
}

func handleStrlen(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var n int
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		switch v.Tag {
		case value.TagInt:
			n = bytestr.FormatInt(v.Int).Len()
		case value.TagStr:
			n = v.Str.Len()
		default:
			typeErr = kverr.ErrWrongType
		}
	})

	if !existed {
		return resp.Integer(0), nil
	}
	if typeErr != nil {
		return errReply(typeErr, "value is not a string"), nil
	}
	return resp.Integer(int64(n)), nil
}

// handleAppend promotes an Int value to Str by decimal formatting before
// appending (spec.md §4.8), then appends raw to it, creating the key as Str
// if absent.
func handleAppend(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	key, raw := args[1], args[2]
	var n int
	var typeErr error

	d.ks.Mutate(key, d.nowMs(), func(existing *value.Value) (*value.Value, bool) {
		v := existing
		switch {
		case v == nil:
			v = value.NewStr(nil)
		case v.Tag == value.TagInt:
			value.CoerceToString(v)
		case v.Tag != value.TagStr:
			typeErr = kverr.ErrWrongType
			return nil, false
		}
		v.Str.Append(raw)
		n = v.Str.Len()
		return v, false
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a string"), nil
	}
	return resp.Integer(int64(n)), args
}
