package dispatch

import (
	"github.com/litekv/litekv/internal/bytestr"
	"github.com/litekv/litekv/internal/kverr"
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/resp"
	"github.com/litekv/litekv/internal/value"
)

func handleLlen(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var n int
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagList {
			typeErr = kverr.ErrWrongType
			return
		}
		n = v.List.Len()
	})

	if !existed {
		return resp.Integer(0), nil
	}
	if typeErr != nil {
		return errReply(typeErr, "value is not a list"), nil
	}
	return resp.Integer(int64(n)), nil
}

// handleLpush pushes each value to the front, in argument order, so
// "lpush k a b c" leaves the list as c,b,a (each push lands ahead of the
// previous), matching the common LPUSH convention.
func handleLpush(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	return pushMany(d, args[1], args[2:], args, true)
}

// handleRpush pushes each value to the back, in argument order.
func handleRpush(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	return pushMany(d, args[1], args[2:], args, false)
}

func pushMany(d *Dispatcher, key []byte, values [][]byte, logArgs [][]byte, left bool) (resp.Reply, [][]byte) {
	var n int
	var typeErr error

	d.ks.Mutate(key, d.nowMs(), func(existing *value.Value) (*value.Value, bool) {
		v := existing
		if v == nil {
			v = value.NewList()
		} else if v.Tag != value.TagList {
			typeErr = kverr.ErrWrongType
			return nil, false
		}

		for _, raw := range values {
			if left {
				v.List.PushLeft(raw)
			} else {
				v.List.PushRight(raw)
			}
		}
		n = v.List.Len()
		return v, false
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a list"), nil
	}
	return resp.Integer(int64(n)), logArgs
}

func handleLpop(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	return popOne(d, args[1], args, true)
}

func handleRpop(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	return popOne(d, args[1], args, false)
}

func popOne(d *Dispatcher, key []byte, logArgs [][]byte, left bool) (resp.Reply, [][]byte) {
	var popped []byte
	var ok bool
	var typeErr error

	d.ks.Mutate(key, d.nowMs(), func(existing *value.Value) (*value.Value, bool) {
		if existing == nil {
			return nil, false
		}
		if existing.Tag != value.TagList {
			typeErr = kverr.ErrWrongType
			return nil, false
		}

		if left {
			popped, ok = existing.List.PopLeft()
		} else {
			popped, ok = existing.List.PopRight()
		}
		if !ok {
			return existing, false
		}

		existing.List.Compact()
		if existing.List.Len() == 0 {
			return nil, true
		}
		return existing, false
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a list"), nil
	}
	if !ok {
		return resp.Nil(), nil
	}
	return resp.BulkString(popped), logArgs
}

func handleLrange(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	begin, err1 := bytestr.ParseInt(args[2])
	end, err2 := bytestr.ParseInt(args[3])
	if err1 != nil || err2 != nil {
		return errReply(kverr.ErrNotAnInteger, "begin/end must be integers"), nil
	}

	var items [][]byte
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagList {
			typeErr = kverr.ErrWrongType
			return
		}
		items = v.List.Range(int(begin), int(end))
	})

	if !existed || typeErr != nil {
		if typeErr != nil {
			return errReply(typeErr, "value is not a list"), nil
		}
		return resp.Array(nil), nil
	}

	return resp.Array(bulkStrings(items)), nil
}

func handleLsetIndex(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	idx, err := bytestr.ParseInt(args[2])
	if err != nil {
		return errReply(kverr.ErrNotAnInteger, "index must be an integer"), nil
	}

	var typeErr error
	var outOfRange bool

	d.ks.Mutate(args[1], d.nowMs(), func(existing *value.Value) (*value.Value, bool) {
		if existing == nil {
			outOfRange = true
			return nil, false
		}
		if existing.Tag != value.TagList {
			typeErr = kverr.ErrWrongType
			return nil, false
		}
		if !existing.List.SetIndex(int(idx), args[3]) {
			outOfRange = true
			return nil, false
		}
		return existing, false
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a list"), nil
	}
	if outOfRange {
		return errReply(kverr.ErrOutOfRange, "index out of range"), nil
	}
	return resp.SimpleString("OK"), args
}

func handleLindex(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	idx, err := bytestr.ParseInt(args[2])
	if err != nil {
		return errReply(kverr.ErrNotAnInteger, "index must be an integer"), nil
	}

	var item []byte
	var found bool
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagList {
			typeErr = kverr.ErrWrongType
			return
		}
		item, found = v.List.Index(int(idx))
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a list"), nil
	}
	if !existed || !found {
		return resp.Nil(), nil
	}
	return resp.BulkString(item), nil
}

func bulkStrings(items [][]byte) []resp.Reply {
	out := make([]resp.Reply, len(items))
	for i, it := range items {
		out[i] = resp.BulkString(it)
	}
	return out
}
