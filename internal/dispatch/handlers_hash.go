package dispatch

import (
	"github.com/litekv/litekv/internal/kverr"
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/resp"
	"github.com/litekv/litekv/internal/value"
)

// handleHset stores one or more field/value pairs, creating the hash if
// absent.
func handleHset(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	pairs := args[2:]
	var typeErr error

	d.ks.Mutate(args[1], d.nowMs(), func(existing *value.Value) (*value.Value, bool) {
		v := existing
		if v == nil {
			v = value.NewHash()
		} else if v.Tag != value.TagHash {
			typeErr = kverr.ErrWrongType
			return nil, false
		}

		for i := 0; i < len(pairs); i += 2 {
			v.Hash.Put(pairs[i], pairs[i+1])
		}
		return v, false
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a hash"), nil
	}
	return resp.SimpleString("OK"), args
}

func handleHget(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var val []byte
	var found bool
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagHash {
			typeErr = kverr.ErrWrongType
			return
		}
		val, found = v.Hash.Get(args[2])
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a hash"), nil
	}
	if !existed || !found {
		return resp.Nil(), nil
	}
	return resp.BulkString(val), nil
}

func handleHdel(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	fields := args[2:]
	var removed int
	var typeErr error

	d.ks.Mutate(args[1], d.nowMs(), func(existing *value.Value) (*value.Value, bool) {
		if existing == nil {
			return nil, false
		}
		if existing.Tag != value.TagHash {
			typeErr = kverr.ErrWrongType
			return nil, false
		}

		for _, f := range fields {
			if existing.Hash.Remove(f) {
				removed++
			}
		}
		if existing.Hash.Len() == 0 {
			return nil, true
		}
		return existing, false
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a hash"), nil
	}
	if removed == 0 {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(removed)), args
}

func handleHexists(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var found bool
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagHash {
			typeErr = kverr.ErrWrongType
			return
		}
		found = v.Hash.Contains(args[2])
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a hash"), nil
	}
	if !existed || !found {
		return resp.Integer(0), nil
	}
	return resp.Integer(1), nil
}

func handleHgetall(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var items []resp.Reply
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagHash {
			typeErr = kverr.ErrWrongType
			return
		}
		items = make([]resp.Reply, 0, v.Hash.Len()*2)
		v.Hash.Each(func(field, val []byte) {
			items = append(items, resp.BulkString(field), resp.BulkString(val))
		})
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a hash"), nil
	}
	if !existed {
		return resp.Array(nil), nil
	}
	return resp.Array(items), nil
}

func handleHkeys(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var items []resp.Reply
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagHash {
			typeErr = kverr.ErrWrongType
			return
		}
		items = make([]resp.Reply, 0, v.Hash.Len())
		v.Hash.Each(func(field, _ []byte) {
			items = append(items, resp.BulkString(field))
		})
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a hash"), nil
	}
	if !existed {
		return resp.Array(nil), nil
	}
	return resp.Array(items), nil
}

func handleHvals(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var items []resp.Reply
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagHash {
			typeErr = kverr.ErrWrongType
			return
		}
		items = make([]resp.Reply, 0, v.Hash.Len())
		v.Hash.Each(func(_, val []byte) {
			items = append(items, resp.BulkString(val))
		})
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a hash"), nil
	}
	if !existed {
		return resp.Array(nil), nil
	}
	return resp.Array(items), nil
}

func handleHlen(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var n int
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagHash {
			typeErr = kverr.ErrWrongType
			return
		}
		n = v.Hash.Len()
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a hash"), nil
	}
	if !existed {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(n)), nil
}
