package dispatch

import (
	"github.com/litekv/litekv/internal/kverr"
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/resp"
	"github.com/litekv/litekv/internal/value"
)

func handleSadd(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	members := args[2:]
	var added int
	var typeErr error

	d.ks.Mutate(args[1], d.nowMs(), func(existing *value.Value) (*value.Value, bool) {
		v := existing
		if v == nil {
			v = value.NewSet()
		} else if v.Tag != value.TagSet {
			typeErr = kverr.ErrWrongType
			return nil, false
		}

		for _, m := range members {
			if v.Set.Add(m) {
				added++
			}
		}
		return v, false
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a set"), nil
	}
	return resp.Integer(int64(added)), args
}

func handleSismember(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var found bool
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagSet {
			typeErr = kverr.ErrWrongType
			return
		}
		found = v.Set.Contains(args[2])
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a set"), nil
	}
	if !existed || !found {
		return resp.Integer(0), nil
	}
	return resp.Integer(1), nil
}

func handleSmismember(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	members := args[2:]
	results := make([]resp.Reply, len(members))
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagSet {
			typeErr = kverr.ErrWrongType
			return
		}
		for i, m := range members {
			if v.Set.Contains(m) {
				results[i] = resp.Integer(1)
			} else {
				results[i] = resp.Integer(0)
			}
		}
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a set"), nil
	}
	if !existed {
		for i := range results {
			results[i] = resp.Integer(0)
		}
	}
	return resp.Array(results), nil
}

func handleSmembers(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var items []resp.Reply
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagSet {
			typeErr = kverr.ErrWrongType
			return
		}
		items = make([]resp.Reply, 0, v.Set.Len())
		v.Set.Each(func(member []byte) {
			items = append(items, resp.BulkString(member))
		})
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a set"), nil
	}
	if !existed {
		return resp.Array(nil), nil
	}
	return resp.Array(items), nil
}

func handleSrem(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	members := args[2:]
	var removed int
	var typeErr error

	d.ks.Mutate(args[1], d.nowMs(), func(existing *value.Value) (*value.Value, bool) {
		if existing == nil {
			return nil, false
		}
		if existing.Tag != value.TagSet {
			typeErr = kverr.ErrWrongType
			return nil, false
		}

		for _, m := range members {
			if existing.Set.Remove(m) {
				removed++
			}
		}
		if existing.Set.Len() == 0 {
			return nil, true
		}
		return existing, false
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a set"), nil
	}
	if removed == 0 {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(removed)), args
}

func handleScard(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	var n int
	var typeErr error

	existed := d.ks.View(args[1], d.nowMs(), func(v *value.Value) {
		if v.Tag != value.TagSet {
			typeErr = kverr.ErrWrongType
			return
		}
		n = v.Set.Len()
	})

	if typeErr != nil {
		return errReply(typeErr, "value is not a set"), nil
	}
	if !existed {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(n)), nil
}
