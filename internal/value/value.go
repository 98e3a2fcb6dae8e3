// Package value implements the tagged union stored under every key: one of
// Int/Str/List/Hash/Set plus the last-visit timestamp that drives
// LRU-approximate eviction.
package value

import (
	"github.com/litekv/litekv/internal/bytestr"
	"github.com/litekv/litekv/internal/deque"
	"github.com/litekv/litekv/internal/rehash"
)

// Tag identifies which payload a Value currently holds.
type Tag int

const (
	TagInt Tag = iota
	TagStr
	TagList
	TagHash
	TagSet
)

// String returns the wire-visible type name used by the "type" command.
func (t Tag) String() string {
	switch t {
	case TagInt:
		return "int"
	case TagStr:
		return "string"
	case TagList:
		return "list"
	case TagHash:
		return "hash"
	case TagSet:
		return "set"
	default:
		return "none"
	}
}

// defaultHashMaxLoad is the load factor used for Hash/Set payloads; kept as a
// named constant so every value in the store rehashes on the same schedule.
const defaultHashMaxLoad = rehash.DefaultMaxLoad

// Value is the tagged payload installed under a key, plus bookkeeping for
// eviction.
type Value struct {
	Tag  Tag
	Int  int64
	Str  *bytestr.Bytes
	List *deque.Deque
	Hash *rehash.Map
	Set  *rehash.Set

	// LastVisitMs is updated on every read or write and drives
	// LRU-approximate eviction.
	LastVisitMs int64
}

// NewInt returns an Int-tagged value.
func NewInt(v int64) *Value { return &Value{Tag: TagInt, Int: v} }

// NewStr returns a Str-tagged value initialised from b.
func NewStr(b []byte) *Value { return &Value{Tag: TagStr, Str: bytestr.FromBytes(b)} }

// NewList returns an empty List-tagged value.
func NewList() *Value { return &Value{Tag: TagList, List: deque.New()} }

// NewHash returns an empty Hash-tagged value.
func NewHash() *Value { return &Value{Tag: TagHash, Hash: rehash.NewMap(defaultHashMaxLoad)} }

// NewSet returns an empty Set-tagged value.
func NewSet() *Value { return &Value{Tag: TagSet, Set: rehash.NewSet(defaultHashMaxLoad)} }

// Touch updates the last-visit timestamp. Called on every read or write.
func (v *Value) Touch(nowMs int64) { v.LastVisitMs = nowMs }

// CoerceToString promotes an Int-tagged value to Str by decimal-formatting
// the integer, in place. It is a no-op if v is already Str. Callers must not
// call it on any other tag.
func CoerceToString(v *Value) {
	if v.Tag == TagStr {
		return
	}
	v.Str = bytestr.FormatInt(v.Int)
	v.Tag = TagStr
	v.Int = 0
}
