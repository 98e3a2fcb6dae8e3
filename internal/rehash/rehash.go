// Package rehash implements the incremental, chained hash container used as
// the Hash and Set value kinds (C3). Growth is triggered by load factor and
// carried out gradually: a "rehash cursor" migrates one slot per operation
// from the current table into a shadow table until the shadow table takes
// over completely.
package rehash

import "github.com/litekv/litekv/internal/bytestr"

// DefaultMaxLoad is the load factor above which a rehash begins.
const DefaultMaxLoad = 1.0

// growFactor is the shadow table's slot count relative to current's.
const growFactor = 2

const initialSlots = 4

// entry is one chained hash-slot member. value is nil for Set containers.
type entry struct {
	hash  uint64
	key   []byte
	value []byte
	next  *entry
}

// table is a plain open-hashed, chained hash table with no rehash logic of
// its own; Container drives migration between two of these.
type table struct {
	slots []*entry
	count int
}

func newTable(nslots int) *table {
	if nslots < 1 {
		nslots = 1
	}
	return &table{slots: make([]*entry, nslots)}
}

func (t *table) loadFactor() float64 {
	if len(t.slots) == 0 {
		return 0
	}
	return float64(t.count) / float64(len(t.slots))
}

func (t *table) slotFor(hash uint64) int {
	return int(hash % uint64(len(t.slots)))
}

func (t *table) find(hash uint64, key []byte) *entry {
	for e := t.slots[t.slotFor(hash)]; e != nil; e = e.next {
		if e.hash == hash && bytestr.Equal(e.key, key) {
			return e
		}
	}
	return nil
}

// insertNew links a brand new entry without checking for an existing one;
// callers must have already established the key is absent from this table.
func (t *table) insertNew(e *entry) {
	idx := t.slotFor(e.hash)
	e.next = t.slots[idx]
	t.slots[idx] = e
	t.count++
}

// remove detaches and returns the matching entry, or nil if absent.
func (t *table) remove(hash uint64, key []byte) *entry {
	idx := t.slotFor(hash)

	var prev *entry
	for e := t.slots[idx]; e != nil; e = e.next {
		if e.hash == hash && bytestr.Equal(e.key, key) {
			if prev == nil {
				t.slots[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.count--
			e.next = nil
			return e
		}
		prev = e
	}
	return nil
}

// Container is the shared incremental-rehash engine behind Map and Set.
type Container struct {
	current *table
	shadow  *table // non-nil only while rehashing
	cursor  int    // next slot index in current to migrate
	maxLoad float64
}

// NewContainer returns an empty container with the given max load factor
// (DefaultMaxLoad if zero).
func NewContainer(maxLoad float64) *Container {
	if maxLoad <= 0 {
		maxLoad = DefaultMaxLoad
	}
	return &Container{current: newTable(initialSlots), maxLoad: maxLoad}
}

func (c *Container) rehashing() bool { return c.shadow != nil }

// stepRehash migrates every entry out of one slot of current into shadow.
// Called once on every put/get/remove while a rehash is in progress.
func (c *Container) stepRehash() {
	if !c.rehashing() {
		return
	}

	for c.cursor < len(c.current.slots) {
		e := c.current.slots[c.cursor]
		if e == nil {
			c.cursor++
			continue
		}

		c.current.slots[c.cursor] = e.next
		c.current.count--
		e.next = nil
		c.shadow.insertNew(e)
		return
	}

	// current is fully drained: shadow takes over.
	c.current = c.shadow
	c.shadow = nil
	c.cursor = 0
}

func (c *Container) maybeStartRehash() {
	if c.rehashing() {
		return
	}
	if c.current.loadFactor() <= c.maxLoad {
		return
	}

	c.shadow = newTable(len(c.current.slots) * growFactor)
	c.cursor = 0
}

// Len returns the number of live entries across both tables.
func (c *Container) Len() int {
	if c.shadow == nil {
		return c.current.count
	}
	return c.current.count + c.shadow.count
}

// put installs key/value, reporting whether key already existed (in either
// table); false means it was newly inserted.
func (c *Container) put(key, value []byte) (existed bool) {
	c.stepRehash()

	hash := bytestr.Hash(key)

	if e := c.current.find(hash, key); e != nil {
		e.value = value
		return true
	}
	if c.shadow != nil {
		if e := c.shadow.find(hash, key); e != nil {
			e.value = value
			return true
		}
	}

	// Miss in both: inserts while rehashing go straight into shadow so they
	// are not visited twice by the migrating cursor.
	target := c.current
	if c.shadow != nil {
		target = c.shadow
	}
	target.insertNew(&entry{hash: hash, key: append([]byte(nil), key...), value: value})

	c.maybeStartRehash()

	return false
}

func (c *Container) get(key []byte) ([]byte, bool) {
	c.stepRehash()

	hash := bytestr.Hash(key)

	if e := c.current.find(hash, key); e != nil {
		return e.value, true
	}
	if c.shadow != nil {
		if e := c.shadow.find(hash, key); e != nil {
			return e.value, true
		}
	}
	return nil, false
}

func (c *Container) remove(key []byte) bool {
	c.stepRehash()

	hash := bytestr.Hash(key)

	if e := c.current.remove(hash, key); e != nil {
		return true
	}
	if c.shadow != nil {
		if e := c.shadow.remove(hash, key); e != nil {
			return true
		}
	}
	return false
}

func (c *Container) contains(key []byte) bool {
	_, ok := c.get(key)
	return ok
}

// entries calls fn for every live key/value pair, across both tables.
func (c *Container) entries(fn func(key, value []byte)) {
	for _, t := range c.liveTables() {
		for _, head := range t.slots {
			for e := head; e != nil; e = e.next {
				fn(e.key, e.value)
			}
		}
	}
}

func (c *Container) liveTables() []*table {
	if c.shadow == nil {
		return []*table{c.current}
	}
	return []*table{c.current, c.shadow}
}

// Map is an incremental hash map from byte-string field to byte-string value.
type Map struct{ c *Container }

// NewMap returns an empty Map with the given max load factor (DefaultMaxLoad
// if zero).
func NewMap(maxLoad float64) *Map { return &Map{c: NewContainer(maxLoad)} }

// Put installs field/value. Returns true if field already existed (updated),
// false if it was newly inserted.
func (m *Map) Put(field, value []byte) (updated bool) { return m.c.put(field, value) }

// Get returns the value for field, or (nil, false) if absent.
func (m *Map) Get(field []byte) ([]byte, bool) { return m.c.get(field) }

// Remove deletes field, reporting whether it was present.
func (m *Map) Remove(field []byte) bool { return m.c.remove(field) }

// Contains reports whether field is present.
func (m *Map) Contains(field []byte) bool { return m.c.contains(field) }

// Len returns the number of fields.
func (m *Map) Len() int { return m.c.Len() }

// Each calls fn for every field/value pair in unspecified order.
func (m *Map) Each(fn func(field, value []byte)) { m.c.entries(fn) }

// Set is an incremental hash set of byte-strings.
type Set struct{ c *Container }

// NewSet returns an empty Set with the given max load factor (DefaultMaxLoad
// if zero).
func NewSet(maxLoad float64) *Set { return &Set{c: NewContainer(maxLoad)} }

// Add inserts member. Returns true if it was newly added, false if it
// already existed.
func (s *Set) Add(member []byte) (added bool) { return !s.c.put(member, nil) }

// Remove deletes member, reporting whether it was present.
func (s *Set) Remove(member []byte) bool { return s.c.remove(member) }

// Contains reports whether member is present.
func (s *Set) Contains(member []byte) bool { return s.c.contains(member) }

// Len returns the number of members.
func (s *Set) Len() int { return s.c.Len() }

// Each calls fn for every member in unspecified order.
func (s *Set) Each(fn func(member []byte)) {
	s.c.entries(func(key, _ []byte) { fn(key) })
}
