// Package deque implements the block-chunked double-ended queue used as the
// List value kind: a doubly-linked chain of fixed-size node arrays with
// front/back cursors into the live range.
package deque

// blockSize is B from the spec: the number of byte-string slots per node.
const blockSize = 16

// node is one link in the chain. Live elements occupy slots[lo:hi]; a node
// with lo==hi is empty and, if it sits at an extremity of the chain, is kept
// around as a reusable "spare" rather than freed immediately.
type node struct {
	slots [blockSize][]byte
	lo, hi int
	prev, next *node
}

func (n *node) occ() int { return n.hi - n.lo }

// Deque is the chunked double-ended queue. The zero value is an empty deque.
type Deque struct {
	first, last *node // bounds of the live range; spare nodes hang off first.prev and last.next
	length      int
}

// New returns an empty Deque.
func New() *Deque { return &Deque{} }

// Len returns the number of live elements.
func (d *Deque) Len() int { return d.length }

func newNodeLeftEdge() *node  { return &node{lo: blockSize, hi: blockSize} }
func newNodeRightEdge() *node { return &node{lo: 0, hi: 0} }

// PushLeft inserts v at the front. O(1) amortised.
func (d *Deque) PushLeft(v []byte) {
	n := d.first
	switch {
	case n == nil:
		n = newNodeLeftEdge()
		d.first, d.last = n, n
	case n.lo > 0:
		// room on this node already
	case n.prev != nil && n.prev.occ() == 0:
		// reuse the spare node kept from a prior PopLeft
		n = n.prev
		n.lo, n.hi = blockSize, blockSize
		d.first = n
	default:
		nn := newNodeLeftEdge()
		nn.next = n
		n.prev = nn
		d.first = nn
		n = nn
	}

	n.lo--
	n.slots[n.lo] = v
	d.length++
}

// PushRight inserts v at the back. O(1) amortised.
func (d *Deque) PushRight(v []byte) {
	n := d.last
	switch {
	case n == nil:
		n = newNodeRightEdge()
		d.first, d.last = n, n
	case n.hi < blockSize:
		// room on this node already
	case n.next != nil && n.next.occ() == 0:
		n = n.next
		n.lo, n.hi = 0, 0
		d.last = n
	default:
		nn := newNodeRightEdge()
		nn.prev = n
		n.next = nn
		d.last = nn
		n = nn
	}

	n.slots[n.hi] = v
	n.hi++
	d.length++
}

// PopLeft removes and returns the front element. ok is false if the deque is
// empty, in which case the returned value is nil.
func (d *Deque) PopLeft() (v []byte, ok bool) {
	n := d.first
	if n == nil || n.occ() == 0 {
		return nil, false
	}

	v = n.slots[n.lo]
	n.slots[n.lo] = nil
	n.lo++
	d.length--

	if n.occ() == 0 && n.next != nil {
		// n becomes a spare behind the new front; reset for left-edge reuse.
		n.lo, n.hi = blockSize, blockSize
		d.first = n.next
	}

	return v, true
}

// PopRight removes and returns the back element. ok is false if the deque is
// empty, in which case the returned value is nil.
func (d *Deque) PopRight() (v []byte, ok bool) {
	n := d.last
	if n == nil || n.occ() == 0 {
		return nil, false
	}

	n.hi--
	v = n.slots[n.hi]
	n.slots[n.hi] = nil
	d.length--

	if n.occ() == 0 && n.prev != nil {
		n.lo, n.hi = 0, 0
		d.last = n.prev
	}

	return v, true
}

// resolveIndex normalises a (possibly negative) logical index into an
// absolute index, or reports !ok if it falls outside [0, len).
func (d *Deque) resolveIndex(i int) (abs int, ok bool) {
	if i < 0 {
		i += d.length
	}
	if i < 0 || i >= d.length {
		return 0, false
	}
	return i, true
}

// Index returns the element at logical position i (negative counts from the
// end). ok is false if i is out of range.
//
// O(1) when i falls inside the front edge node, else O(n/B) walking nodes.
func (d *Deque) Index(i int) (v []byte, ok bool) {
	abs, ok := d.resolveIndex(i)
	if !ok {
		return nil, false
	}

	n := d.first
	frontOcc := 0
	if n != nil {
		frontOcc = n.occ()
	}
	if abs < frontOcc {
		return n.slots[n.lo+abs], true
	}

	remaining := abs - frontOcc
	n = n.next
	for n != nil {
		occ := n.occ()
		if remaining < occ {
			return n.slots[n.lo+remaining], true
		}
		remaining -= occ
		n = n.next
	}

	return nil, false
}

// SetIndex overwrites the element at logical position i. ok is false if i is
// out of range, in which case the deque is left unchanged.
func (d *Deque) SetIndex(i int, v []byte) (ok bool) {
	abs, ok := d.resolveIndex(i)
	if !ok {
		return false
	}

	n := d.first
	remaining := abs
	for n != nil {
		occ := n.occ()
		if remaining < occ {
			n.slots[n.lo+remaining] = v
			return true
		}
		remaining -= occ
		n = n.next
	}

	return false
}

// Range returns the elements at positions begin..=end inclusive, in order.
// Negative indices count from the end. Clamp rules: if begin<0 after
// adjustment it is set to 0; if end>=len it is clamped to len-1; if begin>end
// after adjustment the result is empty.
func (d *Deque) Range(begin, end int) [][]byte {
	if d.length == 0 {
		return nil
	}

	if begin < 0 {
		begin += d.length
	}
	if begin < 0 {
		begin = 0
	}

	if end < 0 {
		end += d.length
	}
	if end >= d.length {
		end = d.length - 1
	}

	if begin > end {
		return nil
	}

	out := make([][]byte, 0, end-begin+1)

	n := d.first
	skip := begin
	for n != nil && skip >= n.occ() {
		skip -= n.occ()
		n = n.next
	}

	want := end - begin + 1
	for n != nil && want > 0 {
		idx := n.lo + skip
		for idx < n.hi && want > 0 {
			out = append(out, n.slots[idx])
			idx++
			want--
		}
		skip = 0
		n = n.next
	}

	return out
}

// totalCapacity returns blockSize * (number of allocated nodes), spare nodes
// before first and after last included.
func (d *Deque) totalCapacity() int {
	head := d.first
	for head != nil && head.prev != nil {
		head = head.prev
	}
	count := 0
	for n := head; n != nil; n = n.next {
		count++
	}
	return count * blockSize
}

// redundancyFactor is the minimum ratio of total capacity to live length
// before Compact will release spare nodes.
const redundancyFactor = 2

// Compact frees empty spare nodes at either extreme, but only once total
// capacity is at least redundancyFactor times the live length.
func (d *Deque) Compact() {
	if d.totalCapacity() < redundancyFactor*d.length {
		return
	}

	if d.first != nil && d.first.prev != nil {
		d.first.prev.next = nil
		d.first.prev = nil
	}
	if d.last != nil && d.last.next != nil {
		d.last.next.prev = nil
		d.last.next = nil
	}

	for d.first != nil && d.first.occ() == 0 && d.first.next != nil {
		d.first = d.first.next
		d.first.prev = nil
	}

	for d.last != nil && d.last.occ() == 0 && d.last.prev != nil {
		d.last = d.last.prev
		d.last.next = nil
	}

	if d.length == 0 {
		d.first, d.last = nil, nil
	}
}
