// Package dict implements the two dictionary values of the data model
// (spec §3/§4.A): the immutable, content-addressed Struct and the mutable
// Table. Neither has a direct analog in the teacher (mna-nenuphar's
// lang/machine/map.go is a bare Go map with a TODO about custom
// iterators); Struct is written fresh from spec §4.A's normative
// Robin-Hood probe/swap rule, and Table is built on the pack's otherwise
// unused github.com/dolthub/swiss dependency.
package dict

import (
	"math"

	"github.com/mna/ember/lang/value"
)

// protoHashMultiplier is the fixed multiplier spec §4.A calls for when
// mixing a prototype's hash into a struct's own hash.
const protoHashMultiplier = 0x9E3779B97F4A7C15

// maxProtoDepth bounds prototype-chain lookups (spec §4.A: "typically 32").
const maxProtoDepth = 32

type slot struct {
	key  value.Value
	val  value.Value
	hash uint64
}

// Struct is the language's immutable dictionary value. Its layout is
// invariant under insertion order (spec invariant, §3 and §8 property 2):
// building the same set of key/value pairs in any order yields byte
// identical slot layout and equal hash.
type Struct struct {
	slots    []slot
	length   int // number of distinct keys actually present
	hash     uint64
	proto    *Struct
	hashDone bool
}

// builder accumulates Put calls for a Struct under construction, per the
// begin/put/end three-phase protocol of spec §4.A.
type builder struct {
	s       *Struct
	target  int // N, the declared final length
	filled  int // populated-so-far counter
	dupKeys bool
}

// Begin starts building a struct expected to hold n distinct key/value
// pairs. Capacity is the next power of two at least 2*n (spec §4.A), with
// a defensive fallback if doubling n would overflow.
func Begin(n int) *builder {
	cap := nextPow2Cap(n)
	return &builder{s: &Struct{slots: make([]slot, cap)}, target: n}
}

func nextPow2Cap(n int) int {
	if n <= 0 {
		return 2
	}
	want := 2 * n
	if want <= 0 || want/2 != n {
		// overflow: fall back to a capacity just above n itself.
		want = n + 1
	}
	c := 1
	for c < want {
		c <<= 1
	}
	return c
}

// Put inserts a key/value pair, always replacing on an equal-key collision.
func (b *builder) Put(k, v value.Value) { b.putExt(k, v, true) }

// PutExt inserts a key/value pair; when replace is false and the key is
// already present, the existing value is kept (used for prototype
// flattening, spec §4.A).
func (b *builder) PutExt(k, v value.Value, replace bool) { b.putExt(k, v, replace) }

func (b *builder) putExt(k, v value.Value, replace bool) {
	if k == nil || v == nil || value.IsNil(k) || value.IsNil(v) {
		return
	}
	if n, ok := k.(value.Number); ok && math.IsNaN(float64(n)) {
		return
	}
	if b.filled >= b.target {
		return
	}

	cap := len(b.s.slots)
	h := value.Hash(k)
	entry := slot{key: k, val: v, hash: h}
	pos := int(h % uint64(cap))
	dist := 0

	for {
		cur := &b.s.slots[pos]
		if cur.key == nil {
			*cur = entry
			b.filled++
			return
		}
		if value.Equal(cur.key, entry.key) {
			b.dupKeys = true
			if replace {
				cur.val = entry.val
			}
			return
		}
		curDist := probeDistance(pos, cur.hash, cap)
		if dist > curDist || (dist == curDist && lessEntry(entry, *cur)) {
			entry, *cur = *cur, entry
			dist = curDist
		}
		pos = (pos + 1) % cap
		dist++
	}
}

func probeDistance(pos int, h uint64, cap int) int {
	ideal := int(h % uint64(cap))
	d := pos - ideal
	if d < 0 {
		d += cap
	}
	return d
}

func lessEntry(a, b slot) bool {
	if a.hash != b.hash {
		return a.hash < b.hash
	}
	return value.Compare(a.key, b.key) < 0
}

// SetPrototype attaches a prototype struct, consulted by Get when the
// lookup misses locally.
func (b *builder) SetPrototype(proto *Struct) { b.s.proto = proto }

// End finalizes the struct. If fewer distinct keys were supplied than
// declared to Begin (duplicates were put), the struct is rebuilt at the
// actual distinct count so that its layout only ever depends on its final
// key set, never on how many duplicate puts preceded it.
func End(b *builder) *Struct {
	s := b.s
	if b.dupKeys && b.filled < b.target {
		nb := Begin(b.filled)
		nb.s.proto = s.proto
		for _, sl := range s.slots {
			if sl.key != nil {
				nb.Put(sl.key, sl.val)
			}
		}
		s = nb.s
		b.filled = nb.filled
	}
	s.length = b.filled
	s.hash = foldHash(s)
	s.hashDone = true
	return s
}

func foldHash(s *Struct) uint64 {
	h := uint64(14695981039346656037)
	for i, sl := range s.slots {
		h ^= uint64(i) * 0x100000001B3
		if sl.key != nil {
			h = h*1099511628211 ^ value.Hash(sl.key)
			h = h*1099511628211 ^ value.Hash(sl.val)
		}
	}
	if s.proto != nil {
		h = h*protoHashMultiplier ^ s.proto.HashValue()
	}
	return h
}

func (*Struct) Kind() value.Kind { return value.KindStruct }

func (s *Struct) String() string {
	out := "{"
	first := true
	for _, sl := range s.slots {
		if sl.key == nil {
			continue
		}
		if !first {
			out += " "
		}
		first = false
		out += sl.key.String() + " " + sl.val.String()
	}
	return out + "}"
}

func (s *Struct) Truth() bool { return true }

// Len returns the number of distinct key/value pairs.
func (s *Struct) Len() int { return s.length }

// Capacity returns the physical slot count (a power of two >= 2*Len, save
// for the overflow fallback and the duplicate-triggered rebuild).
func (s *Struct) Capacity() int { return len(s.slots) }

// Prototype returns the struct's prototype, or nil.
func (s *Struct) Prototype() *Struct { return s.proto }

// Get looks up k, walking the prototype chain (bounded to maxProtoDepth) on
// a local miss.
func (s *Struct) Get(k value.Value) (value.Value, bool) {
	cur := s
	for depth := 0; cur != nil && depth < maxProtoDepth; depth, cur = depth+1, cur.proto {
		if v, ok := cur.getLocal(k); ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Struct) getLocal(k value.Value) (value.Value, bool) {
	cap := len(s.slots)
	if cap == 0 {
		return nil, false
	}
	h := value.Hash(k)
	pos := int(h % uint64(cap))
	dist := 0
	for {
		sl := s.slots[pos]
		if sl.key == nil {
			return nil, false
		}
		if value.Equal(sl.key, k) {
			return sl.val, true
		}
		// Robin-Hood invariant: once we reach a slot whose own probe
		// distance is less than ours, k cannot be present further along.
		if dist > probeDistance(pos, sl.hash, cap) {
			return nil, false
		}
		pos = (pos + 1) % cap
		dist++
	}
}

// HashValue implements value.Hashable.
func (s *Struct) HashValue() uint64 { return s.hash }

// EqualValue implements value.Comparable: same capacity, same hash,
// slot-by-slot key and value equality (spec §8 property 3).
func (s *Struct) EqualValue(other value.Value) bool {
	o, ok := other.(*Struct)
	if !ok {
		return false
	}
	if s == o {
		return true
	}
	if len(s.slots) != len(o.slots) || s.hash != o.hash {
		return false
	}
	for i := range s.slots {
		a, b := s.slots[i], o.slots[i]
		if (a.key == nil) != (b.key == nil) {
			return false
		}
		if a.key == nil {
			continue
		}
		if !value.Equal(a.key, b.key) || !value.Equal(a.val, b.val) {
			return false
		}
	}
	return true
}

// CompareValue implements value.Comparable using the same slot-wise order
// equality uses.
func (s *Struct) CompareValue(other value.Value) int {
	o, ok := other.(*Struct)
	if !ok {
		return int(s.Kind()) - int(other.Kind())
	}
	n := len(s.slots)
	if len(o.slots) < n {
		n = len(o.slots)
	}
	for i := 0; i < n; i++ {
		a, b := s.slots[i], o.slots[i]
		switch {
		case a.key == nil && b.key == nil:
			continue
		case a.key == nil:
			return -1
		case b.key == nil:
			return 1
		}
		if c := value.Compare(a.key, b.key); c != 0 {
			return c
		}
		if c := value.Compare(a.val, b.val); c != 0 {
			return c
		}
	}
	return len(s.slots) - len(o.slots)
}

// Flatten builds a single struct containing base's own pairs plus every
// pair reachable through its prototype chain that base doesn't already
// define (spec §4.A "prototype flattening", via PutExt(replace=false)).
func Flatten(base *Struct) *Struct {
	if base == nil {
		return nil
	}
	b := Begin(countReachable(base))
	for cur := base; cur != nil; cur = cur.proto {
		for _, sl := range cur.slots {
			if sl.key != nil {
				b.PutExt(sl.key, sl.val, false)
			}
		}
	}
	return End(b)
}

func countReachable(s *Struct) int {
	seen := map[value.Value]bool{}
	for cur := s; cur != nil; cur = cur.proto {
		for _, sl := range cur.slots {
			if sl.key != nil {
				seen[sl.key] = true
			}
		}
	}
	return len(seen)
}
