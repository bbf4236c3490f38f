package dict

import (
	"github.com/dolthub/swiss"
	"github.com/mna/ember/lang/value"
)

// Table is the language's mutable dictionary value, optionally chained to
// a prototype. Unlike Struct it is not content-addressed: the spec
// distinguishes "table" from "struct" precisely so that only the latter
// carries the content-addressing contract (§3, §8 property 2/3 only ever
// mention struct). Built on github.com/dolthub/swiss, present but unused
// in the teacher's go.mod (lang/machine/map.go uses a bare Go map with a
// TODO about this exact gap).
type Table struct {
	m     *swiss.Map[value.Value, value.Value]
	proto *Table
}

// NewTable returns an empty table with initial capacity for at least
// sizeHint entries.
func NewTable(sizeHint int) *Table {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Table{m: swiss.NewMap[value.Value, value.Value](uint32(sizeHint))}
}

func (*Table) Kind() value.Kind { return value.KindTable }
func (t *Table) String() string { return "table" }
func (t *Table) Truth() bool    { return true }
func (t *Table) Len() int       { return t.m.Count() }

// SetPrototype attaches a prototype table consulted by Get on a local miss.
func (t *Table) SetPrototype(proto *Table) { t.proto = proto }
func (t *Table) Prototype() *Table         { return t.proto }

// Put inserts or overwrites k -> v. A nil key or value is rejected, as for
// Struct (spec §4.A's contract applies uniformly to both dictionary
// values in this implementation).
func (t *Table) Put(k, v value.Value) {
	if k == nil || v == nil || value.IsNil(k) || value.IsNil(v) {
		return
	}
	t.m.Put(k, v)
}

// Get looks up k, walking the prototype chain on a local miss.
func (t *Table) Get(k value.Value) (value.Value, bool) {
	for cur := t; cur != nil; cur = cur.proto {
		if v, ok := cur.m.Get(k); ok {
			return v, true
		}
	}
	return nil, false
}

// Delete removes k from the table's own entries (not from its prototype).
func (t *Table) Delete(k value.Value) bool { return t.m.Delete(k) }

// Each calls fn for every key/value pair in the table's own entries (not
// its prototype chain), in unspecified order.
func (t *Table) Each(fn func(k, v value.Value) bool) {
	t.m.Iter(func(k, v value.Value) bool { return !fn(k, v) })
}
