package compiler

import (
	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// TableLiteral is the parsed representation of a `@{...}` table literal:
// unlike the runtime dict.Table it models, its pairs are uncompiled
// subexpressions, not finished Values, since a table literal's keys and
// values are themselves compiled forms (§4.E).
type TableLiteral struct {
	Pairs [][2]value.Value
}

func (*TableLiteral) Kind() value.Kind  { return value.KindTable }
func (*TableLiteral) String() string    { return "table-literal" }
func (*TableLiteral) Truth() bool       { return true }

// StructLiteral is the parsed representation of a `{...}` struct literal,
// the dual of TableLiteral for the immutable dictionary value.
type StructLiteral struct {
	Pairs [][2]value.Value
}

func (*StructLiteral) Kind() value.Kind { return value.KindStruct }
func (*StructLiteral) String() string   { return "struct-literal" }
func (*StructLiteral) Truth() bool      { return true }

// compileArrayLiteral compiles `@[a b c]` data construction (§4.E): each
// element to a slot, then MAKE_ARRAY.
func (c *Compiler) compileArrayLiteral(a *value.Array) slot.Slot {
	slots := make([]slot.Slot, len(a.Elements))
	for i, e := range a.Elements {
		slots[i] = c.compileValue(e, false)
		if c.failed() {
			return slot.Nil
		}
	}
	return c.emitConstructor(slot.MAKE_ARRAY, slots)
}

// compileTableLiteral compiles `@{k v ...}` (§4.E): each key and value to a
// slot, interleaved, then MAKE_TABLE.
func (c *Compiler) compileTableLiteral(t *TableLiteral) slot.Slot {
	slots := make([]slot.Slot, 0, len(t.Pairs)*2)
	for _, p := range t.Pairs {
		k := c.compileValue(p[0], false)
		if c.failed() {
			return slot.Nil
		}
		v := c.compileValue(p[1], false)
		if c.failed() {
			return slot.Nil
		}
		slots = append(slots, k, v)
	}
	return c.emitConstructor(slot.MAKE_TABLE, slots)
}

// compileStructLiteral compiles `{k v ...}` (§4.E): same shape as a table
// literal but targets MAKE_STRUCT, the immutable content-addressed sibling.
func (c *Compiler) compileStructLiteral(s *StructLiteral) slot.Slot {
	slots := make([]slot.Slot, 0, len(s.Pairs)*2)
	for _, p := range s.Pairs {
		k := c.compileValue(p[0], false)
		if c.failed() {
			return slot.Nil
		}
		v := c.compileValue(p[1], false)
		if c.failed() {
			return slot.Nil
		}
		slots = append(slots, k, v)
	}
	return c.emitConstructor(slot.MAKE_STRUCT, slots)
}

// emitConstructor implements the shared tail of every data-constructor
// form (§4.E); call.go's argument list uses the same PUSH/PUSH_ARRAY rule
// in its own loop. Each slot is pushed (PUSH, or PUSH_ARRAY when it
// carries the SPLICED marker left by `splice`, §4.F quasiquote) onto the
// VM's pending-argument stack, then op is emitted to consume them into a
// single destination register.
func (c *Compiler) emitConstructor(op slot.Opcode, slots []slot.Slot) slot.Slot {
	m := c.materializer()
	for _, s := range slots {
		if c.failed() {
			return slot.Nil
		}
		reg, borrowed, err := m.RegNear(s, register.T2, c.pos())
		if err != nil {
			return c.fail("%s", err)
		}
		pushOp := slot.PUSH
		if s.IsSpliced() {
			pushOp = slot.PUSH_ARRAY
		}
		c.emit.EmitS(pushOp, uint8(reg), c.pos())
		if borrowed {
			c.top.Regs().FreeTemp(reg, register.T2)
		}
	}
	dst, err := c.top.Regs().Alloc1()
	if err != nil {
		return c.fail("%s", err)
	}
	c.emit.EmitS(op, uint8(dst), c.pos())
	return slot.Local(dst)
}
