package compiler

import (
	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/scope"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// compileSet implements `set LVALUE VALUE` (§4.F): LVALUE is either a
// symbol naming a mutable binding, or a two-element tuple `(ds key)`
// writing through a GET-compatible container.
func compileSet(c *Compiler, tail bool, args []value.Value) slot.Slot {
	if len(args) != 2 {
		return c.fail("wrong arity for set: expected an lvalue and a value")
	}
	lvalue, valueForm := args[0], args[1]

	rvalue := c.compileValue(valueForm, false)
	if c.failed() {
		return slot.Nil
	}

	switch lv := lvalue.(type) {
	case value.Symbol:
		return c.setSymbol(string(lv), rvalue)
	case *value.Tuple:
		if len(lv.Elements) != 2 {
			return c.fail("set lvalue tuple must have exactly a container and a key")
		}
		return c.setIndexed(lv.Elements[0], lv.Elements[1], rvalue)
	default:
		return c.fail("unexpected set lvalue: expected a symbol or (container key)")
	}
}

// setSymbol writes rvalue back into name's binding, which must be
// mutable (§4.F: "set on an immutable def binding is an error").
func (c *Compiler) setSymbol(name string, rvalue slot.Slot) slot.Slot {
	target, err := scope.Resolve(c.top, c.env, name)
	if err != nil {
		return c.fail("%s", err)
	}
	if !target.IsMutable() {
		return c.fail("cannot set immutable binding: %s", name)
	}

	m := c.materializer()
	src, borrowed, err := m.RegNear(rvalue, register.T7, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	if err := m.MoveBack(target, uint8(src), c.pos()); err != nil {
		return c.fail("%s", err)
	}
	if borrowed {
		c.top.Regs().FreeTemp(src, register.T7)
	}
	return rvalue
}

// setIndexed implements the `(set (ds key) value)` form by emitting a
// three-operand PUT, the same opcode the TagPut inliner rule produces for
// an explicit `put` call.
func (c *Compiler) setIndexed(dsForm, keyForm value.Value, rvalue slot.Slot) slot.Slot {
	ds := c.compileValue(dsForm, false)
	if c.failed() {
		return slot.Nil
	}
	key := c.compileValue(keyForm, false)
	if c.failed() {
		return slot.Nil
	}

	m := c.materializer()
	dsReg, dsBorrowed, err := m.RegNear(ds, register.T2, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	keyReg, keyBorrowed, err := m.RegNear(key, register.T3, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	valReg, valBorrowed, err := m.RegNear(rvalue, register.T4, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	c.emit.EmitSSS(slot.PUT, uint8(dsReg), uint8(keyReg), uint8(valReg), c.pos())
	if dsBorrowed {
		c.top.Regs().FreeTemp(dsReg, register.T2)
	}
	if keyBorrowed {
		c.top.Regs().FreeTemp(keyReg, register.T3)
	}
	if valBorrowed {
		c.top.Regs().FreeTemp(valReg, register.T4)
	}
	return rvalue
}
