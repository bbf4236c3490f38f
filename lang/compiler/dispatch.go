package compiler

import (
	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/scope"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// compileValue is compile_value, the universal router (§4.E). tail records
// whether this subform sits in tail position, threaded down so fn bodies
// and if/do branches can tail-emit a RETURN/TAILCALL instead of a plain
// value-producing sequence.
func (c *Compiler) compileValue(v value.Value, tail bool) slot.Slot {
	if !c.enterRecursion() {
		return slot.Nil
	}
	defer c.leaveRecursion()
	if c.failed() {
		return slot.Nil
	}

	c.setSourceMapping(v)

	switch vv := v.(type) {
	case nil:
		return cslot(value.NilValue)
	case value.Nil, value.Bool, value.Number, value.Int, value.String,
		value.Keyword, *value.Buffer, *value.CFunction, *value.Abstract:
		return cslot(vv)
	case value.Symbol:
		return c.compileSymbol(string(vv))
	case *value.Tuple:
		return c.compileTuple(vv, tail)
	case *value.Array:
		return c.compileArrayLiteral(vv)
	case *TableLiteral:
		return c.compileTableLiteral(vv)
	case *StructLiteral:
		return c.compileStructLiteral(vv)
	default:
		return cslot(v)
	}
}

// compileSymbol resolves a plain symbol or decomposes a multisym into a
// chain of GET operations (§4.E).
func (c *Compiler) compileSymbol(name string) slot.Slot {
	head, segs, ok := value.SplitMultisym(name)
	if !ok {
		sl, err := scope.Resolve(c.top, c.env, name)
		if err != nil {
			return c.fail("%s", err)
		}
		return sl
	}

	sl, err := scope.Resolve(c.top, c.env, head)
	if err != nil {
		return c.fail("%s", err)
	}
	m := c.materializer()
	for _, seg := range segs {
		if c.failed() {
			return slot.Nil
		}
		objReg, borrowedObj, err := m.RegNear(sl, register.T0, c.pos())
		if err != nil {
			return c.fail("%s", err)
		}
		keyReg, borrowedKey, err := m.RegNear(cslot(seg.Key), register.T1, c.pos())
		if err != nil {
			return c.fail("%s", err)
		}
		dst, err := c.top.Regs().Alloc1()
		if err != nil {
			return c.fail("%s", err)
		}
		c.emit.EmitSSS(slot.GET, uint8(dst), uint8(objReg), uint8(keyReg), c.pos())
		if borrowedObj {
			c.top.Regs().FreeTemp(objReg, register.T0)
		}
		if borrowedKey {
			c.top.Regs().FreeTemp(keyReg, register.T1)
		}
		sl = slot.Local(dst)
	}
	return sl
}

// compileTuple implements the call/special-form dispatch (§4.E): a tuple
// headed by a symbol naming a special form is handled by a dedicated
// routine; otherwise every element compiles to a slot and the call is
// emitted, consulting the inliner table first.
func (c *Compiler) compileTuple(t *value.Tuple, tail bool) slot.Slot {
	if t.Bracket || len(t.Elements) == 0 {
		return c.compileTupleLiteral(t)
	}
	if headSym, ok := t.Elements[0].(value.Symbol); ok {
		if sf, ok := specialForms[string(headSym)]; ok {
			return sf(c, tail, t.Elements[1:])
		}
	}
	return c.compileCall(t, tail)
}

// compileTupleLiteral implements literal (non-call) tuple construction: a
// bracket tuple `[a b c]` appearing as data, or a parenthesized empty
// tuple `()`.
func (c *Compiler) compileTupleLiteral(t *value.Tuple) slot.Slot {
	slots := make([]slot.Slot, len(t.Elements))
	for i, e := range t.Elements {
		slots[i] = c.compileValue(e, false)
		if c.failed() {
			return slot.Nil
		}
	}
	op := slot.MAKE_TUPLE
	if t.Bracket {
		op = slot.MAKE_BRACKET_TUPLE
	}
	return c.emitConstructor(op, slots)
}
