package compiler

import (
	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// compileCall compiles a non-special-form tuple head as a function call
// (§4.E): every argument compiles to a slot first; if the head names a
// tagged built-in recognised by the inliner table (§4.H) and the argument
// shape matches, a primitive opcode replaces the generic CALL/TAILCALL.
func (c *Compiler) compileCall(t *value.Tuple, tail bool) slot.Slot {
	args := make([]slot.Slot, len(t.Elements)-1)
	for i, a := range t.Elements[1:] {
		args[i] = c.compileValue(a, false)
		if c.failed() {
			return slot.Nil
		}
	}

	if headSym, ok := t.Elements[0].(value.Symbol); ok {
		if tag := c.headFuncTag(headSym); tag != value.TagNone {
			if rule, ok := inlinerTable[tag]; ok && rule.canOptimize(args) {
				return rule.optimize(c, args)
			}
		}
	}

	fn := c.compileValue(t.Elements[0], false)
	if c.failed() {
		return slot.Nil
	}
	m := c.materializer()
	fnReg, fnBorrowed, err := m.RegNear(fn, register.T5, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	for _, a := range args {
		if c.failed() {
			return slot.Nil
		}
		reg, borrowed, err := m.RegNear(a, register.T2, c.pos())
		if err != nil {
			return c.fail("%s", err)
		}
		pushOp := slot.PUSH
		if a.IsSpliced() {
			pushOp = slot.PUSH_ARRAY
		}
		c.emit.EmitS(pushOp, uint8(reg), c.pos())
		if borrowed {
			c.top.Regs().FreeTemp(reg, register.T2)
		}
	}

	if tail {
		c.emit.EmitS(slot.TAILCALL, uint8(fnReg), c.pos())
		if fnBorrowed {
			c.top.Regs().FreeTemp(fnReg, register.T5)
		}
		return slot.Slot{Index: -1, EnvIndex: -1, Flags: slot.FlagReturned}
	}

	dst, err := c.top.Regs().Alloc1()
	if err != nil {
		return c.fail("%s", err)
	}
	c.emit.EmitSS(slot.CALL, uint8(dst), uint8(fnReg), c.pos())
	if fnBorrowed {
		c.top.Regs().FreeTemp(fnReg, register.T5)
	}
	return slot.Local(dst)
}
