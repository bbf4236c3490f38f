package compiler

import (
	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// restMarker is the `&` sentinel symbol separating an array pattern's
// positional sub-patterns from its rest-collecting tail (GLOSSARY: "&
// rest").
const restMarker = value.Symbol("&")

// destructureArray implements `def [a b & rest] V` (§4.F, §8 property 15):
// each positional sub-pattern reads its element via an immediate-index
// GET_INDEX (the position is known at compile time); a trailing `& rest`
// collects the remaining elements with a runtime loop (PUSH per element,
// then MAKE_TUPLE), since the source's length is known only at runtime.
func (c *Compiler) destructureArray(elems []value.Value, rvalue slot.Slot, mutable bool) slot.Slot {
	m := c.materializer()
	rvReg, rvBorrowed, err := m.RegNear(rvalue, register.T5, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}

	i := 0
	for ; i < len(elems); i++ {
		if elems[i] == restMarker {
			break
		}
		if i > 255 {
			return c.fail("destructuring pattern too long")
		}
		dst, err := c.top.Regs().Alloc1()
		if err != nil {
			return c.fail("%s", err)
		}
		c.emit.EmitSSU(slot.GET_INDEX, uint8(dst), uint8(rvReg), uint8(i), c.pos())
		c.bindPattern(elems[i], slot.Local(dst), mutable, nil)
		if c.failed() {
			return slot.Nil
		}
	}

	if i < len(elems) && elems[i] == restMarker {
		if i+1 >= len(elems) {
			return c.fail("`&` in destructuring pattern must be followed by a rest name")
		}
		restPattern := elems[i+1]
		c.emitRestLoop(rvReg, i, restPattern, mutable)
	}

	if rvBorrowed {
		c.top.Regs().FreeTemp(rvReg, register.T5)
	}
	return rvalue
}

// emitRestLoop collects elements [from:) of the register rvReg holds into
// a tuple and binds restPattern to it (§8 property 15: "emitted code
// contains a loop that PUSHes elements and a MAKE_TUPLE").
func (c *Compiler) emitRestLoop(rvReg int, from int, restPattern value.Value, mutable bool) {
	regs := c.top.Regs()
	idxReg, err := regs.Alloc1()
	if err != nil {
		c.fail("%s", err)
		return
	}
	m := c.materializer()
	if err := m.LoadConst(uint8(idxReg), value.Int(from), c.pos()); err != nil {
		c.fail("%s", err)
		return
	}

	loopStart := c.emit.Mark()
	lenReg, err := regs.Alloc1()
	if err != nil {
		c.fail("%s", err)
		return
	}
	c.emit.EmitSS(slot.LENGTH, uint8(lenReg), uint8(rvReg), c.pos())
	condReg, err := regs.Alloc1()
	if err != nil {
		c.fail("%s", err)
		return
	}
	c.emit.EmitSSS(slot.NUMERIC_LESS_THAN, uint8(condReg), uint8(idxReg), uint8(lenReg), c.pos())
	exitJump := c.emit.ReserveJump(slot.JUMP_IF_NOT, uint8(condReg), c.pos())

	elemReg, err := regs.Alloc1()
	if err != nil {
		c.fail("%s", err)
		return
	}
	c.emit.EmitSSS(slot.GET, uint8(elemReg), uint8(rvReg), uint8(idxReg), c.pos())
	c.emit.EmitS(slot.PUSH, uint8(elemReg), c.pos())
	c.emit.EmitSSI(slot.ADD_IMMEDIATE, uint8(idxReg), uint8(idxReg), 1, c.pos())
	c.emit.EmitJump(slot.JUMP, 0, loopStart, c.pos())

	c.emit.PatchJump(exitJump, c.emit.Mark())
	restReg, err := regs.Alloc1()
	if err != nil {
		c.fail("%s", err)
		return
	}
	c.emit.EmitS(slot.MAKE_TUPLE, uint8(restReg), c.pos())
	c.bindPattern(restPattern, slot.Local(restReg), mutable, nil)
}

// destructureStruct implements `def {:k1 a :k2 b} V` (§4.F): each pattern
// key reads the matching field via GET.
func (c *Compiler) destructureStruct(pattern *StructLiteral, rvalue slot.Slot, mutable bool) slot.Slot {
	m := c.materializer()
	rvReg, rvBorrowed, err := m.RegNear(rvalue, register.T5, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	for _, p := range pattern.Pairs {
		key, ok := p[0].(value.Value)
		if !ok {
			return c.fail("struct destructuring pattern keys must be literal")
		}
		keyReg, keyBorrowed, err := m.RegNear(cslot(key), register.T6, c.pos())
		if err != nil {
			return c.fail("%s", err)
		}
		dst, err := c.top.Regs().Alloc1()
		if err != nil {
			return c.fail("%s", err)
		}
		c.emit.EmitSSS(slot.GET, uint8(dst), uint8(rvReg), uint8(keyReg), c.pos())
		if keyBorrowed {
			c.top.Regs().FreeTemp(keyReg, register.T6)
		}
		c.bindPattern(p[1], slot.Local(dst), mutable, nil)
		if c.failed() {
			return slot.Nil
		}
	}
	if rvBorrowed {
		c.top.Regs().FreeTemp(rvReg, register.T5)
	}
	return rvalue
}
