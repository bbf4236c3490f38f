package compiler

import (
	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// inlineRule is one entry of the inliner table (§4.H): given the already
// compiled argument slots, canOptimize reports whether this call shape
// (mostly: arity) is eligible, and optimize emits the primitive opcode in
// place of a generic CALL.
type inlineRule struct {
	canOptimize func(args []slot.Slot) bool
	optimize    func(c *Compiler, args []slot.Slot) slot.Slot
}

var inlinerTable = map[value.FuncTag]inlineRule{
	value.TagAdd:              binaryRule(slot.ADD),
	value.TagSubtract:         binaryRule(slot.SUBTRACT),
	value.TagMultiply:         binaryRule(slot.MULTIPLY),
	value.TagDivide:           binaryRule(slot.DIVIDE),
	value.TagEquals:           binaryRule(slot.EQUALS),
	value.TagLessThan:         binaryRule(slot.NUMERIC_LESS_THAN),
	value.TagLessThanEqual:    binaryRule(slot.NUMERIC_LESS_THAN_EQUAL),
	value.TagGreaterThan:      binaryRule(slot.NUMERIC_GREATER_THAN),
	value.TagGreaterThanEqual: binaryRule(slot.NUMERIC_GREATER_THAN_EQUAL),
	value.TagGet:              binaryRule(slot.GET),
	value.TagLength: {
		canOptimize: func(args []slot.Slot) bool { return len(args) == 1 },
		optimize: func(c *Compiler, args []slot.Slot) slot.Slot {
			m := c.materializer()
			src, borrowed, err := m.RegNear(args[0], register.T2, c.pos())
			if err != nil {
				return c.fail("%s", err)
			}
			dst, err := c.top.Regs().Alloc1()
			if err != nil {
				return c.fail("%s", err)
			}
			c.emit.EmitSS(slot.LENGTH, uint8(dst), uint8(src), c.pos())
			if borrowed {
				c.top.Regs().FreeTemp(src, register.T2)
			}
			return slot.Local(dst)
		},
	},
	value.TagPut: {
		canOptimize: func(args []slot.Slot) bool { return len(args) == 3 },
		optimize: func(c *Compiler, args []slot.Slot) slot.Slot {
			m := c.materializer()
			obj, bObj, err := m.RegNear(args[0], register.T2, c.pos())
			if err != nil {
				return c.fail("%s", err)
			}
			key, bKey, err := m.RegNear(args[1], register.T3, c.pos())
			if err != nil {
				return c.fail("%s", err)
			}
			val, bVal, err := m.RegNear(args[2], register.T4, c.pos())
			if err != nil {
				return c.fail("%s", err)
			}
			c.emit.EmitSSS(slot.PUT, uint8(obj), uint8(key), uint8(val), c.pos())
			if bObj {
				c.top.Regs().FreeTemp(obj, register.T2)
			}
			if bKey {
				c.top.Regs().FreeTemp(key, register.T3)
			}
			if bVal {
				c.top.Regs().FreeTemp(val, register.T4)
			}
			return args[2]
		},
	},
}

// binaryRule builds the common two-argument-in, one-result-out inline
// shape shared by arithmetic, numeric comparison, and GET (§4.H).
func binaryRule(op slot.Opcode) inlineRule {
	return inlineRule{
		canOptimize: func(args []slot.Slot) bool { return len(args) == 2 },
		optimize: func(c *Compiler, args []slot.Slot) slot.Slot {
			m := c.materializer()
			a, bA, err := m.RegNear(args[0], register.T2, c.pos())
			if err != nil {
				return c.fail("%s", err)
			}
			b, bB, err := m.RegNear(args[1], register.T3, c.pos())
			if err != nil {
				return c.fail("%s", err)
			}
			dst, err := c.top.Regs().Alloc1()
			if err != nil {
				return c.fail("%s", err)
			}
			c.emit.EmitSSS(op, uint8(dst), uint8(a), uint8(b), c.pos())
			if bA {
				c.top.Regs().FreeTemp(a, register.T2)
			}
			if bB {
				c.top.Regs().FreeTemp(b, register.T3)
			}
			return slot.Local(dst)
		},
	}
}

// headFuncTag peeks at the compile-time value currently bound to a global
// symbol to find a tagged built-in's FuncTag (§4.H, §9 "a runtime
// convention, not a syntactic one"): rebinding the name to a different
// value changes or removes the tag the inliner sees, exactly as intended.
func (c *Compiler) headFuncTag(headSym value.Symbol) value.FuncTag {
	entry, ok := c.env.Lookup(string(headSym))
	if !ok || entry.Ref == nil || len(entry.Ref.Elements) == 0 {
		return value.TagNone
	}
	if cf, ok := entry.Ref.Elements[0].(*value.CFunction); ok {
		return cf.Tag
	}
	return value.TagNone
}
