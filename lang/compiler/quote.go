package compiler

import (
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// maxQuasiquoteDepth bounds quasiquote's recursive nesting-level walk
// (§4.F quasiquote, §7 "quasiquote too deeply nested").
const maxQuasiquoteDepth = 200

// compileQuoteForm implements `quote x` (§4.F): returns the operand
// untouched, as a constant.
func compileQuoteForm(c *Compiler, tail bool, args []value.Value) slot.Slot {
	if len(args) != 1 {
		return c.fail("wrong arity for quote: expected exactly one operand")
	}
	return cslot(args[0])
}

// compileBareUnquote implements a bare top-level `unquote`, always an
// error outside quasiquote (§4.F quasiquote: "Bare unquote outside
// quasiquote fails with a readable error").
func compileBareUnquote(c *Compiler, tail bool, args []value.Value) slot.Slot {
	return c.fail("unquote outside quasiquote")
}

// compileSpliceForm implements `splice x` (§4.F quasiquote, §4.E call):
// marks the compiled operand's slot SPLICED so the enclosing constructor
// (a call's argument list or a literal) expands it via PUSH_ARRAY /
// MAKE_*'s splice handling instead of treating it as one element.
func compileSpliceForm(c *Compiler, tail bool, args []value.Value) slot.Slot {
	if len(args) != 1 {
		return c.fail("wrong arity for splice: expected exactly one operand")
	}
	s := c.compileValue(args[0], false)
	if c.failed() {
		return slot.Nil
	}
	return s.WithFlags(slot.FlagSpliced)
}

// compileQuasiquoteForm implements `quasiquote x` (§4.F): recurses into
// collections, rewriting an unquote at nesting level zero into a compiled
// expression and reconstructing everything else via the MAKE_* opcodes.
func compileQuasiquoteForm(c *Compiler, tail bool, args []value.Value) slot.Slot {
	if len(args) != 1 {
		return c.fail("wrong arity for quasiquote: expected exactly one operand")
	}
	return c.quasiquote(args[0], 0)
}

func (c *Compiler) quasiquote(v value.Value, level int) slot.Slot {
	if level > maxQuasiquoteDepth {
		return c.fail("quasiquote too deeply nested")
	}

	if t, ok := v.(*value.Tuple); ok {
		if len(t.Elements) == 2 {
			if head, ok := t.Elements[0].(value.Symbol); ok {
				switch head {
				case "unquote":
					if level == 0 {
						return c.compileValue(t.Elements[1], false)
					}
					inner := c.quasiquote(t.Elements[1], level-1)
					if c.failed() {
						return slot.Nil
					}
					return c.emitConstructor(slot.MAKE_TUPLE, []slot.Slot{cslot(head), inner})
				case "quasiquote":
					inner := c.quasiquote(t.Elements[1], level+1)
					if c.failed() {
						return slot.Nil
					}
					return c.emitConstructor(slot.MAKE_TUPLE, []slot.Slot{cslot(head), inner})
				}
			}
		}
		slots := make([]slot.Slot, len(t.Elements))
		for i, e := range t.Elements {
			slots[i] = c.quasiquote(e, level)
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

	switch vv := v.(type) {
	case *value.Array:
		slots := make([]slot.Slot, len(vv.Elements))
		for i, e := range vv.Elements {
			slots[i] = c.quasiquote(e, level)
			if c.failed() {
				return slot.Nil
			}
		}
		return c.emitConstructor(slot.MAKE_ARRAY, slots)
	case *StructLiteral:
		slots := make([]slot.Slot, 0, len(vv.Pairs)*2)
		for _, p := range vv.Pairs {
			k := c.quasiquote(p[0], level)
			val := c.quasiquote(p[1], level)
			if c.failed() {
				return slot.Nil
			}
			slots = append(slots, k, val)
		}
		return c.emitConstructor(slot.MAKE_STRUCT, slots)
	case *TableLiteral:
		slots := make([]slot.Slot, 0, len(vv.Pairs)*2)
		for _, p := range vv.Pairs {
			k := c.quasiquote(p[0], level)
			val := c.quasiquote(p[1], level)
			if c.failed() {
				return slot.Nil
			}
			slots = append(slots, k, val)
		}
		return c.emitConstructor(slot.MAKE_TABLE, slots)
	default:
		return cslot(v)
	}
}
