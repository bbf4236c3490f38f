package compiler

import (
	"github.com/mna/ember/lang/dict"
	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/scope"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// compileDef implements `def NAME ATTRS... VALUE` (§4.F).
func compileDef(c *Compiler, tail bool, args []value.Value) slot.Slot {
	return compileDefVar(c, args, false)
}

// compileVar implements `var NAME ATTRS... VALUE` (§4.F).
func compileVar(c *Compiler, tail bool, args []value.Value) slot.Slot {
	return compileDefVar(c, args, true)
}

func compileDefVar(c *Compiler, args []value.Value, mutable bool) slot.Slot {
	if len(args) < 2 {
		return c.fail("wrong arity for def/var: expected a name and a value")
	}
	pattern := args[0]
	attrForms := args[1 : len(args)-1]
	valueForm := args[len(args)-1]

	rvalue := c.compileValue(valueForm, false)
	if c.failed() {
		return slot.Nil
	}

	attrs := compileAttrs(attrForms)
	return c.bindPattern(pattern, rvalue, mutable, attrs)
}

// compileAttrs folds def/var's metadata attribute forms into a compile-time
// struct (§4.F: ":keyword -> true", "\"docstring\" -> :doc", "{...} ->
// merged"). Attribute forms are literal metadata, not expressions to
// compile.
func compileAttrs(forms []value.Value) *dict.Struct {
	var pairs [][2]value.Value
	for _, f := range forms {
		switch v := f.(type) {
		case value.Keyword:
			pairs = append(pairs, [2]value.Value{v, value.True})
		case value.String:
			pairs = append(pairs, [2]value.Value{value.Keyword("doc"), v})
		case *StructLiteral:
			for _, p := range v.Pairs {
				pairs = append(pairs, [2]value.Value{p[0], p[1]})
			}
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	return structFromPairs(pairs)
}

// namelocal binds name to rvalue's already-materialised register when
// possible, aliasing it directly instead of emitting a redundant move
// (§4.F: "aliases existing register-named slots where possible").
// RegFar already gets this for free: when rvalue is e.g. a CONSTANT slot,
// it allocates the binding's own register and has loadconst target it
// directly, with no intervening temp-then-move.
//
// A mutable binding is boxed immediately (boxLocal), not on first capture:
// this compiler emits code in a single pass over the AST, so by the time a
// nested `fn` reaches out to capture a `var`, the declaration's bytecode is
// already behind it with no facility to go back and rewrite it. Boxing
// every `var` eagerly, whether or not anything ever closes over it, is the
// only way to guarantee the one-element array §4.D's ref slots assume is
// actually there at every GET_INDEX/PUT_INDEX that touches it.
func (c *Compiler) namelocal(name string, rvalue slot.Slot, mutable bool) slot.Slot {
	if mutable {
		return c.boxLocal(name, rvalue)
	}
	m := c.materializer()
	reg, _, err := m.RegFar(rvalue, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	bound := slot.Local(reg).WithFlags(slot.FlagNamed)
	c.top.Bind(name, bound)
	return bound
}

// boxLocal implements a mutable local's declaration: wrap rvalue in a
// fresh one-element array (MAKE_ARRAY) and bind name to a RefLocal slot
// over the array's register, so every subsequent read or write — local or
// captured — goes through GET_INDEX/PUT_INDEX against that same array
// (§4.D, §8 properties 8-9). Re-running this declaration (e.g. each while
// iteration) allocates a fresh array each time, giving each iteration its
// own cell.
func (c *Compiler) boxLocal(name string, rvalue slot.Slot) slot.Slot {
	arr := c.emitConstructor(slot.MAKE_ARRAY, []slot.Slot{rvalue})
	if c.failed() {
		return slot.Nil
	}
	bound := slot.RefLocal(arr.Index).WithFlags(slot.FlagNamed)
	c.top.Bind(name, bound)
	return bound
}

// bindPattern dispatches def/var's NAME position: a plain symbol, or a
// destructuring array/struct pattern (§4.F, §8 property 15).
func (c *Compiler) bindPattern(pattern value.Value, rvalue slot.Slot, mutable bool, attrs *dict.Struct) slot.Slot {
	switch p := pattern.(type) {
	case value.Symbol:
		return c.bindName(string(p), rvalue, mutable, attrs)
	case *value.Tuple:
		return c.destructureArray(p.Elements, rvalue, mutable)
	case *value.Array:
		return c.destructureArray(p.Elements, rvalue, mutable)
	case *StructLiteral:
		return c.destructureStruct(p, rvalue, mutable)
	default:
		return c.fail("unexpected type bound in def/var: expected a symbol or a destructuring pattern")
	}
}

// bindName is the non-destructuring leaf of bindPattern: a top-scope
// binding installs a global environment entry (surviving across separate
// Compile calls that share the same env, §9); any other scope binds a
// local register via namelocal.
func (c *Compiler) bindName(name string, rvalue slot.Slot, mutable bool, attrs *dict.Struct) slot.Slot {
	if !c.top.Flags().IsTop() {
		return c.namelocal(name, rvalue, mutable)
	}

	entry := &scope.EnvEntry{Ref: value.NewArray([]value.Value{value.NilValue}), Mutable: mutable, Attrs: attrs}
	c.env.Define(name, entry)

	m := c.materializer()
	arrReg, arrBorrowed, err := m.RegNear(cslot(entry.Ref), register.T6, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	valReg, valBorrowed, err := m.RegNear(rvalue, register.T7, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	c.emit.EmitSSU(slot.PUT_INDEX, arrReg, valReg, 0, c.pos())
	if arrBorrowed {
		c.top.Regs().FreeTemp(arrReg, register.T6)
	}
	if valBorrowed {
		c.top.Regs().FreeTemp(valReg, register.T7)
	}
	return slot.Ref(entry.Ref)
}
