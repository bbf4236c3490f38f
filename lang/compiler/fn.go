package compiler

import (
	"github.com/mna/ember/lang/scope"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// Parameter-list section markers (§4.F fn).
const (
	paramRest  = value.Symbol("&")
	paramOpt   = value.Symbol("&opt")
	paramKeys  = value.Symbol("&keys")
	paramNamed = value.Symbol("&named")
)

// compileFn implements `fn [name]? [params] body...` (§4.F): the optional
// leading symbol is a self-reference name, the first tuple/array is the
// parameter list, and everything after is the function body.
func compileFn(c *Compiler, tail bool, args []value.Value) slot.Slot {
	if len(args) < 1 {
		return c.fail("wrong arity for fn: expected at least a parameter list")
	}

	var selfName string
	rest := args
	if sym, ok := args[0].(value.Symbol); ok {
		selfName = string(sym)
		rest = args[1:]
	}
	if len(rest) < 1 {
		return c.fail("wrong arity for fn: expected a parameter list")
	}

	var params []value.Value
	switch p := rest[0].(type) {
	case *value.Tuple:
		params = p.Elements
	case *value.Array:
		params = p.Elements
	default:
		return c.fail("fn parameter list must be a tuple or array")
	}
	body := rest[1:]

	parent := c.top
	fn := c.pushScope(scope.FUNCTION, "fn")

	minArity, maxArity, flags := c.bindParams(params)
	if c.failed() {
		return slot.Nil
	}

	if selfName != "" {
		if _, shadowed := paramNames(params)[selfName]; !shadowed {
			dst, err := fn.Regs().Alloc1()
			if err != nil {
				return c.fail("%s", err)
			}
			c.emit.EmitS(slot.LOAD_SELF, uint8(dst), c.pos())
			fn.Bind(selfName, slot.Local(dst).WithFlags(slot.FlagNamed))
		}
	}

	var last slot.Slot
	for i, form := range body {
		if c.failed() {
			break
		}
		last = c.compileValue(form, i == len(body)-1)
	}
	if !c.failed() && !last.IsReturned() {
		c.emitReturn(last)
	}

	fd := c.popFuncDef(fn)
	fd.Name = selfName
	fd.MinArity = minArity
	fd.MaxArity = maxArity
	fd.Flags = flags

	if c.failed() {
		return slot.Nil
	}

	idx := parent.AddInnerDef(fd)
	dst, err := parent.Regs().Alloc1()
	if err != nil {
		return c.fail("%s", err)
	}
	c.emit.EmitSU(slot.CLOSURE, uint8(dst), uint16(idx), c.pos())
	return slot.Local(dst)
}

// paramNames collects every parameter name symbol in params (every symbol
// except the &, &opt, &keys and &named markers), for the self-name shadow
// check.
func paramNames(params []value.Value) map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range params {
		if sym, ok := p.(value.Symbol); ok {
			switch sym {
			case paramRest, paramOpt, paramKeys, paramNamed:
				continue
			}
			out[string(sym)] = struct{}{}
		}
	}
	return out
}

// bindParams parses the parameter list's sections and binds each name to
// the register the calling convention already places it in: required
// params occupy the lowest registers in order, followed by `&opt`
// optionals, a trailing `&rest` tuple or `&keys` struct, with `&named`
// params read back out of the preceding struct register (§4.F fn:
// "named-keyword args, desugared into destructuring of an options
// struct").
func (c *Compiler) bindParams(params []value.Value) (minArity, maxArity int, flags slot.DefFlag) {
	section := "required"
	namedStructReg := -1
	for _, p := range params {
		if sym, ok := p.(value.Symbol); ok {
			switch sym {
			case paramRest:
				section = "rest"
				flags |= slot.FlagVararg
				continue
			case paramOpt:
				section = "opt"
				continue
			case paramKeys:
				section = "keys"
				flags |= slot.FlagStructArg
				continue
			case paramNamed:
				section = "named"
				flags |= slot.FlagStructArg
				continue
			}
		}

		if section == "named" {
			sym, ok := p.(value.Symbol)
			if !ok {
				c.fail("&named parameters must be symbols")
				return
			}
			if namedStructReg < 0 {
				reg, err := c.top.Regs().Alloc1()
				if err != nil {
					c.fail("%s", err)
					return
				}
				namedStructReg = reg
				maxArity = -1
			}
			keyReg, err := c.top.Regs().Alloc1()
			if err != nil {
				c.fail("%s", err)
				return
			}
			m := c.materializer()
			if err := m.LoadConst(uint8(keyReg), value.Keyword(sym), c.pos()); err != nil {
				c.fail("%s", err)
				return
			}
			dst, err := c.top.Regs().Alloc1()
			if err != nil {
				c.fail("%s", err)
				return
			}
			c.emit.EmitSSS(slot.GET, uint8(dst), uint8(namedStructReg), uint8(keyReg), c.pos())
			c.top.Bind(string(sym), slot.Local(dst).WithFlags(slot.FlagNamed))
			continue
		}

		reg, err := c.top.Regs().Alloc1()
		if err != nil {
			c.fail("%s", err)
			return
		}
		switch section {
		case "required":
			minArity++
			maxArity++
		case "opt":
			maxArity++
		case "rest", "keys":
			maxArity = -1
		}
		c.bindPattern(p, slot.Local(reg), false, nil)
		if c.failed() {
			return
		}
	}
	return minArity, maxArity, flags
}
