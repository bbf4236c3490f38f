package compiler

import (
	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/scope"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// compileIf implements `if cond then [else]` (§4.F): a constant-true
// condition elides the test entirely; `(= nil x)`/`(not= nil x)` lower to
// the dedicated nil-compare jumps instead of EQUALS+JUMP_IF_NOT.
func compileIf(c *Compiler, tail bool, args []value.Value) slot.Slot {
	if len(args) < 2 || len(args) > 3 {
		return c.fail("wrong arity for if: expected a condition, a then branch, and an optional else branch")
	}
	cond, thenForm := args[0], args[1]
	var elseForm value.Value
	if len(args) == 3 {
		elseForm = args[2]
	}

	if isConstantTrue(cond) {
		return c.compileValue(thenForm, tail)
	}

	nilCheckReg, nilCheckOp, ok := c.nilCompareJump(cond)
	if ok {
		exitThen := c.emit.ReserveJump(nilCheckOp, uint8(nilCheckReg), c.pos())
		return c.finishIf(exitThen, thenForm, elseForm, tail)
	}

	condSlot := c.compileValue(cond, false)
	if c.failed() {
		return slot.Nil
	}
	m := c.materializer()
	condReg, borrowed, err := m.RegNear(condSlot, register.T0, c.pos())
	if err != nil {
		return c.fail("%s", err)
	}
	exitThen := c.emit.ReserveJump(slot.JUMP_IF_NOT, uint8(condReg), c.pos())
	if borrowed {
		c.top.Regs().FreeTemp(condReg, register.T0)
	}
	return c.finishIf(exitThen, thenForm, elseForm, tail)
}

// finishIf compiles the then/else bodies once the branch jump has been
// reserved, wiring up the shared dest register (or a TAILCALL/RETURN in
// tail position, where branches need no common register at all).
func (c *Compiler) finishIf(branchJump int, thenForm, elseForm value.Value, tail bool) slot.Slot {
	thenResult := c.compileValue(thenForm, tail)
	if c.failed() {
		return slot.Nil
	}
	if tail && !thenResult.IsReturned() {
		c.emitReturn(thenResult)
	}

	if elseForm == nil {
		c.emit.PatchJump(branchJump, c.emit.Mark())
		if tail {
			c.emitReturn(slot.Nil)
			return slot.Slot{Index: -1, EnvIndex: -1, Flags: slot.FlagReturned}
		}
		return thenResult
	}

	m := c.materializer()
	var dst, exitElse int
	if !tail {
		var err error
		dst, err = c.top.Regs().Alloc1()
		if err != nil {
			return c.fail("%s", err)
		}
		reg, borrowed, err := m.RegNear(thenResult, register.T1, c.pos())
		if err != nil {
			return c.fail("%s", err)
		}
		c.emit.EmitSS(slot.MOVE_NEAR, uint8(dst), uint8(reg), c.pos())
		if borrowed {
			c.top.Regs().FreeTemp(reg, register.T1)
		}
		exitElse = c.emit.ReserveJump(slot.JUMP, 0, c.pos())
	}
	c.emit.PatchJump(branchJump, c.emit.Mark())

	elseResult := c.compileValue(elseForm, tail)
	if c.failed() {
		return slot.Nil
	}
	if tail {
		if !elseResult.IsReturned() {
			c.emitReturn(elseResult)
		}
		return slot.Slot{Index: -1, EnvIndex: -1, Flags: slot.FlagReturned}
	}
	reg, borrowed, err := m.RegNear(elseResult, register.T1, c.pos())
	if err == nil {
		c.emit.EmitSS(slot.MOVE_NEAR, uint8(dst), uint8(reg), c.pos())
		if borrowed {
			c.top.Regs().FreeTemp(reg, register.T1)
		}
	}
	c.emit.PatchJump(exitElse, c.emit.Mark())
	return slot.Local(dst)
}

// isConstantTrue reports whether v is a literal that always compiles
// truthy (§4.F if: "constant-true condition").
func isConstantTrue(v value.Value) bool {
	switch vv := v.(type) {
	case value.Nil:
		return false
	case value.Bool:
		return bool(vv)
	case value.Int, value.Number, value.String, value.Keyword:
		return true
	default:
		return false
	}
}

// nilCompareJump recognises `(= nil x)`/`(not= nil x)` and its
// argument-order twin, returning the register holding x and the dedicated
// nil-compare jump opcode to use instead of a generic EQUALS/JUMP_IF_NOT
// (§4.F if: "Condition forms (= nil X) / (not= nil X) use JUMP_IF_NIL /
// JUMP_IF_NOT_NIL").
func (c *Compiler) nilCompareJump(cond value.Value) (reg uint8, op slot.Opcode, ok bool) {
	t, isTuple := cond.(*value.Tuple)
	if !isTuple || len(t.Elements) != 3 {
		return 0, 0, false
	}
	head, isSym := t.Elements[0].(value.Symbol)
	if !isSym {
		return 0, 0, false
	}

	tag := c.headFuncTag(head)
	var jumpIfNil bool
	switch tag {
	case value.TagEquals:
		jumpIfNil = true
	case value.TagNotEquals:
		jumpIfNil = false
	default:
		return 0, 0, false
	}

	var other value.Value
	if _, isNil := t.Elements[1].(value.Nil); isNil {
		other = t.Elements[2]
	} else if _, isNil := t.Elements[2].(value.Nil); isNil {
		other = t.Elements[1]
	} else {
		return 0, 0, false
	}

	otherSlot := c.compileValue(other, false)
	if c.failed() {
		return 0, 0, false
	}
	m := c.materializer()
	r, _, err := m.RegNear(otherSlot, register.T0, c.pos())
	if err != nil {
		c.fail("%s", err)
		return 0, 0, false
	}
	if jumpIfNil {
		// The `then` branch should run when the values are equal (i.e. x is
		// nil), so the skip-past-then jump fires when x is NOT nil.
		return uint8(r), slot.JUMP_IF_NOT_NIL, true
	}
	return uint8(r), slot.JUMP_IF_NIL, true
}

// compileDo implements `do body...` (§4.F): a fresh block scope, each form
// compiled in sequence, the last form's slot kept alive in the parent.
func compileDo(c *Compiler, tail bool, args []value.Value) slot.Slot {
	return c.compileBlock(args, tail, true)
}

// compileUpscope implements `upscope body...` (§4.F): identical to `do`
// except it opens no fresh scope, so `def`/`var` inside it leak into the
// enclosing scope.
func compileUpscope(c *Compiler, tail bool, args []value.Value) slot.Slot {
	return c.compileBlock(args, tail, false)
}

func (c *Compiler) compileBlock(forms []value.Value, tail bool, fresh bool) slot.Slot {
	if fresh {
		c.pushScope(0, "do")
	}
	var last slot.Slot
	for i, form := range forms {
		if c.failed() {
			break
		}
		last = c.compileValue(form, tail && i == len(forms)-1)
	}
	if fresh {
		if c.failed() {
			c.top = scope.Pop(c.top)
			return slot.Nil
		}
		return c.popScope(last)
	}
	return last
}

// compileWhile implements `while cond body...` (§4.F): the standard
// back-edge loop, with the closure-capture special case: if compiling the
// body set the loop scope's CLOSURE flag (a nested fn captured one of its
// bindings), the loop is truncated and recompiled as an
// immediately tail-recursive function, so each iteration gets its own
// heap cell for any boxed local.
func compileWhile(c *Compiler, tail bool, args []value.Value) slot.Slot {
	if len(args) < 1 {
		return c.fail("wrong arity for while: expected a condition")
	}
	cond, body := args[0], args[1:]

	loopStart := c.emit.Mark()
	snapshot := c.top.Regs().Clone()
	_, closed := c.compileWhileOnce(cond, body, loopStart)
	if c.failed() {
		return slot.Nil
	}

	if closed {
		c.emit.Truncate(loopStart)
		c.top.Regs().RestoreFrom(snapshot)
		return c.compileWhileAsTailRecursiveFn(cond, body)
	}
	return slot.Nil
}

// compileWhileOnce compiles one speculative pass of the loop body and
// reports whether the while scope picked up the CLOSURE flag (a nested
// fn captured one of its bindings), which the caller must react
// to by discarding this pass and recompiling as a tail-recursive function.
func (c *Compiler) compileWhileOnce(cond value.Value, body []value.Value, loopStart int) (result slot.Slot, closed bool) {
	whileScope := c.pushScope(scope.WHILE, "while")

	var exitJump int
	constTrue := isConstantTrue(cond)
	if !constTrue {
		condSlot := c.compileValue(cond, false)
		if c.failed() {
			return slot.Nil, false
		}
		m := c.materializer()
		condReg, borrowed, err := m.RegNear(condSlot, register.T0, c.pos())
		if err != nil {
			c.fail("%s", err)
			return slot.Nil, false
		}
		exitJump = c.emit.ReserveJump(slot.JUMP_IF_NOT, uint8(condReg), c.pos())
		if borrowed {
			c.top.Regs().FreeTemp(condReg, register.T0)
		}
	}

	for _, form := range body {
		if c.failed() {
			break
		}
		c.compileValue(form, false)
	}
	if c.failed() {
		return slot.Nil, false
	}

	c.emit.EmitJump(slot.JUMP, 0, loopStart, c.pos())
	exitPC := c.emit.Mark()
	if !constTrue {
		c.emit.PatchJump(exitJump, exitPC)
	}
	c.emit.ResolveBreaks(whileScope.BytecodeStart(), exitPC, exitPC)

	closed = whileScope.Flags().IsClosure()
	c.top = scope.Pop(whileScope)
	return slot.Nil, closed
}

// compileWhileAsTailRecursiveFn is the while/closure fallback: the loop
// becomes its own nullary function, called once immediately, whose body
// ends with a TAILCALL back to itself instead of a JUMP back-edge.
func (c *Compiler) compileWhileAsTailRecursiveFn(cond value.Value, body []value.Value) slot.Slot {
	parent := c.top
	fn := c.pushScope(scope.FUNCTION, "while-loop")

	selfReg, err := fn.Regs().Alloc1()
	if err != nil {
		return c.fail("%s", err)
	}
	c.emit.EmitS(slot.LOAD_SELF, uint8(selfReg), c.pos())

	var exitJump int
	constTrue := isConstantTrue(cond)
	if !constTrue {
		condSlot := c.compileValue(cond, false)
		if c.failed() {
			return slot.Nil
		}
		m := c.materializer()
		condReg, borrowed, cerr := m.RegNear(condSlot, register.T0, c.pos())
		if cerr != nil {
			return c.fail("%s", cerr)
		}
		exitJump = c.emit.ReserveJump(slot.JUMP_IF_NOT, uint8(condReg), c.pos())
		if borrowed {
			c.top.Regs().FreeTemp(condReg, register.T0)
		}
	}

	for _, form := range body {
		if c.failed() {
			break
		}
		c.compileValue(form, false)
	}
	if c.failed() {
		return slot.Nil
	}

	c.emit.EmitS(slot.TAILCALL, uint8(selfReg), c.pos())
	if !constTrue {
		c.emit.PatchJump(exitJump, c.emit.Mark())
	}
	c.emit.EmitS(slot.RETURN_NIL, 0, c.pos())

	fd := c.popFuncDef(fn)
	if c.failed() {
		return slot.Nil
	}
	idx := parent.AddInnerDef(fd)
	dst, err := parent.Regs().Alloc1()
	if err != nil {
		return c.fail("%s", err)
	}
	c.emit.EmitSU(slot.CLOSURE, uint8(dst), uint16(idx), c.pos())
	c.emit.EmitSS(slot.CALL, uint8(dst), uint8(dst), c.pos())
	return slot.Local(dst)
}

// compileBreak implements `break` (§4.F): inside a while scope it emits a
// tagged placeholder jump resolved at the loop's close; inside a bare
// function scope with no enclosing while, it behaves as an early return.
func compileBreak(c *Compiler, tail bool, args []value.Value) slot.Slot {
	if len(args) != 0 {
		return c.fail("wrong arity for break: expected no arguments")
	}
	target := c.top.NearestWhileOrFunction()
	if target == nil || !target.Flags().IsWhile() {
		c.emitReturn(slot.Nil)
		return slot.Slot{Index: -1, EnvIndex: -1, Flags: slot.FlagReturned}
	}
	c.emit.ReserveJump(slot.TaggedBreakJump(), 0, c.pos())
	return slot.Nil
}
