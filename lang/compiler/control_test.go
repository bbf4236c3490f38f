package compiler_test

import (
	"testing"

	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/assert"
)

func TestConstantTrueConditionElidesTheTest(t *testing.T) {
	prog := tuple(sym("if"), value.True, value.Int(1), value.Int(2))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd)
	assert.NotContains(t, out, "JUMP_IF")
	assert.Contains(t, out, "LOAD_INTEGER 0 1")
	assert.NotContains(t, out, "LOAD_INTEGER 0 2")
}

func TestNilEqualityConditionLowersToDedicatedJump(t *testing.T) {
	env := newTestEnv()
	prog := tuple(sym("fn"), bracketTuple(sym("x")),
		tuple(sym("if"), tuple(sym("="), value.NilValue, sym("x")), value.Int(1), value.Int(2)))
	fd := mustCompile(t, prog, env)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.Contains(t, out, "JUMP_IF_NOT_NIL")
	assert.NotContains(t, out, "EQUALS")
}

func TestNilInequalityConditionLowersToDedicatedJump(t *testing.T) {
	env := newTestEnv()
	prog := tuple(sym("fn"), bracketTuple(sym("x")),
		tuple(sym("if"), tuple(sym("not="), sym("x"), value.NilValue), value.Int(1), value.Int(2)))
	fd := mustCompile(t, prog, env)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.Contains(t, out, "JUMP_IF_NIL")
}

func TestIfWithoutElseSkipsThenOnFalseCondition(t *testing.T) {
	prog := tuple(sym("fn"), bracketTuple(sym("x")), tuple(sym("if"), sym("x"), value.Int(1)))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.Contains(t, out, "JUMP_IF_NOT")
}

func TestBreakInsideWhileResolvesToLoopExit(t *testing.T) {
	env := newTestEnv()
	prog := tuple(sym("fn"), bracketTuple(),
		tuple(sym("while"), value.True, tuple(sym("break"))))
	fd := mustCompile(t, prog, env)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.NotContains(t, out, "break@", "every break placeholder must be resolved by the time the FuncDef is finished")
	assert.Contains(t, out, "JUMP")
}

func TestBreakOutsideWhileActsAsEarlyReturn(t *testing.T) {
	prog := tuple(sym("fn"), bracketTuple(), tuple(sym("break")))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.Contains(t, out, "RETURN_NIL")
}

func TestWhileClosingOverLoopLocalRecompilesAsTailRecursiveFn(t *testing.T) {
	env := newTestEnv()
	// (fn [] (while true (def x 0) (fn [] x)))
	// x is declared inside the while scope itself (§8 property 9's
	// "while-closure re-emit" example); the inner fn captures it by
	// reference, which forces the while loop to discover CLOSURE on its
	// scope and re-emit as a tail-recursive function instead of a plain
	// back-edge loop.
	prog := tuple(sym("fn"), bracketTuple(),
		tuple(sym("while"), value.True,
			tuple(sym("def"), sym("x"), value.Int(0)),
			tuple(sym("fn"), bracketTuple(), sym("x"))))
	fd := mustCompile(t, prog, env)
	outer := fd.InnerDefs[0]
	out := compiler.Disassemble(outer)
	assert.Contains(t, out, "LOAD_SELF", "the while loop must have been rewritten into its own self-recursive function")
	assert.Contains(t, out, "TAILCALL")
	assert.NotContains(t, out, "break@")
}

func TestWhileWithoutClosureCaptureStaysAPlainLoop(t *testing.T) {
	env := newTestEnv()
	prog := tuple(sym("fn"), bracketTuple(),
		tuple(sym("var"), sym("x"), value.Int(0)),
		tuple(sym("while"), value.True,
			tuple(sym("set"), sym("x"), value.Int(1)),
			tuple(sym("break"))))
	fd := mustCompile(t, prog, env)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.NotContains(t, out, "LOAD_SELF")
}
