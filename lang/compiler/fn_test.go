package compiler_test

import (
	"testing"

	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleFnBodyAddsItsTwoParameters(t *testing.T) {
	// (fn [x y] (+ x y))
	prog := tuple(sym("fn"), bracketTuple(sym("x"), sym("y")), tuple(sym("+"), sym("x"), sym("y")))
	fd := mustCompile(t, prog, nil)
	require.Len(t, fd.InnerDefs, 1)
	inner := fd.InnerDefs[0]
	assert.Equal(t, 2, inner.MinArity)
	assert.Equal(t, 2, inner.MaxArity)
	out := compiler.Disassemble(fd)
	assert.Contains(t, out, "CLOSURE 0 defindex16:0")
	innerOut := compiler.Disassemble(inner)
	assert.Contains(t, innerOut, "ADD 2 0 1")
	assert.Contains(t, innerOut, "RETURN 2")
}

func TestRestParamGetsVarargFlagAndUnboundedArity(t *testing.T) {
	// (fn [x & rest] x)
	prog := tuple(sym("fn"), bracketTuple(sym("x"), sym("&"), sym("rest")), sym("x"))
	fd := mustCompile(t, prog, nil)
	require.Len(t, fd.InnerDefs, 1)
	inner := fd.InnerDefs[0]
	assert.Equal(t, 1, inner.MinArity)
	assert.Equal(t, -1, inner.MaxArity)
	assert.True(t, inner.Flags.HasVararg())
}

func TestNamedParamReadsFieldOutOfOptionsStruct(t *testing.T) {
	// (fn [&named verbose] verbose)
	prog := tuple(sym("fn"), bracketTuple(sym("&named"), sym("verbose")), sym("verbose"))
	fd := mustCompile(t, prog, nil)
	require.Len(t, fd.InnerDefs, 1)
	inner := fd.InnerDefs[0]
	assert.True(t, inner.Flags.HasStructArg())
	out := compiler.Disassemble(inner)
	assert.Contains(t, out, "GET ")
}

func TestNestedFnReadsOuterImmutableBindingAsUpvalue(t *testing.T) {
	// (fn [] (def x 1) (fn [] x))
	prog := tuple(sym("fn"), bracketTuple(),
		tuple(sym("def"), sym("x"), value.Int(1)),
		tuple(sym("fn"), bracketTuple(), sym("x")))
	fd := mustCompile(t, prog, nil)
	require.Len(t, fd.InnerDefs, 1)
	outer := fd.InnerDefs[0]
	require.Len(t, outer.InnerDefs, 1)
	innermost := outer.InnerDefs[0]
	out := compiler.Disassemble(innermost)
	assert.Contains(t, out, "LOAD_UPVALUE")
}

func TestNestedFnCapturingMutableBindingBoxesItIntoARef(t *testing.T) {
	// (fn [] (var x 1) (fn [] (set x 2)))
	prog := tuple(sym("fn"), bracketTuple(),
		tuple(sym("var"), sym("x"), value.Int(1)),
		tuple(sym("fn"), bracketTuple(), tuple(sym("set"), sym("x"), value.Int(2))))
	fd := mustCompile(t, prog, nil)
	require.Len(t, fd.InnerDefs, 1)
	outer := fd.InnerDefs[0]
	require.Len(t, outer.InnerDefs, 1)
	innermost := outer.InnerDefs[0]
	out := compiler.Disassemble(innermost)
	assert.Contains(t, out, "LOAD_UPVALUE", "writing a captured mutable binding must first fetch its boxed array pointer through the upvalue chain")
	assert.Contains(t, out, "PUT_INDEX", "the write itself goes through the boxed one-element array, not a plain register move")
}

func TestSelfNameBindsLoadSelfUnlessShadowedByParam(t *testing.T) {
	// (fn loop [n] (loop n))
	prog := tuple(sym("fn"), sym("loop"), bracketTuple(sym("n")), tuple(sym("loop"), sym("n")))
	fd := mustCompile(t, prog, nil)
	require.Len(t, fd.InnerDefs, 1)
	inner := fd.InnerDefs[0]
	assert.Equal(t, "loop", inner.Name)
	out := compiler.Disassemble(inner)
	assert.Contains(t, out, "LOAD_SELF")
	assert.Contains(t, out, "TAILCALL")
}
