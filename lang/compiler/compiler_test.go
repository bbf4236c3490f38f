package compiler_test

import (
	"strings"
	"testing"

	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/scope"
	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytecodeAndSourceMapStayParallel(t *testing.T) {
	fd := mustCompile(t, tuple(sym("+"), value.Int(1), value.Int(2)), nil)
	assert.Equal(t, len(fd.Bytecode), len(fd.SourceMap))
	assert.NotZero(t, len(fd.Bytecode))
}

func TestConstantPoolDedupsRepeatedLiterals(t *testing.T) {
	prog := tuple(sym("do"),
		tuple(sym("def"), sym("a"), value.String("hello, world")),
		tuple(sym("def"), sym("b"), value.String("hello, world")),
	)
	fd := mustCompile(t, prog, nil)
	count := 0
	for _, k := range fd.Constants {
		if s, ok := k.(value.String); ok && s == "hello, world" {
			count++
		}
	}
	assert.Equal(t, 1, count, "the constant pool must dedup equal constants, not append a second copy")
}

func TestSmallIntegerLiteralLoadsViaImmediate(t *testing.T) {
	fd := mustCompile(t, value.Int(42), nil)
	out := compiler.Disassemble(fd)
	assert.Contains(t, out, "LOAD_INTEGER 0 42")
	assert.NotContains(t, out, "cindex16", "a small integer must never round-trip through the constant pool")
}

func TestLargeIntegerLiteralUsesConstantPool(t *testing.T) {
	fd := mustCompile(t, value.Int(1<<20), nil)
	out := compiler.Disassemble(fd)
	assert.Contains(t, out, "LOAD_CONSTANT 0 cindex16:0")
}

func TestGenericCallInTailPositionEmitsTailcall(t *testing.T) {
	env := newTestEnv()
	scope.DefineGlobal(env, "g", value.NilValue, false)
	prog := tuple(sym("fn"), bracketTuple(sym("x")), tuple(sym("g"), sym("x")))
	fd := mustCompile(t, prog, env)
	require.Len(t, fd.InnerDefs, 1)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.Contains(t, out, "TAILCALL")
	assert.NotContains(t, out, " CALL ")
}

func TestGenericCallInNonTailPositionEmitsCall(t *testing.T) {
	env := newTestEnv()
	scope.DefineGlobal(env, "g", value.NilValue, false)
	prog := tuple(sym("do"), tuple(sym("g"), value.Int(1)), value.Int(0))
	fd := mustCompile(t, prog, env)
	out := compiler.Disassemble(fd)
	assert.Contains(t, out, "CALL")
}

func TestTaggedArithmeticInlinesToAddInsteadOfCall(t *testing.T) {
	fd := mustCompile(t, tuple(sym("+"), value.Int(1), value.Int(2)), nil)
	out := compiler.Disassemble(fd)
	assert.Contains(t, out, "ADD ")
	assert.NotContains(t, out, "CALL")
}

func TestShadowingBuiltinNameAtGlobalScopeDisablesInlining(t *testing.T) {
	// upscope keeps the top-level (TOP-flagged) scope current, so def
	// installs a global environment entry rather than a local register;
	// headFuncTag only ever consults the global environment (§4.H), so
	// this is the one kind of rebinding that actually disables inlining.
	prog := tuple(sym("upscope"),
		tuple(sym("def"), sym("+"), tuple(sym("fn"), bracketTuple(), value.Int(0))),
		tuple(sym("+"), value.Int(1), value.Int(2)),
	)
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd)
	assert.True(t, strings.Contains(out, "CALL") || strings.Contains(out, "TAILCALL"),
		"rebinding a built-in name in the global environment must fall back to a generic call")
}

func TestCompileErrorReportsUnresolvedSymbol(t *testing.T) {
	env := newTestEnv()
	res := compiler.Compile(sym("undefined-name"), env, "<test>")
	require.Nil(t, res.FuncDef)
	assert.Contains(t, res.Err, "unresolved symbol")
}
