package compiler_test

import (
	"testing"

	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/assert"
)

func TestQuoteReturnsItsOperandUntouched(t *testing.T) {
	prog := tuple(sym("quote"), tuple(sym("a"), sym("b")))
	fd := mustCompile(t, prog, nil)
	assert.Len(t, fd.Constants, 1)
}

func TestBareUnquoteOutsideQuasiquoteFails(t *testing.T) {
	res := compiler.Compile(tuple(sym("unquote"), value.Int(1)), newTestEnv(), "<test>")
	assert.Nil(t, res.FuncDef)
	assert.Contains(t, res.Err, "unquote outside quasiquote")
}

func TestQuasiquoteSplicesInAnUnquotedExpressionAtLevelZero(t *testing.T) {
	// (quasiquote (a (unquote (+ 1 2)) b))
	prog := tuple(sym("quasiquote"),
		tuple(sym("a"), tuple(sym("unquote"), tuple(sym("+"), value.Int(1), value.Int(2))), sym("b")))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd)
	assert.Contains(t, out, "ADD ", "the unquoted (+ 1 2) must compile and inline like any other call")
	assert.Contains(t, out, "MAKE_TUPLE")
}

func TestNestedQuasiquoteLeavesDeeperUnquoteUncompiled(t *testing.T) {
	// (quasiquote (quasiquote (unquote totally-undefined-name)))
	// the inner unquote is one level too deep to fire, so its operand must
	// stay quoted data and never go through symbol resolution — if it were
	// compiled as an expression this would fail, since the name is unbound.
	prog := tuple(sym("quasiquote"),
		tuple(sym("quasiquote"), tuple(sym("unquote"), sym("totally-undefined-name"))))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd)
	assert.Contains(t, out, "MAKE_TUPLE")
}

func TestSpliceMarksItsOperandForArrayExpansion(t *testing.T) {
	// (fn [xs] @[1 (splice xs) 2])
	prog := tuple(sym("fn"), bracketTuple(sym("xs")),
		array(value.Int(1), tuple(sym("splice"), sym("xs")), value.Int(2)))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.Contains(t, out, "PUSH_ARRAY", "a spliced element pushes via PUSH_ARRAY instead of plain PUSH")
	assert.Contains(t, out, "MAKE_ARRAY")
}
