package compiler_test

import (
	"strings"
	"testing"

	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/assert"
)

func TestArrayDestructureWithRestEmitsIndexedGetsThenARestLoop(t *testing.T) {
	// (def [a b & rest] @[1 2 3 4])
	pattern := bracketTuple(sym("a"), sym("b"), sym("&"), sym("rest"))
	prog := tuple(sym("def"), pattern, array(value.Int(1), value.Int(2), value.Int(3), value.Int(4)))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd)

	assert.Contains(t, out, "GET_INDEX")
	assert.Contains(t, out, "LENGTH")
	assert.Contains(t, out, "NUMERIC_LESS_THAN")
	assert.Contains(t, out, "JUMP_IF_NOT")
	assert.Contains(t, out, "PUSH")
	assert.Contains(t, out, "ADD_IMMEDIATE")
	assert.Contains(t, out, "MAKE_TUPLE")
}

func TestArrayDestructureWithoutRestOnlyEmitsIndexedGets(t *testing.T) {
	// (def [a b] @[1 2])
	pattern := bracketTuple(sym("a"), sym("b"))
	prog := tuple(sym("def"), pattern, array(value.Int(1), value.Int(2)))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd)

	assert.Contains(t, out, "GET_INDEX")
	assert.NotContains(t, out, "MAKE_TUPLE", "with no `&` tail there must be no rest-collecting loop")
}

func TestStructDestructureReadsEachFieldByKey(t *testing.T) {
	// (upscope (def v nil) (def {:x a :y b} v))
	pattern := &compiler.StructLiteral{Pairs: [][2]value.Value{
		{value.Keyword("x"), sym("a")},
		{value.Keyword("y"), sym("b")},
	}}
	prog := tuple(sym("upscope"),
		tuple(sym("def"), sym("v"), value.NilValue),
		tuple(sym("def"), pattern, sym("v")),
	)
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd)

	// two struct fields means two GET reads off the same source register,
	// one per key (§4.F def/var: destructuring a struct pattern).
	assert.GreaterOrEqual(t, strings.Count(out, "GET "), 2)
}
