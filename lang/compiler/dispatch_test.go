package compiler_test

import (
	"strings"
	"testing"

	"github.com/mna/ember/lang/compiler"
	"github.com/stretchr/testify/assert"
)

func TestMultisymCompilesToAChainOfTwoGets(t *testing.T) {
	// (fn [x] x.y:z)
	prog := tuple(sym("fn"), bracketTuple(sym("x")), sym("x.y:z"))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.Equal(t, 2, strings.Count(out, "GET "), "a two-segment multisym must emit exactly two GET instructions in sequence")
}

func TestBareSymbolDoesNotDecomposeAsMultisym(t *testing.T) {
	prog := tuple(sym("fn"), bracketTuple(sym("x")), sym("x"))
	fd := mustCompile(t, prog, nil)
	out := compiler.Disassemble(fd.InnerDefs[0])
	assert.NotContains(t, out, "GET ")
}
