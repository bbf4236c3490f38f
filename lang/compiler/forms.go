package compiler

import (
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// specialFormFunc compiles one special form's argument list (the tuple
// elements after the leading symbol), per §4.F.
type specialFormFunc func(c *Compiler, tail bool, args []value.Value) slot.Slot

// specialForms is consulted by compileTuple before falling back to a
// regular call (§4.E: "if the head is a symbol naming a special form...
// dispatch").
var specialForms = map[string]specialFormFunc{
	"def":        compileDef,
	"var":        compileVar,
	"set":        compileSet,
	"fn":         compileFn,
	"if":         compileIf,
	"do":         compileDo,
	"upscope":    compileUpscope,
	"while":      compileWhile,
	"break":      compileBreak,
	"quote":      compileQuoteForm,
	"quasiquote": compileQuasiquoteForm,
	"unquote":    compileBareUnquote,
	"splice":     compileSpliceForm,
}
