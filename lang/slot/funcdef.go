package slot

import "github.com/mna/ember/lang/value"

// DefFlag records a FuncDef's variadic shape (§3 FuncDef, §6 flags).
type DefFlag uint8

const (
	// FlagVararg marks a function accepting a trailing `&rest` tuple of
	// extra positional arguments.
	FlagVararg DefFlag = 1 << iota
	// FlagStructArg marks a function accepting a trailing `&keys` struct of
	// extra named arguments.
	FlagStructArg
)

func (f DefFlag) HasVararg() bool    { return f&FlagVararg != 0 }
func (f DefFlag) HasStructArg() bool { return f&FlagStructArg != 0 }

// FuncDef is the opaque record the compiler hands to the VM (§3, §6): one
// compiled function, produced by pop_funcdef when its scope closes.
type FuncDef struct {
	Name string // optional; empty for anonymous functions

	MinArity int
	MaxArity int // -1 when unbounded (HasVararg or HasStructArg)
	Flags    DefFlag
	Tag      value.FuncTag // FUN_ADD etc., set by the environment that seeds a built-in, not by the compiler itself

	Bytecode   []uint32
	SourceMap  []Position // nil, or parallel to Bytecode (§3 invariant)
	Constants  []value.Value
	InnerDefs  []*FuncDef
	SlotCount  int // the register allocator's high-water mark at close
}
