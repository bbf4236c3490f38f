package scope

import (
	"github.com/dolthub/swiss"
	"github.com/mna/ember/lang/dict"
	"github.com/mna/ember/lang/value"
)

// EnvEntry is one binding in the top-level environment table: a global
// `def` or `var` (§4.D Env). Ref is always a one-element array, the same
// boxing a local `var` gets at its own declaration, so a global
// read/write compiles to the exact same GET_INDEX/PUT_INDEX pair regardless
// of which kind of binding produced it.
type EnvEntry struct {
	Ref     *value.Array
	Mutable bool
	Attrs   *dict.Struct
}

// Env is the top-level environment: the table `Resolve` falls back to once
// a symbol is not found anywhere on the scope stack, grounded on the
// teacher's lang/machine map.go Table (swiss.Map[Value, Value]), narrowed
// here to a string-keyed map since a symbol's textual name, not an
// arbitrary Value, is always the environment key.
type Env struct {
	entries *swiss.Map[string, *EnvEntry]
}

// NewEnv returns an empty top-level environment sized for roughly
// sizeHint bindings.
func NewEnv(sizeHint int) *Env {
	if sizeHint < 8 {
		sizeHint = 8
	}
	return &Env{entries: swiss.NewMap[string, *EnvEntry](uint32(sizeHint))}
}

// Lookup returns the entry bound to name, if any.
func (e *Env) Lookup(name string) (*EnvEntry, bool) {
	return e.entries.Get(name)
}

// Define installs or replaces the entry bound to name (`def`/`var` at top
// level, §4.F def/var).
func (e *Env) Define(name string, entry *EnvEntry) {
	e.entries.Put(name, entry)
}

// Each calls fn once per binding, in unspecified order.
func (e *Env) Each(fn func(name string, entry *EnvEntry)) {
	e.entries.Iter(func(k string, v *EnvEntry) bool {
		fn(k, v)
		return false
	})
}

// Len returns the number of top-level bindings.
func (e *Env) Len() int { return e.entries.Count() }
