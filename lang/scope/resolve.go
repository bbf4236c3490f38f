package scope

import (
	"fmt"

	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
)

// Resolve implements §4.D symbol resolution: search the current function's
// own scopes first, then walk outward across function boundaries building
// an upvalue chain (every mutable binding crossed is already boxed into a
// REF from its own declaration, §4.F def/var), and finally fall back to
// the top-level environment.
func Resolve(leaf *Scope, env *Env, name string) (slot.Slot, error) {
	fn := leaf.nearestFunction()
	if fn == nil {
		return slot.Nil, fmt.Errorf("internal error: no enclosing function scope")
	}
	if b, _, ok := lookupWithinFunction(leaf, fn, name); ok {
		return b.Slot, nil
	}
	if sl, ok, err := resolveUpvalueChain(leaf, fn, name); err != nil {
		return slot.Nil, err
	} else if ok {
		return sl, nil
	}
	if entry, ok := env.Lookup(name); ok {
		return slot.Ref(entry.Ref), nil
	}
	return slot.Nil, fmt.Errorf("unresolved symbol: %s", name)
}

// lookupWithinFunction scans from leaf outward, stopping once it reaches a
// scope above fn (i.e. never crossing a function boundary), and also
// returns the scope owning the binding (needed to mark an enclosing WHILE
// scope CLOSURE on first capture, §4.F while).
func lookupWithinFunction(leaf, fn *Scope, name string) (*Binding, *Scope, bool) {
	for cur := leaf; cur != nil; cur = cur.parent {
		if b, ok := cur.lookupLocal(name); ok {
			return b, cur, true
		}
		if cur == fn {
			break
		}
	}
	return nil, nil, false
}

// markEnclosingWhileClosed walks from owner up to (and including) fn,
// setting CLOSURE on every WHILE scope it passes through: a closure
// compiled anywhere inside the loop body that reaches out to capture one
// of the loop's own bindings — mutable or not — forces the whole loop to
// recompile as a tail-recursive function, so each iteration gets its own
// activation instead of every captured closure aliasing the same register
// (§4.F while, §8 property 9).
func markEnclosingWhileClosed(owner, fn *Scope) {
	for cur := owner; cur != nil; cur = cur.parent {
		if cur.flags.IsWhile() {
			cur.SetFlags(CLOSURE)
		}
		if cur == fn {
			break
		}
	}
}

// resolveUpvalueChain searches enclosing functions outward from fn's
// parent, and on a hit threads an EnvRef chain back down through every
// intermediate function scope to fn, returning an Upvalue/RefUpvalue slot
// local to fn.
func resolveUpvalueChain(leaf, fn *Scope, name string) (slot.Slot, bool, error) {
	if fn.parent == nil {
		return slot.Nil, false, nil
	}
	outerLeaf := fn.parent
	outerFn := outerLeaf.nearestFunction()
	if outerFn == nil {
		return slot.Nil, false, nil
	}

	// Find the binding in the outer function (recursively, so a capture
	// three functions out threads an EnvRef through every level in between).
	var (
		b          *Binding
		outerSlot  slot.Slot
		fromUpward bool
	)
	var owner *Scope
	if found, foundOwner, ok := lookupWithinFunction(outerLeaf, outerFn, name); ok {
		b = found
		owner = foundOwner
	} else {
		sl, ok, err := resolveUpvalueChain(outerLeaf, outerFn, name)
		if err != nil {
			return slot.Nil, false, err
		}
		if !ok {
			return slot.Nil, false, nil
		}
		outerSlot = sl
		fromUpward = true
	}

	if !fromUpward {
		// b.Slot lives directly in outerFn. A mutable binding the compiler
		// produced is already boxed into a RefLocal/RefUpvalue at its own
		// declaration (namelocal's boxLocal, §4.D); a plain mutable local slot
		// is rewritten to a RefLocal in place below, so every scope sharing the
		// Binding sees the REF. This rewrite emits no bytecode. Reaching across
		// a function boundary to capture ANY binding — mutable or not — owned
		// by a while scope still means that loop needs a fresh activation per
		// iteration, or every closure created across iterations would alias
		// the same register (§4.F while, §8 property 9): marking is not
		// conditioned on mutability, since an immutable `def` re-declared each
		// iteration is just as aliased as a `var` without the recompile.
		markEnclosingWhileClosed(owner, outerFn)
		if b.Slot.IsMutable() && !b.Slot.IsRef() && !b.Slot.IsUpvalue() {
			b.Slot = slot.RefLocal(b.Slot.Index).WithFlags(b.Slot.Flags)
		}
		outerSlot = b.Slot
	}

	idx := fn.AddEnv(EnvRef{ParentIsLocal: !outerSlot.IsUpvalue(), Index: localOrEnvIndex(outerSlot)})

	if outerSlot.IsRef() {
		return slot.RefUpvalue(idx), true, nil
	}
	return slot.Upvalue(idx), true, nil
}

func localOrEnvIndex(s slot.Slot) int {
	if s.IsUpvalue() {
		return s.EnvIndex
	}
	return s.Index
}

// DefineGlobal installs a fresh top-level binding, boxing its initial value
// into the one-element array every global read/write dereferences (§4.F
// def/var at top level).
func DefineGlobal(env *Env, name string, initial value.Value, mutable bool) {
	env.Define(name, &EnvEntry{Ref: value.NewArray([]value.Value{initial}), Mutable: mutable})
}
