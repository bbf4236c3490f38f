// Package scope implements the compiler's lexical scope stack, symbol
// table, and upvalue/ref resolution (§4.D), grounded on the vocabulary of
// the teacher's lang/resolver package (Binding, Scope kinds Local/Cell/Free)
// generalized from its statement-tree AST-annotation style to the
// push/pop stack the register-based compiler needs.
package scope

import (
	"fmt"

	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/slot"
)

// Flag is the bitset of a Scope's kind (§3 Scope: "flag bits {FUNCTION,
// ENV, TOP, UNUSED, CLOSURE, WHILE}").
type Flag uint16

const (
	// FUNCTION marks a scope that owns its own register allocator, constant
	// pool, and inner-FuncDef list: a function body (including the top
	// level).
	FUNCTION Flag = 1 << iota
	// ENV marks the scope whose envs list resolution targets. No scope is
	// pushed with it in this compiler; the top scope is FUNCTION|TOP.
	ENV
	// TOP marks the outermost scope of a compilation.
	TOP
	// UNUSED is part of the flag set; no scope in this compiler is pushed
	// with it (a while loop's speculative pass uses a plain WHILE scope).
	UNUSED
	// CLOSURE is set on a WHILE scope the moment a closure capturing one of
	// its bindings is compiled, triggering the re-emit fallback
	// (§4.F while).
	CLOSURE
	// WHILE marks a while-loop's body scope, the nearest target for break.
	WHILE
)

func (f Flag) has(bit Flag) bool { return f&bit != 0 }

func (f Flag) IsFunction() bool { return f.has(FUNCTION) }
func (f Flag) IsTop() bool      { return f.has(TOP) }
func (f Flag) IsUnused() bool   { return f.has(UNUSED) }
func (f Flag) IsClosure() bool  { return f.has(CLOSURE) }
func (f Flag) IsWhile() bool    { return f.has(WHILE) }

// EnvRef is one entry in a function scope's envs list: "where in the
// parent's envs to find this one" (§4.D). ParentIsLocal true means Index
// names a register directly local to the immediately enclosing function;
// false means Index names an entry in that function's own envs list (the
// capture reaches further out still).
type EnvRef struct {
	ParentIsLocal bool
	Index         int
}

// Binding ties a symbol to the slot it currently resolves to. It is shared
// by pointer across every Scope that references it, so rewriting Slot in
// place (the MUTABLE→REF conversion on first capture, §4.D) is visible
// everywhere the symbol was already resolved.
type Binding struct {
	Name string
	Slot slot.Slot
}

// Scope is one node of the compiler's scope stack (§3 Scope).
type Scope struct {
	parent *Scope
	flags  Flag
	name   string

	syms []*Binding // recency-ordered; last insertion wins on lookup

	consts *slot.ConstPool  // populated only for function scopes
	defs   []*slot.FuncDef  // inner defs; populated only for function scopes
	regs   *register.Allocator
	envs   []EnvRef // upvalue list; populated only for function scopes

	bytecodeStart int // first instruction belonging to this scope
}

// Push links a new scope onto the stack rooted at parent (nil for the very
// first, top-level scope).
func Push(parent *Scope, flags Flag, name string, bytecodeStart int) *Scope {
	s := &Scope{parent: parent, flags: flags, name: name, bytecodeStart: bytecodeStart}
	if flags.IsFunction() {
		s.consts = &slot.ConstPool{}
		s.regs = register.New()
	}
	return s
}

// Parent returns the enclosing scope, or nil for the top scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Flags returns the scope's flag bits.
func (s *Scope) Flags() Flag { return s.flags }

// SetFlags ORs extra bits into the scope's flags (used to set CLOSURE when
// a capturing closure is compiled inside a while scope).
func (s *Scope) SetFlags(add Flag) { s.flags |= add }

// Name returns the scope's debug name.
func (s *Scope) Name() string { return s.name }

// BytecodeStart returns the first instruction index belonging to this
// scope.
func (s *Scope) BytecodeStart() int { return s.bytecodeStart }

// nearestFunction returns s if it is a function scope, else the nearest
// enclosing one.
func (s *Scope) nearestFunction() *Scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.flags.IsFunction() {
			return cur
		}
	}
	return nil
}

// Regs returns the register allocator owned by the nearest enclosing
// function scope (every block scope shares its function's allocator).
func (s *Scope) Regs() *register.Allocator {
	if f := s.nearestFunction(); f != nil {
		return f.regs
	}
	return nil
}

// Consts returns the constant pool owned by the nearest enclosing function
// scope.
func (s *Scope) Consts() *slot.ConstPool {
	if f := s.nearestFunction(); f != nil {
		return f.consts
	}
	return nil
}

// nearestWhileOrFunction finds the nearest scope with WHILE or FUNCTION
// set, for `break` (§4.F break) to target.
func (s *Scope) nearestWhileOrFunction() *Scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.flags.IsWhile() || cur.flags.IsFunction() {
			return cur
		}
	}
	return nil
}

// NearestWhileOrFunction exposes nearestWhileOrFunction to the compiler
// package for break/while handling.
func (s *Scope) NearestWhileOrFunction() *Scope { return s.nearestWhileOrFunction() }

// Bind installs a new symbol→slot binding visible from s onward, returning
// the Binding so its Slot can later be rewritten in place (capture).
func (s *Scope) Bind(name string, sl slot.Slot) *Binding {
	b := &Binding{Name: name, Slot: sl}
	s.syms = append(s.syms, b)
	return b
}

// lookupLocal scans this single scope's own symbol list, most recent
// first.
func (s *Scope) lookupLocal(name string) (*Binding, bool) {
	for i := len(s.syms) - 1; i >= 0; i-- {
		if s.syms[i].Name == name {
			return s.syms[i], true
		}
	}
	return nil, false
}

// AddEnv appends (or reuses an existing, identical) entry to this function
// scope's envs list and returns its index.
func (s *Scope) AddEnv(ref EnvRef) int {
	f := s.nearestFunction()
	for i, e := range f.envs {
		if e == ref {
			return i
		}
	}
	f.envs = append(f.envs, ref)
	return len(f.envs) - 1
}

// Envs returns the function scope's upvalue list, in index order.
func (s *Scope) Envs() []EnvRef {
	f := s.nearestFunction()
	if f == nil {
		return nil
	}
	return f.envs
}

// AddInnerDef registers a compiled nested FuncDef with the nearest
// enclosing function scope and returns its index, for a CLOSURE
// instruction to reference.
func (s *Scope) AddInnerDef(fd *slot.FuncDef) int {
	f := s.nearestFunction()
	f.defs = append(f.defs, fd)
	return len(f.defs) - 1
}

// InnerDefs returns the function scope's nested FuncDef list.
func (s *Scope) InnerDefs() []*slot.FuncDef {
	f := s.nearestFunction()
	if f == nil {
		return nil
	}
	return f.defs
}

// Pop detaches s and returns its parent. It is a programming error (panic)
// to pop past the top scope.
func Pop(s *Scope) *Scope {
	if s == nil {
		panic(fmt.Sprintf("internal error: scope stack underflow"))
	}
	return s.parent
}
