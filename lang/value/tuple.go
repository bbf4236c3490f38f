package value

import "strings"

// Tuple is an immutable ordered sequence, optionally carrying the
// bracket-vs-paren flag and source position the parser attached to it
// (spec §3). Grounded on the teacher's `Tuple []Value`
// (lang/types/tuple.go), generalized with the fields the compiler's
// quasiquote/source-map machinery needs.
//
// Tuples compare and hash structurally (see value.Equal/value.Hash): they
// are immutable value types, unlike Array.
type Tuple struct {
	Elements []Value
	Bracket  bool // true for [a b c], false for (a b c)
	Line     int32
	Col      int32
}

// NewTuple returns a paren-style tuple with no source position.
func NewTuple(elems []Value) *Tuple { return &Tuple{Elements: elems} }

// NewBracketTuple returns a bracket-style tuple ([a b c]), used by the
// parser for literal array-like tuple syntax that is nonetheless immutable.
func NewBracketTuple(elems []Value) *Tuple { return &Tuple{Elements: elems, Bracket: true} }

func (*Tuple) Kind() Kind { return KindTuple }

func (t *Tuple) String() string {
	var b strings.Builder
	if t.Bracket {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	for i, e := range t.Elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.String())
	}
	if t.Bracket {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

func (t *Tuple) Truth() bool { return true }

func (t *Tuple) Len() int { return len(t.Elements) }

// Head returns the tuple's first element, or nil if it is empty.
func (t *Tuple) Head() Value {
	if len(t.Elements) == 0 {
		return nil
	}
	return t.Elements[0]
}
