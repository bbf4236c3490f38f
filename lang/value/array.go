package value

import "strings"

// Array is a mutable ordered sequence, grounded on the teacher's *Array
// (lang/types/array.go), trimmed to the construct/append/read surface the
// compiler needs (destructuring's &rest collection, quasiquote splicing)
// and dropping the slice/iterate protocol methods that belong to the VM's
// sequence protocol, out of CORE scope.
type Array struct {
	Elements []Value
}

// NewArray returns an array wrapping elems (not copied).
func NewArray(elems []Value) *Array { return &Array{Elements: elems} }

func (*Array) Kind() Kind { return KindArray }

func (a *Array) String() string {
	var b strings.Builder
	b.WriteByte('@')
	b.WriteByte('[')
	for i, e := range a.Elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (a *Array) Truth() bool { return true }
func (a *Array) Len() int    { return len(a.Elements) }

func (a *Array) Append(v Value) { a.Elements = append(a.Elements, v) }
