package value

import "strconv"

// Buffer is a mutable byte vector, grounded on the teacher's mutable
// container shape (lang/types/array.go's frozen/itercount-free pattern)
// but holding bytes instead of Values. Compared and hashed by identity,
// like every mutable container.
type Buffer struct {
	Data []byte
}

// NewBuffer returns a buffer wrapping data (not copied).
func NewBuffer(data []byte) *Buffer { return &Buffer{Data: data} }

func (*Buffer) Kind() Kind        { return KindBuffer }
func (b *Buffer) String() string  { return strconv.Quote(string(b.Data)) }
func (b *Buffer) Truth() bool     { return true }
func (b *Buffer) Len() int        { return len(b.Data) }
