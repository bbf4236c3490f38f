package register

import "github.com/bits-and-blooms/bitset"

// bitSet adapts github.com/bits-and-blooms/bitset to the int-indexed,
// grow-on-demand vocabulary the allocator wants; it starts at a modest
// size and relies on the underlying BitSet's automatic growth on Set.
type bitSet struct {
	b *bitset.BitSet
}

func newBitSet() *bitSet {
	return &bitSet{b: bitset.New(256)}
}

// firstClear returns the index of the first unset bit, growing the
// conceptual length if every bit seen so far is set.
func (s *bitSet) firstClear() int {
	idx, ok := s.b.NextClear(0)
	if !ok {
		idx = s.b.Len()
	}
	return int(idx)
}

func (s *bitSet) set(i int)        { s.b.Set(uint(i)) }
func (s *bitSet) clear(i int)      { s.b.Clear(uint(i)) }
func (s *bitSet) isSet(i int) bool { return s.b.Test(uint(i)) }
func (s *bitSet) clone() *bitSet   { return &bitSet{b: s.b.Clone()} }
