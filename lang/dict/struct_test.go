package dict_test

import (
	"testing"

	"github.com/mna/ember/lang/dict"
	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, pairs ...value.Value) *dict.Struct {
	t.Helper()
	require.Zero(t, len(pairs)%2, "pairs must be even")
	n := len(pairs) / 2
	b := dict.Begin(n)
	for i := 0; i < len(pairs); i += 2 {
		b.Put(pairs[i], pairs[i+1])
	}
	return dict.End(b)
}

// TestLayoutInvariantUnderPermutation is spec §8 property 2: the same set
// of key/value pairs built in different orders yields equal capacity, equal
// hash, and EqualValue structs.
func TestLayoutInvariantUnderPermutation(t *testing.T) {
	a := build(t,
		value.Keyword("a"), value.Int(1),
		value.Keyword("b"), value.Int(2),
		value.Keyword("c"), value.Int(3),
	)
	b := build(t,
		value.Keyword("c"), value.Int(3),
		value.Keyword("a"), value.Int(1),
		value.Keyword("b"), value.Int(2),
	)

	assert.Equal(t, a.Capacity(), b.Capacity())
	assert.Equal(t, a.HashValue(), b.HashValue())
	assert.True(t, a.EqualValue(b))
}

func TestEqualityLaw(t *testing.T) {
	a := build(t, value.Keyword("a"), value.Int(1))
	b := build(t, value.Keyword("a"), value.Int(1))
	c := build(t, value.Keyword("a"), value.Int(2))
	assert.True(t, a.EqualValue(b))
	assert.Equal(t, a.HashValue(), b.HashValue())
	assert.False(t, a.EqualValue(c))
}

func TestPutBeyondDeclaredCountDropped(t *testing.T) {
	b := dict.Begin(1)
	b.Put(value.Keyword("a"), value.Int(1))
	b.Put(value.Keyword("b"), value.Int(2)) // declared N=1, this is dropped
	s := dict.End(b)
	assert.Equal(t, 1, s.Len())
	v, ok := s.Get(value.Keyword("a"))
	require.True(t, ok)
	assert.Equal(t, value.Int(1), v)
	_, ok = s.Get(value.Keyword("b"))
	assert.False(t, ok)
}

func TestNilAndNaNKeysRejected(t *testing.T) {
	b := dict.Begin(2)
	b.Put(nil, value.Int(1))
	b.Put(value.Number(nan()), value.Int(2))
	b.Put(value.Keyword("ok"), value.Int(3))
	s := dict.End(b)
	assert.Equal(t, 1, s.Len())
	v, ok := s.Get(value.Keyword("ok"))
	require.True(t, ok)
	assert.Equal(t, value.Int(3), v)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestPrototypeLookupAndHashMix(t *testing.T) {
	proto := build(t, value.Keyword("inherited"), value.Int(99))
	b := dict.Begin(1)
	b.Put(value.Keyword("own"), value.Int(1))
	b.SetPrototype(proto)
	s := dict.End(b)

	v, ok := s.Get(value.Keyword("own"))
	require.True(t, ok)
	assert.Equal(t, value.Int(1), v)

	v, ok = s.Get(value.Keyword("inherited"))
	require.True(t, ok)
	assert.Equal(t, value.Int(99), v)

	withoutProto := build(t, value.Keyword("own"), value.Int(1))
	assert.NotEqual(t, withoutProto.HashValue(), s.HashValue())
}

func TestFlattenPrototype(t *testing.T) {
	proto := build(t, value.Keyword("a"), value.Int(1), value.Keyword("b"), value.Int(2))
	b := dict.Begin(1)
	b.Put(value.Keyword("b"), value.Int(20))
	b.SetPrototype(proto)
	base := dict.End(b)

	flat := dict.Flatten(base)
	assert.Equal(t, 2, flat.Len())
	assert.Nil(t, flat.Prototype())

	v, ok := flat.Get(value.Keyword("b"))
	require.True(t, ok)
	assert.Equal(t, value.Int(20), v, "base's own value wins over the prototype's")

	v, ok = flat.Get(value.Keyword("a"))
	require.True(t, ok)
	assert.Equal(t, value.Int(1), v)
}
