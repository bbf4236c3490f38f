package dict_test

import (
	"testing"

	"github.com/mna/ember/lang/dict"
	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablePutGetDelete(t *testing.T) {
	tbl := dict.NewTable(0)
	tbl.Put(value.Keyword("a"), value.Int(1))
	v, ok := tbl.Get(value.Keyword("a"))
	require.True(t, ok)
	assert.Equal(t, value.Int(1), v)
	assert.Equal(t, 1, tbl.Len())

	assert.True(t, tbl.Delete(value.Keyword("a")))
	_, ok = tbl.Get(value.Keyword("a"))
	assert.False(t, ok)
}

func TestTableIsNotContentAddressed(t *testing.T) {
	a := dict.NewTable(0)
	a.Put(value.Keyword("x"), value.Int(1))
	b := dict.NewTable(0)
	b.Put(value.Keyword("x"), value.Int(1))
	assert.False(t, value.Equal(a, b), "two distinct tables with equal entries are not Equal")
	assert.True(t, value.Equal(a, a))
}

func TestTablePrototypeChain(t *testing.T) {
	proto := dict.NewTable(0)
	proto.Put(value.Keyword("inherited"), value.Int(7))
	child := dict.NewTable(0)
	child.SetPrototype(proto)

	v, ok := child.Get(value.Keyword("inherited"))
	require.True(t, ok)
	assert.Equal(t, value.Int(7), v)

	child.Put(value.Keyword("inherited"), value.Int(8))
	v, ok = child.Get(value.Keyword("inherited"))
	require.True(t, ok)
	assert.Equal(t, value.Int(8), v, "own entry shadows the prototype's")
}

func TestTableRejectsNilKeyOrValue(t *testing.T) {
	tbl := dict.NewTable(0)
	tbl.Put(nil, value.Int(1))
	tbl.Put(value.Keyword("k"), nil)
	assert.Equal(t, 0, tbl.Len())
}

func TestTableEach(t *testing.T) {
	tbl := dict.NewTable(0)
	tbl.Put(value.Keyword("a"), value.Int(1))
	tbl.Put(value.Keyword("b"), value.Int(2))
	seen := map[string]int{}
	tbl.Each(func(k, v value.Value) bool {
		seen[k.String()] = int(v.(value.Int))
		return true
	})
	assert.Equal(t, map[string]int{":a": 1, ":b": 2}, seen)
}
