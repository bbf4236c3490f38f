package scope_test

import (
	"testing"

	"github.com/mna/ember/lang/scope"
	"github.com/mna/ember/lang/slot"
	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolShadowingPicksMostRecentBinding(t *testing.T) {
	fn := scope.Push(nil, scope.FUNCTION|scope.TOP, "top", 0)
	fn.Bind("x", slot.Local(0))
	inner := scope.Push(fn, 0, "block", 0)
	inner.Bind("x", slot.Local(1))

	env := scope.NewEnv(0)
	got, err := scope.Resolve(inner, env, "x")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Index)

	// Popping the shadowing scope exposes the outer binding again.
	outer := scope.Pop(inner)
	got, err = scope.Resolve(outer, env, "x")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Index)
}

func TestUnresolvedSymbolFallsBackToGlobalEnv(t *testing.T) {
	fn := scope.Push(nil, scope.FUNCTION|scope.TOP, "top", 0)
	env := scope.NewEnv(0)
	scope.DefineGlobal(env, "greeting", value.String("hi"), false)

	got, err := scope.Resolve(fn, env, "greeting")
	require.NoError(t, err)
	assert.True(t, got.IsRef())
	assert.True(t, got.IsConstant())
}

func TestWhollyUnresolvedSymbolErrors(t *testing.T) {
	fn := scope.Push(nil, scope.FUNCTION|scope.TOP, "top", 0)
	env := scope.NewEnv(0)
	_, err := scope.Resolve(fn, env, "nope")
	assert.ErrorContains(t, err, "unresolved symbol")
}

func TestUpvalueChainAcrossTwoFunctionsIsDeduped(t *testing.T) {
	outer := scope.Push(nil, scope.FUNCTION|scope.TOP, "top", 0)
	outer.Bind("x", slot.Local(3))

	middle := scope.Push(outer, scope.FUNCTION, "middle", 0)
	inner := scope.Push(middle, scope.FUNCTION, "inner", 0)

	env := scope.NewEnv(0)

	s1, err := scope.Resolve(inner, env, "x")
	require.NoError(t, err)
	assert.True(t, s1.IsUpvalue())

	s2, err := scope.Resolve(inner, env, "x")
	require.NoError(t, err)
	assert.Equal(t, s1.EnvIndex, s2.EnvIndex, "a second capture reuses the same envs entry")

	assert.Len(t, middle.Envs(), 1)
	assert.True(t, middle.Envs()[0].ParentIsLocal)
	assert.Equal(t, 3, middle.Envs()[0].Index)

	assert.Len(t, inner.Envs(), 1)
	assert.False(t, inner.Envs()[0].ParentIsLocal, "inner reaches x through middle's own envs list, not a local")
}

func TestMutableCaptureBoxesBindingIntoRef(t *testing.T) {
	outer := scope.Push(nil, scope.FUNCTION|scope.TOP, "top", 0)
	b := outer.Bind("counter", slot.Local(2).WithFlags(slot.FlagMutable))
	require.False(t, b.Slot.IsRef())

	inner := scope.Push(outer, scope.FUNCTION, "closure", 0)
	env := scope.NewEnv(0)

	captured, err := scope.Resolve(inner, env, "counter")
	require.NoError(t, err)
	assert.True(t, captured.IsRef())

	// The outer binding itself was rewritten in place: a later reference
	// from within outer now also sees the boxed slot.
	assert.True(t, b.Slot.IsRef())
	reResolved, err := scope.Resolve(outer, env, "counter")
	require.NoError(t, err)
	assert.True(t, reResolved.IsRef())
	assert.False(t, reResolved.IsUpvalue())
}

func TestImmutableCaptureStaysPlainUpvalue(t *testing.T) {
	outer := scope.Push(nil, scope.FUNCTION|scope.TOP, "top", 0)
	outer.Bind("k", slot.Local(5).WithFlags(slot.FlagNamed))
	inner := scope.Push(outer, scope.FUNCTION, "closure", 0)
	env := scope.NewEnv(0)

	captured, err := scope.Resolve(inner, env, "k")
	require.NoError(t, err)
	assert.True(t, captured.IsUpvalue())
	assert.False(t, captured.IsRef())
}
