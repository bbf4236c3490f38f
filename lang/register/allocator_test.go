package register_test

import (
	"testing"

	"github.com/mna/ember/lang/register"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlloc1FirstFit(t *testing.T) {
	a := register.New()
	r0, err := a.Alloc1()
	require.NoError(t, err)
	r1, err := a.Alloc1()
	require.NoError(t, err)
	assert.Equal(t, 0, r0)
	assert.Equal(t, 1, r1)
	assert.Equal(t, 2, a.MaxUsed())

	a.Free(r0)
	r2, err := a.Alloc1()
	require.NoError(t, err)
	assert.Equal(t, 0, r2, "freed register is reused first-fit")
}

func TestAllocTempDistinctTagsNoCollision(t *testing.T) {
	a := register.New()
	t0, err := a.AllocTemp(register.T0)
	require.NoError(t, err)
	t1, err := a.AllocTemp(register.T1)
	require.NoError(t, err)
	assert.NotEqual(t, t0, t1)

	a.FreeTemp(t0, register.T0)
	t0b, err := a.AllocTemp(register.T0)
	require.NoError(t, err)
	assert.Equal(t, t0, t0b)
}

func TestAllocTempFallsBackWhenTagBusy(t *testing.T) {
	a := register.New()
	first, err := a.AllocTemp(register.T2)
	require.NoError(t, err)
	second, err := a.AllocTemp(register.T2)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "second request for a busy tag falls back to Alloc1")
}

func TestTouchRaisesHighWaterMarkWithoutAllocating(t *testing.T) {
	a := register.New()
	a.Touch(10)
	assert.Equal(t, 11, a.MaxUsed())
	r, err := a.Alloc1()
	require.NoError(t, err)
	assert.Equal(t, 0, r, "touch does not mark the register live")
}

func TestCloneAndRestoreIndependence(t *testing.T) {
	a := register.New()
	_, err := a.Alloc1()
	require.NoError(t, err)

	snap := a.Clone()
	_, err = a.Alloc1()
	require.NoError(t, err)
	assert.Equal(t, 2, a.MaxUsed())
	assert.Equal(t, 1, snap.MaxUsed(), "clone is unaffected by further allocation on the original")

	a.RestoreFrom(snap)
	assert.Equal(t, 1, a.MaxUsed())
	r, err := a.Alloc1()
	require.NoError(t, err)
	assert.Equal(t, 1, r, "restored state reuses the register freed by the discarded speculation")
}
