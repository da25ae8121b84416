package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memlab/memengine/alloc"
)

func TestStackAllocator_LifoDeallocateSucceeds(t *testing.T) {
	s := alloc.NewStackAllocator(1024, 8)

	a1 := s.Allocate(32, 8)
	a2 := s.Allocate(32, 8)
	require.NotZero(t, a1)
	require.NotZero(t, a2)

	used := s.Used()
	s.Deallocate(a2)
	assert.Less(t, s.Used(), used, "freeing the top of the stack must reclaim space")

	s.Deallocate(a1)
	assert.Zero(t, s.Used())
}

func TestStackAllocator_OutOfOrderDeallocateIsNoOp(t *testing.T) {
	s := alloc.NewStackAllocator(1024, 8)
	a1 := s.Allocate(32, 8)
	a2 := s.Allocate(32, 8)
	require.NotZero(t, a1)
	require.NotZero(t, a2)

	usedBefore := s.Used()
	s.Deallocate(a1) // not the top of the stack
	assert.Equal(t, usedBefore, s.Used(), "deallocating anything but the top must be a silent no-op")
}

func TestStackAllocator_ExhaustionReturnsNull(t *testing.T) {
	s := alloc.NewStackAllocator(64, 8)
	require.NotZero(t, s.Allocate(16, 8))
	// Keep allocating until the small backing buffer is exhausted.
	var failed bool
	for i := 0; i < 8; i++ {
		if s.Allocate(16, 8) == 0 {
			failed = true
			break
		}
	}
	assert.True(t, failed, "a bounded stack must eventually fail with the null address")
}

func TestStackAllocator_MarkerRollbackReclaimsSpace(t *testing.T) {
	s := alloc.NewStackAllocator(1024, 8)
	s.Allocate(32, 8)
	marker := s.GetMarker()
	s.Allocate(32, 8)
	s.Allocate(32, 8)

	s.RollbackToMarker(marker)
	assert.Equal(t, uintptr(marker), s.Used())
}

func TestStackAllocator_ZeroSizeFails(t *testing.T) {
	s := alloc.NewStackAllocator(1024, 8)
	assert.Zero(t, s.Allocate(0, 8))
}

func TestStackAllocator_FragmentationIsAlwaysZero(t *testing.T) {
	s := alloc.NewStackAllocator(1024, 8)
	s.Allocate(64, 8)
	assert.Zero(t, s.FragmentationPercentage())
}

func TestStackAllocator_ResetRestoresFullCapacity(t *testing.T) {
	s := alloc.NewStackAllocator(1024, 8)
	s.Allocate(64, 8)
	s.Reset()
	assert.Zero(t, s.Used())
	assert.Equal(t, uintptr(1024), s.Available())
}

func TestStackAllocator_UsagePercentage(t *testing.T) {
	s := alloc.NewStackAllocator(1024, 8)
	s.Allocate(64, 8)
	want := 100 * float64(s.Used()) / 1024
	assert.InDelta(t, want, s.UsagePercentage(), 0.001)
}
