package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memlab/memengine/alloc"
)

func TestPoolAllocator_AllocateWithinCapacitySucceeds(t *testing.T) {
	p := alloc.NewPoolAllocator(64, 8, 8)

	var addrs []alloc.Address
	for i := 0; i < 8; i++ {
		a := p.Allocate(32, 0)
		require.NotZero(t, a, "allocation %d should succeed", i)
		addrs = append(addrs, a)
	}

	// Every returned address is distinct and owned.
	seen := make(map[alloc.Address]bool)
	for _, a := range addrs {
		assert.False(t, seen[a], "addresses must be unique")
		seen[a] = true
		assert.True(t, p.Owns(a))
	}
}

func TestPoolAllocator_ExhaustionReturnsNull(t *testing.T) {
	p := alloc.NewPoolAllocator(32, 2, 8)
	require.NotZero(t, p.Allocate(32, 0))
	require.NotZero(t, p.Allocate(32, 0))
	assert.Zero(t, p.Allocate(32, 0), "a full pool must fail with the null address")
}

func TestPoolAllocator_ZeroSizeFails(t *testing.T) {
	p := alloc.NewPoolAllocator(64, 4, 8)
	assert.Zero(t, p.Allocate(0, 0))
}

func TestPoolAllocator_OversizeRequestFails(t *testing.T) {
	p := alloc.NewPoolAllocator(64, 4, 8)
	assert.Zero(t, p.Allocate(128, 0))
}

func TestPoolAllocator_DeallocateThenReallocateReusesSlot(t *testing.T) {
	p := alloc.NewPoolAllocator(32, 1, 8)
	a1 := p.Allocate(32, 0)
	require.NotZero(t, a1)
	require.Zero(t, p.Allocate(32, 0), "single-block pool has no room for a second live allocation")

	p.Deallocate(a1)
	a2 := p.Allocate(32, 0)
	require.NotZero(t, a2)
	assert.Equal(t, a1, a2, "freeing the only block must make the same slot available again")
}

func TestPoolAllocator_OwnsRejectsForeignAddress(t *testing.T) {
	p := alloc.NewPoolAllocator(32, 4, 8)
	assert.False(t, p.Owns(alloc.Address(0xdeadbeef)))
	assert.False(t, p.Owns(0))
}

func TestPoolAllocator_FragmentationIsAlwaysZero(t *testing.T) {
	p := alloc.NewPoolAllocator(32, 4, 8)
	p.Allocate(32, 0)
	p.Allocate(32, 0)
	assert.Zero(t, p.FragmentationPercentage())
}

func TestPoolAllocator_ResetClearsStateAndStats(t *testing.T) {
	p := alloc.NewPoolAllocator(32, 4, 8)
	p.Allocate(32, 0)
	p.Allocate(32, 0)
	p.Reset()

	assert.Equal(t, uintptr(4), p.FreeBlocks())
	assert.Equal(t, alloc.AllocationStats{}, p.Stats())
	assert.Empty(t, p.History())
}

func TestPoolAllocator_AllocationGridReflectsOccupancy(t *testing.T) {
	p := alloc.NewPoolAllocator(32, 4, 8)
	a0 := p.Allocate(32, 0)
	require.NotZero(t, a0)
	p.Allocate(32, 0)

	grid := p.AllocationGrid()
	require.Len(t, grid, 4)

	occupied := 0
	for _, v := range grid {
		if v {
			occupied++
		}
	}
	assert.Equal(t, 2, occupied)

	p.Deallocate(a0)
	grid = p.AllocationGrid()
	occupied = 0
	for _, v := range grid {
		if v {
			occupied++
		}
	}
	assert.Equal(t, 1, occupied)
}

func TestPoolAllocator_StatsTrackPeakAndCurrentUsage(t *testing.T) {
	p := alloc.NewPoolAllocator(32, 4, 8)
	a0 := p.Allocate(32, 0)
	p.Allocate(32, 0)
	p.Deallocate(a0)

	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.TotalAllocations)
	assert.Equal(t, uint64(1), stats.TotalDeallocations)
	assert.Equal(t, uint64(1), stats.CurrentAllocations)
	assert.Equal(t, uint64(64), stats.PeakBytesUsed)
	assert.Equal(t, uint64(32), stats.CurrentBytesUsed)
}
