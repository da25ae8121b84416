// Package alloc implements the allocation contract and the four allocator
// disciplines exercised by this diagnostics suite: a system baseline, a
// fixed-size pool, a LIFO stack, and a coalescing free list.
package alloc

import (
	"time"
)

// Address is an opaque handle to a live allocation. Zero is never a valid
// address and is used as the "allocation failed" sentinel throughout.
type Address uintptr

// UnboundedSize marks an allocator whose capacity isn't meaningfully
// bounded (the system baseline delegates to the Go heap).
const UnboundedSize uintptr = ^uintptr(0)

// DefaultAlignment is used wherever a caller passes a zero or non-power-of-two
// alignment and a variant chooses to fall back rather than propagate
// undefined arithmetic.
const DefaultAlignment uintptr = 16

// AllocationStats mirrors the running counters every allocator accumulates
// across its lifetime, reset by Reset.
type AllocationStats struct {
	TotalAllocations    uint64
	TotalDeallocations  uint64
	CurrentAllocations  uint64
	TotalBytesAllocated uint64
	CurrentBytesUsed    uint64
	PeakBytesUsed       uint64
	FragmentationBytes  uint64
	AvgAllocationTimeNs float64
	AvgDeallocTimeNs    float64
}

// AllocationInfo is one entry in an allocator's history: appended on every
// successful allocation, with Active cleared the moment that address is
// deallocated.
type AllocationInfo struct {
	Address   Address
	Size      uintptr
	Alignment uintptr
	Timestamp int64
	Active    bool
}

// Allocator is the contract every allocation discipline in this package
// satisfies. size == 0 always fails (returns the zero Address); a size
// larger than what the allocator can ever satisfy also fails. Alignment
// must be a power of two - variants document individually whether they
// coerce or leave a bad alignment undefined.
type Allocator interface {
	Allocate(size, alignment uintptr) Address
	Deallocate(addr Address)
	Reset()
	Owns(addr Address) bool

	Name() string
	TotalSize() uintptr
	Available() uintptr
	FragmentationPercentage() float64

	Stats() AllocationStats
	History() []AllocationInfo
}

// base holds the bookkeeping shared by every allocator variant: stats,
// history, and the active-address index used to flip AllocationInfo.Active
// off on deallocation. Embed it by value; its methods take pointer
// receivers so the embedding struct must be addressed through a pointer.
type base struct {
	name        string
	totalSize   uintptr
	stats       AllocationStats
	history     []AllocationInfo
	activeIndex map[Address]int
}

func newBase(name string, totalSize uintptr) base {
	return base{
		name:        name,
		totalSize:   totalSize,
		activeIndex: make(map[Address]int),
	}
}

func (b *base) Name() string                 { return b.name }
func (b *base) TotalSize() uintptr           { return b.totalSize }
func (b *base) Stats() AllocationStats       { return b.stats }
func (b *base) History() []AllocationInfo    { return b.history }

// FragmentationPercentage is the common formula. Pool, stack and standard
// override it with their own methods that always return zero.
// FreeListAllocator overrides nothing - it just keeps FragmentationBytes
// current via updateFragmentation.
func (b *base) FragmentationPercentage() float64 {
	if b.stats.CurrentBytesUsed == 0 {
		return 0
	}
	return 100 * float64(b.stats.FragmentationBytes) / float64(b.stats.CurrentBytesUsed)
}

func (b *base) recordAllocation(addr Address, size, alignment uintptr, elapsedNs float64) {
	b.stats.TotalAllocations++
	b.stats.CurrentAllocations++
	b.stats.TotalBytesAllocated += uint64(size)
	b.stats.CurrentBytesUsed += uint64(size)
	if b.stats.CurrentBytesUsed > b.stats.PeakBytesUsed {
		b.stats.PeakBytesUsed = b.stats.CurrentBytesUsed
	}

	n := float64(b.stats.TotalAllocations)
	b.stats.AvgAllocationTimeNs = (b.stats.AvgAllocationTimeNs*(n-1) + elapsedNs) / n

	b.history = append(b.history, AllocationInfo{
		Address:   addr,
		Size:      size,
		Alignment: alignment,
		Timestamp: time.Now().UnixNano(),
		Active:    true,
	})
	b.activeIndex[addr] = len(b.history) - 1
}

func (b *base) recordDeallocation(addr Address, size uintptr, elapsedNs float64) {
	b.stats.TotalDeallocations++
	if b.stats.CurrentAllocations > 0 {
		b.stats.CurrentAllocations--
	}
	if uint64(size) <= b.stats.CurrentBytesUsed {
		b.stats.CurrentBytesUsed -= uint64(size)
	} else {
		b.stats.CurrentBytesUsed = 0
	}

	n := float64(b.stats.TotalDeallocations)
	b.stats.AvgDeallocTimeNs = (b.stats.AvgDeallocTimeNs*(n-1) + elapsedNs) / n

	if idx, ok := b.activeIndex[addr]; ok {
		b.history[idx].Active = false
		delete(b.activeIndex, addr)
	}
}

func (b *base) resetStats() {
	b.stats = AllocationStats{}
	b.history = nil
	b.activeIndex = make(map[Address]int)
}
