package alloc

import "unsafe"

// stackHeader precedes every live allocation in the backing buffer, the
// same layout as the original's AllocationHeader{size, adjustment,
// previous_offset}.
type stackHeader struct {
	size           uintptr
	adjustment     uintptr
	previousOffset uintptr
}

var stackHeaderSize = unsafe.Sizeof(stackHeader{})

// Marker captures a stack position for later rollback.
type Marker uintptr

// StackAllocator is a LIFO allocator: allocations push an aligned header
// plus payload onto a bump pointer, deallocations only succeed when freeing
// the most recent live allocation.
//
// Known ambiguity, carried forward rather than fixed: RollbackToMarker
// resets current_offset but does not re-derive previous_offset from the
// blocks it discards, so interleaving marker rollback with per-address
// Deallocate calls does not compose cleanly - exactly as in the source this
// was ported from.
type StackAllocator struct {
	base

	defaultAlignment uintptr
	raw              []byte
	regionBase       unsafe.Pointer

	currentOffset  uintptr
	previousOffset uintptr
}

func NewStackAllocator(size, alignment uintptr) *StackAllocator {
	if alignment == 0 || !IsPowerOfTwo(alignment) {
		alignment = DefaultAlignment
	}
	raw, regionBase := alignedBuffer(size, alignment)
	return &StackAllocator{
		base:             newBase("Stack Allocator", size),
		defaultAlignment: alignment,
		raw:              raw,
		regionBase:       regionBase,
	}
}

func (s *StackAllocator) Allocate(size, alignment uintptr) Address {
	if size == 0 {
		return 0
	}
	if alignment == 0 || !IsPowerOfTwo(alignment) {
		alignment = s.defaultAlignment
	}

	var addr Address
	elapsed := Timed(func() {
		currentAddr := uintptr(s.regionBase) + s.currentOffset
		alignedAddr := AlignForward(currentAddr, alignment)
		adjustment := alignedAddr - currentAddr
		headerOffset := s.currentOffset + adjustment
		needed := adjustment + stackHeaderSize + size

		if s.currentOffset+needed > s.totalSize {
			addr = 0
			return
		}

		hdrPtr := unsafe.Add(s.regionBase, headerOffset)
		hdr := (*stackHeader)(hdrPtr)
		hdr.size = size
		hdr.adjustment = adjustment
		hdr.previousOffset = s.previousOffset

		s.previousOffset = s.currentOffset
		s.currentOffset = headerOffset + stackHeaderSize + size

		addr = Address(uintptr(unsafe.Add(hdrPtr, stackHeaderSize)))
	})

	if addr == 0 {
		return 0
	}
	s.recordAllocation(addr, size, alignment, elapsed)
	return addr
}

// Deallocate only succeeds when addr is the most recently allocated,
// still-live block; anything else is a silent no-op, matching the original.
func (s *StackAllocator) Deallocate(addr Address) {
	if addr == 0 || !s.Owns(addr) {
		return
	}

	ptr := unsafe.Pointer(uintptr(addr))
	hdrPtr := unsafe.Add(ptr, -int(stackHeaderSize))
	hdr := (*stackHeader)(hdrPtr)

	headerOffset := uintptr(hdrPtr) - uintptr(s.regionBase)
	expectedOffset := headerOffset + stackHeaderSize + hdr.size
	if expectedOffset != s.currentOffset {
		return
	}

	var size uintptr
	elapsed := Timed(func() {
		size = hdr.size
		// Order matters: current_offset must fall back to the allocator's
		// previous_offset (where this block started) before
		// previous_offset is overwritten with the value the header itself
		// carried forward.
		s.currentOffset = s.previousOffset
		s.previousOffset = hdr.previousOffset
	})

	s.recordDeallocation(addr, size, elapsed)
}

func (s *StackAllocator) Reset() {
	s.currentOffset = 0
	s.previousOffset = 0
	s.resetStats()
}

func (s *StackAllocator) Owns(addr Address) bool {
	if addr == 0 {
		return false
	}
	start := uintptr(s.regionBase)
	a := uintptr(addr)
	return a >= start && a < start+s.totalSize
}

func (s *StackAllocator) Available() uintptr { return s.totalSize - s.currentOffset }

func (s *StackAllocator) Used() uintptr { return s.currentOffset }

func (s *StackAllocator) UsagePercentage() float64 {
	if s.totalSize == 0 {
		return 0
	}
	return 100 * float64(s.currentOffset) / float64(s.totalSize)
}

// FragmentationPercentage is always zero: a bump-pointer stack never
// fragments externally, and the alignment padding before each header is
// not counted as fragmentation.
func (s *StackAllocator) FragmentationPercentage() float64 { return 0 }

func (s *StackAllocator) GetMarker() Marker { return Marker(s.currentOffset) }

// RollbackToMarker discards every allocation made since m was captured.
func (s *StackAllocator) RollbackToMarker(m Marker) {
	if uintptr(m) > s.currentOffset {
		return
	}
	s.currentOffset = uintptr(m)
}
