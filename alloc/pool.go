package alloc

import "unsafe"

// poolFreeNode is overlaid directly on a free block's bytes, the same
// intrusive-free-list trick the Go runtime's fixalloc uses for mlink.
type poolFreeNode struct {
	next unsafe.Pointer
}

// PoolAllocator hands out fixed-size blocks from a single backing buffer in
// O(1) via an intrusive singly-linked free list threaded through the free
// blocks themselves.
type PoolAllocator struct {
	base

	blockSize  uintptr
	blockCount uintptr
	alignment  uintptr

	raw        []byte
	regionBase unsafe.Pointer

	freeHead    unsafe.Pointer
	allocated   uintptr
}

// NewPoolAllocator creates a pool of blockCount blocks, each blockSize bytes
// rounded up to alignment.
func NewPoolAllocator(blockSize, blockCount, alignment uintptr) *PoolAllocator {
	if alignment == 0 || !IsPowerOfTwo(alignment) {
		alignment = DefaultAlignment
	}
	bs := AlignForward(blockSize, alignment)
	total := bs * blockCount

	raw, regionBase := alignedBuffer(total, alignment)

	p := &PoolAllocator{
		base:       newBase("Pool Allocator", total),
		blockSize:  bs,
		blockCount: blockCount,
		alignment:  alignment,
		raw:        raw,
		regionBase: regionBase,
	}
	p.initFreeList()
	return p
}

func (p *PoolAllocator) initFreeList() {
	p.freeHead = nil
	p.allocated = 0
	for i := p.blockCount; i > 0; i-- {
		blk := unsafe.Add(p.regionBase, (i-1)*p.blockSize)
		node := (*poolFreeNode)(blk)
		node.next = p.freeHead
		p.freeHead = blk
	}
}

func (p *PoolAllocator) Allocate(size, _ uintptr) Address {
	if size == 0 || size > p.blockSize || p.freeHead == nil {
		return 0
	}

	var addr unsafe.Pointer
	elapsed := Timed(func() {
		addr = p.freeHead
		node := (*poolFreeNode)(addr)
		p.freeHead = node.next
		p.allocated++
	})

	a := Address(uintptr(addr))
	p.recordAllocation(a, p.blockSize, p.alignment, elapsed)
	return a
}

func (p *PoolAllocator) Deallocate(addr Address) {
	if addr == 0 || !p.Owns(addr) {
		return
	}

	ptr := unsafe.Pointer(uintptr(addr))
	elapsed := Timed(func() {
		node := (*poolFreeNode)(ptr)
		node.next = p.freeHead
		p.freeHead = ptr
		p.allocated--
	})

	p.recordDeallocation(addr, p.blockSize, elapsed)
}

func (p *PoolAllocator) Reset() {
	p.initFreeList()
	p.resetStats()
}

func (p *PoolAllocator) Owns(addr Address) bool {
	if addr == 0 {
		return false
	}
	start := uintptr(p.regionBase)
	a := uintptr(addr)
	return a >= start && a < start+p.totalSize
}

func (p *PoolAllocator) Available() uintptr {
	return (p.blockCount - p.allocated) * p.blockSize
}

// FragmentationPercentage is always zero: fixed-size blocks in a pool never
// fragment externally.
func (p *PoolAllocator) FragmentationPercentage() float64 { return 0 }

func (p *PoolAllocator) FreeBlocks() uintptr      { return p.blockCount - p.allocated }
func (p *PoolAllocator) AllocatedBlocks() uintptr { return p.allocated }
func (p *PoolAllocator) BlockSize() uintptr       { return p.blockSize }
func (p *PoolAllocator) BlockCount() uintptr      { return p.blockCount }

// AllocationGrid derives a per-block occupancy bitmap by walking the free
// list, rather than maintaining a parallel counter that could drift.
func (p *PoolAllocator) AllocationGrid() []bool {
	grid := make([]bool, p.blockCount)
	for i := range grid {
		grid[i] = true
	}

	cur := p.freeHead
	for cur != nil {
		idx := (uintptr(cur) - uintptr(p.regionBase)) / p.blockSize
		if idx < p.blockCount {
			grid[idx] = false
		}
		cur = (*poolFreeNode)(cur).next
	}
	return grid
}
