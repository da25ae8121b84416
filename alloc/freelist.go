package alloc

import "unsafe"

// FitPolicy selects which free block a FreeListAllocator picks to satisfy a
// request.
type FitPolicy int

const (
	FitFirst FitPolicy = iota
	FitBest
	FitWorst
)

// MinBlockSize is the smallest payload a split-off free block must be able
// to hold: a split happens only when the remainder is at least a freeBlock
// header plus MinBlockSize bytes; a smaller remainder gets absorbed into the
// allocation instead.
const MinBlockSize = 16

// freeBlock is overlaid on the bytes of a free region: the free list is a
// singly-linked, address-sorted chain threaded through free memory itself.
type freeBlock struct {
	size uintptr
	next unsafe.Pointer
}

// allocHeader precedes every live allocation. adjustment is always zero in
// this port - the original carried the field for parity with StackAllocator's
// header shape but never used it for anything in FreeListAllocator.
type allocHeader struct {
	size       uintptr
	adjustment uintptr
}

var (
	freeBlockSize   = unsafe.Sizeof(freeBlock{})
	allocHeaderSize = unsafe.Sizeof(allocHeader{})
)

// FreeListAllocator satisfies arbitrary-size requests from a single backing
// buffer via an address-sorted, coalescing free list.
type FreeListAllocator struct {
	base

	policy     FitPolicy
	raw        []byte
	regionBase unsafe.Pointer
	freeHead   unsafe.Pointer
}

func NewFreeListAllocator(size uintptr, policy FitPolicy) *FreeListAllocator {
	raw, regionBase := alignedBuffer(size, DefaultAlignment)
	f := &FreeListAllocator{
		base:       newBase("Free List Allocator", size),
		policy:     policy,
		raw:        raw,
		regionBase: regionBase,
	}
	f.resetFreeList()
	return f
}

func (f *FreeListAllocator) resetFreeList() {
	node := (*freeBlock)(f.regionBase)
	node.size = f.totalSize
	node.next = nil
	f.freeHead = f.regionBase
}

func (f *FreeListAllocator) Policy() FitPolicy        { return f.policy }
func (f *FreeListAllocator) SetPolicy(p FitPolicy)    { f.policy = p }

func (f *FreeListAllocator) Allocate(size, alignment uintptr) Address {
	if size == 0 {
		return 0
	}
	if alignment == 0 || !IsPowerOfTwo(alignment) {
		alignment = DefaultAlignment
	}

	request := AlignForward(size+allocHeaderSize, alignment)

	var chosen, prev unsafe.Pointer
	switch f.policy {
	case FitBest:
		chosen, prev = f.findBestFit(request)
	case FitWorst:
		chosen, prev = f.findWorstFit(request)
	default:
		chosen, prev = f.findFirstFit(request)
	}
	if chosen == nil {
		return 0
	}

	var addr Address
	elapsed := Timed(func() {
		chosenNode := (*freeBlock)(chosen)
		remaining := chosenNode.size - request

		var allocSize uintptr
		if remaining >= freeBlockSize+MinBlockSize {
			newNodePtr := unsafe.Add(chosen, request)
			newNode := (*freeBlock)(newNodePtr)
			newNode.size = remaining
			newNode.next = chosenNode.next
			f.relink(prev, newNodePtr)
			allocSize = request
		} else {
			allocSize = chosenNode.size
			f.relink(prev, chosenNode.next)
		}

		hdr := (*allocHeader)(chosen)
		hdr.size = allocSize
		hdr.adjustment = 0

		addr = Address(uintptr(unsafe.Add(chosen, allocHeaderSize)))
	})

	// Recorded size is the caller's requested size, not the rounded
	// total_size kept in the header - matches the original's bookkeeping.
	f.recordAllocation(addr, size, alignment, elapsed)
	f.updateFragmentation()
	return addr
}

func (f *FreeListAllocator) relink(prev, node unsafe.Pointer) {
	if prev == nil {
		f.freeHead = node
		return
	}
	(*freeBlock)(prev).next = node
}

func (f *FreeListAllocator) findFirstFit(size uintptr) (chosen, prev unsafe.Pointer) {
	var p unsafe.Pointer
	cur := f.freeHead
	for cur != nil {
		node := (*freeBlock)(cur)
		if node.size >= size {
			return cur, p
		}
		p = cur
		cur = node.next
	}
	return nil, nil
}

func (f *FreeListAllocator) findBestFit(size uintptr) (chosen, prev unsafe.Pointer) {
	var best, bestPrev unsafe.Pointer
	bestSize := ^uintptr(0)
	var p unsafe.Pointer
	cur := f.freeHead
	for cur != nil {
		node := (*freeBlock)(cur)
		if node.size >= size && node.size < bestSize {
			best, bestPrev, bestSize = cur, p, node.size
		}
		p = cur
		cur = node.next
	}
	return best, bestPrev
}

func (f *FreeListAllocator) findWorstFit(size uintptr) (chosen, prev unsafe.Pointer) {
	var worst, worstPrev unsafe.Pointer
	var worstSize uintptr
	var p unsafe.Pointer
	cur := f.freeHead
	for cur != nil {
		node := (*freeBlock)(cur)
		if node.size >= size && node.size > worstSize {
			worst, worstPrev, worstSize = cur, p, node.size
		}
		p = cur
		cur = node.next
	}
	return worst, worstPrev
}

func (f *FreeListAllocator) Deallocate(addr Address) {
	if addr == 0 || !f.Owns(addr) {
		return
	}

	ptr := unsafe.Pointer(uintptr(addr))
	hdrPtr := unsafe.Add(ptr, -int(allocHeaderSize))
	hdr := (*allocHeader)(hdrPtr)
	blockSize := hdr.size

	elapsed := Timed(func() {
		node := (*freeBlock)(hdrPtr)
		node.size = blockSize
		f.insertSorted(hdrPtr)
		f.coalesce()
	})

	f.recordDeallocation(addr, blockSize-allocHeaderSize, elapsed)
	f.updateFragmentation()
}

// insertSorted keeps the free list ordered by address so coalesce only ever
// needs to compare a node against its immediate successor.
func (f *FreeListAllocator) insertSorted(node unsafe.Pointer) {
	n := (*freeBlock)(node)
	if f.freeHead == nil || uintptr(node) < uintptr(f.freeHead) {
		n.next = f.freeHead
		f.freeHead = node
		return
	}

	cur := f.freeHead
	curNode := (*freeBlock)(cur)
	for curNode.next != nil && uintptr(curNode.next) < uintptr(node) {
		cur = curNode.next
		curNode = (*freeBlock)(cur)
	}
	n.next = curNode.next
	curNode.next = node
}

// coalesce merges every run of address-adjacent free blocks. It does not
// advance past a merge so a three-or-more block chain collapses in one pass.
func (f *FreeListAllocator) coalesce() {
	cur := f.freeHead
	for cur != nil {
		curNode := (*freeBlock)(cur)
		if curNode.next == nil {
			break
		}
		curEnd := unsafe.Add(cur, curNode.size)
		if curEnd == curNode.next {
			nextNode := (*freeBlock)(curNode.next)
			curNode.size += nextNode.size
			curNode.next = nextNode.next
			continue
		}
		cur = curNode.next
	}
}

func (f *FreeListAllocator) Reset() {
	f.resetFreeList()
	f.resetStats()
}

func (f *FreeListAllocator) Owns(addr Address) bool {
	if addr == 0 {
		return false
	}
	start := uintptr(f.regionBase)
	a := uintptr(addr)
	return a >= start && a < start+f.totalSize
}

// Available walks the live free list rather than tracking a running
// counter, so it always reflects the list's current state after any split
// or coalesce.
func (f *FreeListAllocator) Available() uintptr {
	var total uintptr
	cur := f.freeHead
	for cur != nil {
		node := (*freeBlock)(cur)
		total += node.size
		cur = node.next
	}
	return total
}

func (f *FreeListAllocator) LargestFreeBlock() uintptr {
	var largest uintptr
	cur := f.freeHead
	for cur != nil {
		node := (*freeBlock)(cur)
		if node.size > largest {
			largest = node.size
		}
		cur = node.next
	}
	return largest
}

func (f *FreeListAllocator) FreeBlockCount() int {
	count := 0
	cur := f.freeHead
	for cur != nil {
		count++
		cur = (*freeBlock)(cur).next
	}
	return count
}

func (f *FreeListAllocator) updateFragmentation() {
	freeMem := f.Available()
	largest := f.LargestFreeBlock()
	if freeMem > largest {
		f.stats.FragmentationBytes = uint64(freeMem - largest)
	} else {
		f.stats.FragmentationBytes = 0
	}
}
