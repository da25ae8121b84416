package alloc

import (
	"math/bits"
	"unsafe"
)

// Byte-size helpers, grounded on the original's MemoryUtils::KB/MB/GB.
const (
	KB uintptr = 1 << 10
	MB uintptr = 1 << 20
	GB uintptr = 1 << 30
)

// AlignForward rounds addr up to the next multiple of alignment. alignment
// must be a power of two; callers are responsible for that invariant, the
// allocators that call this either validated it already or accept
// undefined results per their own contract.
func AlignForward(addr, alignment uintptr) uintptr {
	return (addr + alignment - 1) &^ (alignment - 1)
}

// IsPowerOfTwo reports whether v is a power of two. Zero is not.
func IsPowerOfTwo(v uintptr) bool {
	return v > 0 && v&(v-1) == 0
}

// NextPowerOfTwo rounds v up to the nearest power of two, computed from the
// bit length of v-1 (the original's MemoryUtils::next_power_of_two used
// bit-smearing for the same result). Values 0 and 1 both yield 1.
func NextPowerOfTwo(v uintptr) uintptr {
	if v <= 1 {
		return 1
	}
	return uintptr(1) << bits.Len(uint(v-1))
}

// alignedBuffer over-allocates size+alignment bytes and returns both the
// owning slice (kept alive by the caller for as long as base is in use) and
// an unsafe.Pointer to the first alignment-aligned byte inside it. Go's
// make([]byte, n) carries no alignment guarantee beyond the platform word
// size, so variants that need a specific backing alignment go through this
// instead of indexing raw directly - the same over-allocate-then-align
// technique std::aligned_alloc wraps for the original.
func alignedBuffer(size, alignment uintptr) (raw []byte, base unsafe.Pointer) {
	if alignment == 0 {
		alignment = DefaultAlignment
	}
	raw = make([]byte, size+alignment)
	rawAddr := uintptr(unsafe.Pointer(&raw[0]))
	alignedAddr := AlignForward(rawAddr, alignment)
	offset := alignedAddr - rawAddr
	return raw, unsafe.Pointer(&raw[offset])
}
