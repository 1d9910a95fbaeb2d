// Package psx provides the address model of the emulated console memory.
package psx

import (
	"fmt"
	"math"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
)

// Memory map constants.
const (
	RAMSize = 0x200000 // main RAM, 2 MiB

	SegmentMask  = 0xe0000000 // top 3 bits select the segment
	KUSEGAddress = 0x00000000
	KSEG0Address = 0x80000000
	KSEG1Address = 0xa0000000
)

// Address is a location in the emulated address space. It can carry a segment tag,
// value 0 is the null pointer of the source data.
type Address uint32

// IsNull returns whether the address is the null pointer.
func (a Address) IsNull() bool {
	return a == 0
}

// Segment returns the segment tag bits of the address.
func (a Address) Segment() uint32 {
	return uint32(a) & SegmentMask
}

// Flat returns the address with its segment tag removed.
func (a Address) Flat() Address {
	return a &^ SegmentMask
}

// KSEG0 returns the address tagged with the kernel segment, the form absolute
// pointers are stored in by the source data.
func (a Address) KSEG0() Address {
	return a.Flat() | KSEG0Address
}

// Add returns the address advanced by offset. It fails instead of wrapping past
// the end of the 32 bit address window.
func (a Address) Add(offset uint32) (Address, error) {
	if uint64(a)+uint64(offset) > math.MaxUint32 {
		return 0, fault.New(fault.OutOfBounds, "address add").
			WithAddress(uint32(a), offset).
			WithDetail("overflows the address window")
	}
	return a + Address(offset), nil
}

// IsInRAM returns whether size bytes starting at the address fit into main RAM.
func (a Address) IsInRAM(size uint32) bool {
	flat := uint64(a.Flat())
	if size > 0 {
		flat += uint64(size) - 1
	}
	return flat < RAMSize
}

func (a Address) String() string {
	return fmt.Sprintf("0x%08x", uint32(a))
}
