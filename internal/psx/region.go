package psx

import "fmt"

// Region is a span of bytes in the emulated address space.
type Region struct {
	Start Address
	Size  uint32
}

// NewRegion returns a region of size bytes starting at start.
func NewRegion(start Address, size uint32) Region {
	return Region{Start: start, Size: size}
}

// End returns the address of the last byte of the region. For an empty region it
// equals the start address.
func (r Region) End() Address {
	if r.Size == 0 {
		return r.Start
	}
	return Address(uint64(r.Start) + uint64(r.Size) - 1)
}

// IsEmpty returns whether the region has no bytes.
func (r Region) IsEmpty() bool {
	return r.Size == 0
}

// Contains returns whether other lies completely inside the region.
func (r Region) Contains(other Region) bool {
	if r.IsEmpty() {
		return false
	}
	if other.IsEmpty() {
		return other.Start >= r.Start && other.Start <= r.End()
	}
	return other.Start >= r.Start && other.End() <= r.End()
}

// Intersects returns whether the regions share at least one byte.
func (r Region) Intersects(other Region) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.Start <= other.End() && other.Start <= r.End()
}

// IsAdjacent returns whether one region ends directly before the other starts.
func (r Region) IsAdjacent(other Region) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return uint64(r.End())+1 == uint64(other.Start) ||
		uint64(other.End())+1 == uint64(r.Start)
}

// Union returns the smallest region covering both regions.
func (r Region) Union(other Region) Region {
	start := min(r.Start, other.Start)
	end := max(r.End(), other.End())
	return Region{Start: start, Size: uint32(end-start) + 1}
}

func (r Region) String() string {
	return fmt.Sprintf("[%s, size 0x%x]", r.Start, r.Size)
}
