// Package ram implements the emulated main RAM of the console.
//
// RAM tracks which regions were written. Reads are only satisfied from a region
// that is fully contained in a single recorded region, reading anything else is
// reported as an uninitialized read even if the bytes are zero.
// RAM is not safe for concurrent mutation.
package ram

import (
	"encoding/binary"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
	"github.com/czajowaty/ad-resources-dumper/internal/psx"
)

// RAM is the emulated main memory.
type RAM struct {
	buf     [psx.RAMSize]byte
	regions []psx.Region
}

// New returns a cleared RAM.
func New() *RAM {
	return &RAM{}
}

// Clear zeroes the memory and forgets all initialized regions.
func (r *RAM) Clear() {
	clear(r.buf[:])
	r.regions = r.regions[:0]
}

// InitializedRegions returns the recorded initialized regions, as flat addresses.
func (r *RAM) InitializedRegions() []psx.Region {
	regions := make([]psx.Region, len(r.regions))
	copy(regions, r.regions)
	return regions
}

// Load copies data to the given address and marks the target region initialized.
func (r *RAM) Load(data []byte, address psx.Address) error {
	size := uint32(len(data))
	if len(data) > psx.RAMSize || !address.IsInRAM(size) {
		return fault.New(fault.OutOfBounds, "write").WithAddress(uint32(address), size)
	}
	flat := address.Flat()
	copy(r.buf[flat:], data)
	r.initializeRegion(psx.NewRegion(flat, size))
	return nil
}

// ReadRegion fills buffer with the bytes of the region.
func (r *RAM) ReadRegion(region psx.Region, buffer []byte) error {
	if uint32(len(buffer)) < region.Size {
		return fault.New(fault.OutOfBounds, "read").
			WithAddress(uint32(region.Start), region.Size).
			WithDetail("buffer of %d bytes too small", len(buffer))
	}
	data, err := r.view(region)
	if err != nil {
		return err
	}
	copy(buffer, data)
	return nil
}

// Read returns a copy of size bytes starting at address.
func (r *RAM) Read(address psx.Address, size uint32) ([]byte, error) {
	data, err := r.view(psx.NewRegion(address, size))
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, data)
	return out, nil
}

// view returns the backing bytes of an initialized region.
func (r *RAM) view(region psx.Region) ([]byte, error) {
	if !region.Start.IsInRAM(region.Size) {
		return nil, fault.New(fault.OutOfBounds, "read").WithAddress(uint32(region.Start), region.Size)
	}
	flat := psx.NewRegion(region.Start.Flat(), region.Size)
	if !r.isInitialized(flat) {
		return nil, fault.New(fault.UninitializedRead, "read").WithAddress(uint32(region.Start), region.Size)
	}
	return r.buf[flat.Start : uint32(flat.Start)+flat.Size], nil
}

// isInitialized reports whether a single recorded region contains the region.
// A region covered only by the union of several recorded regions is rejected.
func (r *RAM) isInitialized(region psx.Region) bool {
	for _, initialized := range r.regions {
		if initialized.Contains(region) {
			return true
		}
	}
	return false
}

// initializeRegion records a written region, merging it into the first recorded
// region it overlaps or touches.
func (r *RAM) initializeRegion(region psx.Region) {
	if region.IsEmpty() {
		return
	}
	for i, initialized := range r.regions {
		switch {
		case initialized.Contains(region):
			return
		case region.Contains(initialized):
			r.regions[i] = region
			return
		case initialized.Intersects(region), initialized.IsAdjacent(region):
			r.regions[i] = initialized.Union(region)
			return
		}
	}
	r.regions = append(r.regions, region)
}

// Byte reads an unsigned byte.
func (r *RAM) Byte(address psx.Address) (uint8, error) {
	data, err := r.view(psx.NewRegion(address, 1))
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// SByte reads a signed byte.
func (r *RAM) SByte(address psx.Address) (int8, error) {
	b, err := r.Byte(address)
	return int8(b), err
}

// Word reads an unsigned little endian 16 bit value.
func (r *RAM) Word(address psx.Address) (uint16, error) {
	data, err := r.view(psx.NewRegion(address, 2))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// SWord reads a signed little endian 16 bit value.
func (r *RAM) SWord(address psx.Address) (int16, error) {
	w, err := r.Word(address)
	return int16(w), err
}

// DWord reads an unsigned little endian 32 bit value.
func (r *RAM) DWord(address psx.Address) (uint32, error) {
	data, err := r.view(psx.NewRegion(address, 4))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// SDWord reads a signed little endian 32 bit value.
func (r *RAM) SDWord(address psx.Address) (int32, error) {
	d, err := r.DWord(address)
	return int32(d), err
}

// Address reads a pointer stored at address.
func (r *RAM) Address(address psx.Address) (psx.Address, error) {
	d, err := r.DWord(address)
	return psx.Address(d), err
}

// StoreByte stores an unsigned byte.
func (r *RAM) StoreByte(value uint8, address psx.Address) error {
	return r.Load([]byte{value}, address)
}

// StoreWord stores a little endian 16 bit value.
func (r *RAM) StoreWord(value uint16, address psx.Address) error {
	return r.Load(binary.LittleEndian.AppendUint16(nil, value), address)
}

// StoreDWord stores a little endian 32 bit value.
func (r *RAM) StoreDWord(value uint32, address psx.Address) error {
	return r.Load(binary.LittleEndian.AppendUint32(nil, value), address)
}

// StoreAddress stores a pointer, tagged with the kernel segment like the source
// data encodes absolute addresses.
func (r *RAM) StoreAddress(pointer, address psx.Address) error {
	return r.StoreDWord(uint32(pointer.KSEG0()), address)
}
