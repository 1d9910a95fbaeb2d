package disc

import (
	"fmt"
)

// MemorySource is a sector source backed by memory, used to assemble synthetic discs.
type MemorySource struct {
	data []byte
}

// NewMemorySource returns a source holding data as consecutive sectors. The last
// sector is zero padded.
func NewMemorySource(data []byte) *MemorySource {
	m := &MemorySource{}
	m.Put(0, data)
	return m
}

// Put stores data starting at the given sector, growing the source as needed.
func (m *MemorySource) Put(sector uint32, data []byte) {
	offset := int(sector) * SectorDataSize
	end := offset + int(SectorsFor(uint32(len(data))))*SectorDataSize
	if end > len(m.data) {
		m.data = append(m.data, make([]byte, end-len(m.data))...)
	}
	copy(m.data[offset:], data)
}

// Sectors returns the number of sectors held.
func (m *MemorySource) Sectors() uint32 {
	return uint32(len(m.data) / SectorDataSize)
}

// ReadSectors returns a copy of count sectors starting at start.
func (m *MemorySource) ReadSectors(start, count uint32) ([]byte, error) {
	if uint64(start)+uint64(count) > uint64(m.Sectors()) {
		return nil, fmt.Errorf("reading sectors %d+%d of %d: %w", start, count, m.Sectors(), ErrOutOfRange)
	}
	offset := int(start) * SectorDataSize
	data := make([]byte, int(count)*SectorDataSize)
	copy(data, m.data[offset:])
	return data, nil
}
