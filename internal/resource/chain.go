package resource

import (
	"github.com/czajowaty/ad-resources-dumper/internal/fault"
)

// Record is one header of a chain together with its payload.
type Record struct {
	Index   int
	Offset  int    // of the header inside the chain
	Header  Header // base header, use the Decode functions on Raw for the full shape
	Raw     []byte // header bytes from Offset to the end of the chain
	Payload []byte
}

// Chain iterates the records of a resource chain.
type Chain struct {
	data   []byte
	cursor int
	index  int
}

// NewChain returns an iterator over the records of data.
func NewChain(data []byte) *Chain {
	return &Chain{data: data}
}

// HasNext reports whether the header at the cursor is a record. An unreadable
// header ends the iteration, Next reports the error.
func (c *Chain) HasNext() bool {
	h, err := c.current()
	return err != nil || h.Type != None
}

// Next returns the record at the cursor and advances past its header. The payload
// ends where the payload of the following record starts, or at the end of the
// chain for the last record.
func (c *Chain) Next() (Record, error) {
	h, err := c.current()
	if err != nil {
		return Record{}, err
	}
	if h.Type == None {
		return Record{}, c.malformed("read past the chain terminator")
	}
	if h.HeaderSize < HeaderSize {
		return Record{}, c.malformed("header size %d below minimum", h.HeaderSize)
	}

	offset := c.cursor
	start := int(h.DataStartOffset)
	c.cursor += int(h.HeaderSize)

	next, err := c.current()
	if err != nil {
		return Record{}, err
	}
	end := len(c.data)
	if next.Type != None {
		end = int(next.DataStartOffset)
	}
	if start > end || end > len(c.data) {
		return Record{}, fault.New(fault.OutOfBounds, "resource payload").
			WithIndex(c.index).
			WithOffset(start).
			WithDetail("payload ends at 0x%x, chain size 0x%x", end, len(c.data))
	}

	record := Record{
		Index:   c.index,
		Offset:  offset,
		Header:  h,
		Raw:     c.data[offset:],
		Payload: c.data[start:end],
	}
	c.index++
	return record, nil
}

// Records returns all records of the chain.
func Records(data []byte) ([]Record, error) {
	chain := NewChain(data)
	var records []Record
	for chain.HasNext() {
		record, err := chain.Next()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (c *Chain) current() (Header, error) {
	if c.cursor > len(c.data) {
		return Header{}, c.malformed("header offset beyond chain end")
	}
	h, err := DecodeHeader(c.data[c.cursor:])
	if err != nil {
		return Header{}, fault.New(fault.MalformedDescriptor, "resource chain").
			WithIndex(c.index).
			WithOffset(c.cursor).
			Wrap(err)
	}
	return h, nil
}

func (c *Chain) malformed(format string, args ...any) error {
	return fault.New(fault.MalformedDescriptor, "resource chain").
		WithIndex(c.index).
		WithOffset(c.cursor).
		WithDetail(format, args...)
}
