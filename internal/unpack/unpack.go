// Package unpack implements the LZ style block decompression used for the
// packed textures on disc.
package unpack

import (
	"github.com/czajowaty/ad-resources-dumper/internal/fault"
)

// SectorSize is the granularity the output capacity of a payload is rounded to.
const SectorSize = 0x800

// CapacityFor returns the output capacity used for a packed payload of the given
// size: the size rounded up to whole sectors, doubled.
func CapacityFor(size int) int {
	return (size + SectorSize - 1) / SectorSize * SectorSize * 2
}

// decoder expands one compressed block.
type decoder struct {
	in          []byte
	inPos       int
	out         []byte
	capacity    int
	control     byte
	controlBits int
}

// Decode expands data into a block of at most capacity bytes.
func Decode(data []byte, capacity int) ([]byte, error) {
	capacity = max(capacity, 0)
	d := &decoder{
		in:          data,
		out:         make([]byte, 0, capacity),
		capacity:    capacity,
		controlBits: 8,
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.out, nil
}

func (d *decoder) run() error {
	for {
		for {
			bit, err := d.controlBit()
			if err != nil {
				return err
			}
			if bit != 0 {
				break
			}
			b, err := d.readByte()
			if err != nil {
				return err
			}
			if err := d.writeByte(b); err != nil {
				return err
			}
		}

		short, err := d.controlBit()
		if err != nil {
			return err
		}

		var length, distance int
		if short != 0 {
			length, distance, err = d.shortMatch()
		} else {
			length, distance, err = d.longMatch()
		}
		if err != nil {
			return err
		}
		if length == 0 {
			return nil // end of stream
		}
		if err := d.copyMatch(distance, length); err != nil {
			return err
		}
	}
}

// shortMatch decodes a 2 to 5 bytes match with a distance of 1 to 256.
func (d *decoder) shortMatch() (int, int, error) {
	high, err := d.controlBit()
	if err != nil {
		return 0, 0, err
	}
	low, err := d.controlBit()
	if err != nil {
		return 0, 0, err
	}
	b, err := d.readByte()
	if err != nil {
		return 0, 0, err
	}
	distance := int(b)
	if distance == 0 {
		distance = 0x100
	}
	return int(high<<1|low) + 2, distance, nil
}

// longMatch decodes a match with a 12 bit distance. A zero length is returned
// for the end of stream marker.
func (d *decoder) longMatch() (int, int, error) {
	hi, err := d.readByte()
	if err != nil {
		return 0, 0, err
	}
	lo, err := d.readByte()
	if err != nil {
		return 0, 0, err
	}
	n := int(hi)<<8 | int(lo)
	if n == 0 {
		return 0, 0, nil
	}

	length := n & 0xf
	if length == 0 {
		b, err := d.readByte()
		if err != nil {
			return 0, 0, err
		}
		length = int(b) + 1
	} else {
		length += 2
	}
	return length, n >> 4, nil
}

// copyMatch appends length bytes starting distance bytes back, one byte at a
// time so that a match can overlap its own output.
func (d *decoder) copyMatch(distance, length int) error {
	src := len(d.out) - distance
	if src < 0 {
		return fault.New(fault.InvalidBackReference, "unpack").
			WithOffset(len(d.out)).
			WithDetail("distance %d", distance)
	}
	for i := range length {
		if err := d.writeByte(d.out[src+i]); err != nil {
			return err
		}
	}
	return nil
}

// controlBit returns the next control bit, least significant bit first.
func (d *decoder) controlBit() (byte, error) {
	if d.controlBits >= 8 {
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		d.control = b
		d.controlBits = 0
	}
	bit := d.control & 1
	d.control >>= 1
	d.controlBits++
	return bit, nil
}

func (d *decoder) readByte() (byte, error) {
	if d.inPos >= len(d.in) {
		return 0, fault.New(fault.DecodeOverflow, "unpack read").
			WithOffset(d.inPos).
			WithDetail("input of %d bytes exhausted", len(d.in))
	}
	b := d.in[d.inPos]
	d.inPos++
	return b, nil
}

func (d *decoder) writeByte(b byte) error {
	if len(d.out) >= d.capacity {
		return fault.New(fault.DecodeOverflow, "unpack write").
			WithOffset(len(d.out)).
			WithDetail("output capacity of %d bytes exceeded", d.capacity)
	}
	d.out = append(d.out, b)
	return nil
}
