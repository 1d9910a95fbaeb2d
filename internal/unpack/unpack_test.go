package unpack

import (
	"bytes"
	"testing"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
	"github.com/retroenv/retrogolib/assert"
)

// encoder produces compressed streams for tests. Control bytes are reserved in
// the output at the point the decoder will fetch them.
type encoder struct {
	out        []byte
	controlPos int
	usedBits   int
}

func newEncoder() *encoder {
	return &encoder{usedBits: 8}
}

func (e *encoder) bit(b byte) {
	if e.usedBits == 8 {
		e.controlPos = len(e.out)
		e.out = append(e.out, 0)
		e.usedBits = 0
	}
	e.out[e.controlPos] |= b << e.usedBits
	e.usedBits++
}

func (e *encoder) literal(data ...byte) *encoder {
	for _, b := range data {
		e.bit(0)
		e.out = append(e.out, b)
	}
	return e
}

// short encodes a match of 2 to 5 bytes, distance 256 is stored as 0.
func (e *encoder) short(length, distance int) *encoder {
	v := byte(length - 2)
	e.bit(1)
	e.bit(1)
	e.bit(v >> 1)
	e.bit(v & 1)
	e.out = append(e.out, byte(distance))
	return e
}

// long encodes a match with a 12 bit distance, lengths above 17 use the
// extension byte.
func (e *encoder) long(length, distance int) *encoder {
	e.bit(1)
	e.bit(0)
	if length <= 17 {
		n := distance<<4 | (length - 2)
		e.out = append(e.out, byte(n>>8), byte(n))
		return e
	}
	n := distance << 4
	e.out = append(e.out, byte(n>>8), byte(n), byte(length-1))
	return e
}

func (e *encoder) end() []byte {
	e.bit(1)
	e.bit(0)
	return append(e.out, 0, 0)
}

func TestCapacityFor(t *testing.T) {
	assert.Equal(t, 0, CapacityFor(0))
	assert.Equal(t, 0x1000, CapacityFor(1))
	assert.Equal(t, 0x1000, CapacityFor(0x800))
	assert.Equal(t, 0x2000, CapacityFor(0x801))
}

func TestEndOfStreamOnly(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00}
	assert.Equal(t, data, newEncoder().end())

	out, err := Decode(data, 16)
	assert.NoError(t, err)
	assert.Len(t, out, 0)
}

func TestLiteralRoundTrip(t *testing.T) {
	expected := make([]byte, 300)
	for i := range expected {
		expected[i] = byte(i * 7)
	}
	data := newEncoder().literal(expected...).end()

	out, err := Decode(data, CapacityFor(len(data)))
	assert.NoError(t, err)
	assert.Equal(t, expected, out)
}

func TestMatches(t *testing.T) {
	sequence := make([]byte, 256)
	for i := range sequence {
		sequence[i] = byte(i)
	}

	tests := []struct {
		name     string
		data     []byte
		expected []byte
	}{
		{
			name:     "short overlapping",
			data:     newEncoder().literal('a', 'b').short(5, 2).end(),
			expected: []byte("abababa"),
		},
		{
			name:     "short distance 256",
			data:     newEncoder().literal(sequence...).short(2, 256).end(),
			expected: append(append([]byte{}, sequence...), 0, 1),
		},
		{
			name:     "long with length nibble",
			data:     newEncoder().literal('x', 'y', 'z').long(4, 3).end(),
			expected: []byte("xyzxyzx"),
		},
		{
			name:     "long with length byte",
			data:     newEncoder().literal('r').long(20, 1).end(),
			expected: bytes.Repeat([]byte("r"), 21),
		},
		{
			name:     "literal after match",
			data:     newEncoder().literal('a').short(2, 1).literal('b').end(),
			expected: []byte("aaab"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decode(tt.data, 1024)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		capacity int
		kind     error
	}{
		{
			name:     "back reference before output start",
			data:     newEncoder().literal('a', 'b').short(2, 5).end(),
			capacity: 16,
			kind:     fault.ErrInvalidBackReference,
		},
		{
			name:     "truncated input",
			data:     newEncoder().literal('a', 'b', 'c').out,
			capacity: 16,
			kind:     fault.ErrDecodeOverflow,
		},
		{
			name:     "missing control byte",
			data:     nil,
			capacity: 16,
			kind:     fault.ErrDecodeOverflow,
		},
		{
			name:     "output capacity exceeded",
			data:     newEncoder().literal('a').long(20, 1).end(),
			capacity: 8,
			kind:     fault.ErrDecodeOverflow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decode(tt.data, tt.capacity)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}
