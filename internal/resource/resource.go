// Package resource reads resource chains: a buffer starting with typed headers
// of variable size, each pointing at its payload inside the same buffer.
package resource

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
)

// Type is the tag of a resource header.
type Type uint16

// resource types.
const (
	None                    Type = 0 // terminates a chain
	VRAMLoadablePackedImage Type = 1 // packed image with a destination rect
	Palette                 Type = 2 // raw 4bpp palettes
	PackedImage             Type = 3 // packed image, destination given externally
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case VRAMLoadablePackedImage:
		return "vram loadable packed image"
	case Palette:
		return "palette"
	case PackedImage:
		return "packed image"
	default:
		return fmt.Sprintf("type(%d)", uint16(t))
	}
}

// Header sizes in bytes.
const (
	HeaderSize            = 8
	ImageHeaderSize       = HeaderSize + 8
	PaletteHeaderSize     = HeaderSize + 6
	PackedImageHeaderSize = HeaderSize + 4
)

// Palette geometry of the palette records.
const (
	PaletteBaseY     = 448 // scan line the y offset of a palette is relative to
	PaletteColors    = 16  // colors of one 4bpp palette
	PaletteBytes     = PaletteColors * 2
	paletteCopyFlag  = 0x0001
	paletteXMask     = 0x003f
	paletteYMask     = 0x003f
	paletteYShift    = 6
	paletteShiftFlag = 0x1000
)

// Header is the fixed leading part of every record.
type Header struct {
	Type            Type
	HeaderSize      uint16 // stride to the next header
	DataStartOffset uint32 // payload offset relative to the chain start
}

// DecodeHeader decodes the base header at the start of data.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, truncated("header", HeaderSize, len(data))
	}
	return Header{
		Type:            Type(binary.LittleEndian.Uint16(data)),
		HeaderSize:      binary.LittleEndian.Uint16(data[2:]),
		DataStartOffset: binary.LittleEndian.Uint32(data[4:]),
	}, nil
}

// ImageHeader is the header of a VRAMLoadablePackedImage record.
type ImageHeader struct {
	Header
	Rect image.Rectangle // destination in the video memory
}

// DecodeImageHeader decodes an image header at the start of data.
func DecodeImageHeader(data []byte) (ImageHeader, error) {
	h, err := decodeTyped(data, VRAMLoadablePackedImage, ImageHeaderSize)
	if err != nil {
		return ImageHeader{}, err
	}
	return ImageHeader{
		Header: h,
		Rect:   DecodeRect(data[HeaderSize:]),
	}, nil
}

// DecodeRect decodes a rectangle stored as x, y, width and height words.
// data must hold at least 8 bytes.
func DecodeRect(data []byte) image.Rectangle {
	x := int(binary.LittleEndian.Uint16(data))
	y := int(binary.LittleEndian.Uint16(data[2:]))
	w := int(binary.LittleEndian.Uint16(data[4:]))
	h := int(binary.LittleEndian.Uint16(data[6:]))
	return image.Rect(x, y, x+w, y+h)
}

// PaletteHeader is the header of a Palette record.
type PaletteHeader struct {
	Header
	X        int  // in units of one palette
	YOffset  int  // relative to PaletteBaseY
	XShift   bool // kept for fidelity, not used for placement
	Count    int  // number of 4bpp palettes
	Flags    uint16
	Position uint16
}

// DecodePaletteHeader decodes a palette header at the start of data.
func DecodePaletteHeader(data []byte) (PaletteHeader, error) {
	h, err := decodeTyped(data, Palette, PaletteHeaderSize)
	if err != nil {
		return PaletteHeader{}, err
	}
	position := binary.LittleEndian.Uint16(data[HeaderSize:])
	return PaletteHeader{
		Header:   h,
		Position: position,
		X:        int(position & paletteXMask),
		YOffset:  int(position >> paletteYShift & paletteYMask),
		XShift:   position&paletteShiftFlag != 0,
		Count:    int(binary.LittleEndian.Uint16(data[HeaderSize+2:])),
		Flags:    binary.LittleEndian.Uint16(data[HeaderSize+4:]),
	}, nil
}

// ShouldCopy reports whether the palettes are meant to be copied to the video memory.
func (h PaletteHeader) ShouldCopy() bool {
	return h.Flags&paletteCopyFlag == 0
}

// Rect returns the video memory destination of the palettes.
func (h PaletteHeader) Rect() image.Rectangle {
	x := h.X * PaletteBytes
	y := PaletteBaseY + h.YOffset
	return image.Rect(x, y, x+h.Count*PaletteColors, y+1)
}

// DataSize returns the payload size the palettes occupy.
func (h PaletteHeader) DataSize() int {
	return h.Count * PaletteBytes
}

// PackedImageHeader is the header of a PackedImage record.
type PackedImageHeader struct {
	Header
	UnpackedDataOffset uint32 // present in the data, not consumed
}

// DecodePackedImageHeader decodes a packed image header at the start of data.
func DecodePackedImageHeader(data []byte) (PackedImageHeader, error) {
	h, err := decodeTyped(data, PackedImage, PackedImageHeaderSize)
	if err != nil {
		return PackedImageHeader{}, err
	}
	return PackedImageHeader{
		Header:             h,
		UnpackedDataOffset: binary.LittleEndian.Uint32(data[HeaderSize:]),
	}, nil
}

func decodeTyped(data []byte, expected Type, size int) (Header, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Header{}, err
	}
	if h.Type != expected {
		return Header{}, fault.New(fault.UnexpectedRecordType, "decode header").
			WithDetail("expected %s, got %s", expected, h.Type)
	}
	if len(data) < size {
		return Header{}, truncated(expected.String()+" header", size, len(data))
	}
	return h, nil
}

func truncated(what string, expected, actual int) error {
	return fault.New(fault.MalformedDescriptor, "decode "+what).
		WithDetail("needs %d bytes, %d available", expected, actual)
}
