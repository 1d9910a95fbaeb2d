package gamedata

import (
	"encoding/binary"
	"fmt"
	"image"
	"strings"

	"github.com/czajowaty/ad-resources-dumper/internal/psx"
	"github.com/czajowaty/ad-resources-dumper/internal/vram"
)

// FrameType marks the position of an Animation record in its chain.
type FrameType uint16

// frame types.
const (
	NoAnimation  FrameType = 0
	LastFrame    FrameType = 1
	NotLastFrame FrameType = 2
)

func (f FrameType) String() string {
	switch f {
	case NoAnimation:
		return "no animation"
	case LastFrame:
		return "last frame"
	case NotLastFrame:
		return "not last frame"
	default:
		return fmt.Sprintf("frame type(%d)", uint16(f))
	}
}

// Animation is one frame of a portrait animation.
type Animation struct {
	Duration  uint8
	FrameType FrameType
	Graphic   psx.Address // first Graphic record of the frame
}

// DecodeAnimation decodes an Animation record.
func DecodeAnimation(data []byte) (Animation, error) {
	if err := checkSize("animation", data, AnimationSize); err != nil {
		return Animation{}, err
	}
	return Animation{
		Duration:  data[0],
		FrameType: FrameType(binary.LittleEndian.Uint16(data[2:])),
		Graphic:   psx.Address(binary.LittleEndian.Uint32(data[4:])),
	}, nil
}

// ReadAnimation reads an Animation record from memory.
func ReadAnimation(mem Memory, address psx.Address) (Animation, error) {
	data, err := mem.Read(address, AnimationSize)
	if err != nil {
		return Animation{}, fmt.Errorf("reading animation at %s: %w", address, err)
	}
	return DecodeAnimation(data)
}

// GraphicFlags are the flags of a Graphic record.
type GraphicFlags uint8

// graphic flags.
const (
	FlipHorizontally GraphicFlags = 0x01
	FlipVertically   GraphicFlags = 0x02
	PartOfSeries     GraphicFlags = 0x40
	SeriesEnd        GraphicFlags = 0x80
)

// Has reports whether all of the given flags are set.
func (f GraphicFlags) Has(flags GraphicFlags) bool {
	return f&flags == flags
}

var graphicFlagNames = []struct {
	flag GraphicFlags
	name string
}{
	{FlipHorizontally, "FlipHorizontally"},
	{FlipVertically, "FlipVertically"},
	{PartOfSeries, "PartOfSeries"},
	{SeriesEnd, "SeriesEnd"},
}

// String joins the names of the set flags with '|'. Unknown bits are appended
// as a hex value.
func (f GraphicFlags) String() string {
	var parts []string
	rest := f
	for _, n := range graphicFlagNames {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Texpage is a decoded texture page descriptor.
type Texpage struct {
	X                int // in vram.TexturePageWidth units
	Y                int // in vram.TexturePageHeight units
	SemiTransparency uint8
	Depth            vram.Depth
	Dither           bool
	DrawToDisplay    bool
	TextureDisable   bool
	XFlip            bool
	YFlip            bool
}

// DecodeTexpage decodes a packed texture page descriptor.
func DecodeTexpage(value uint16) Texpage {
	return Texpage{
		X:                int(value & 0xf),
		Y:                int(value >> 4 & 0x1),
		SemiTransparency: uint8(value >> 5 & 0x3),
		Depth:            vram.Depth(value >> 7 & 0x3),
		Dither:           value&(1<<9) != 0,
		DrawToDisplay:    value&(1<<10) != 0,
		TextureDisable:   value&(1<<11) != 0,
		XFlip:            value&(1<<12) != 0,
		YFlip:            value&(1<<13) != 0,
	}
}

// Clut is a decoded color lookup table position.
type Clut struct {
	X int // in vram.ClutXUnit units
	Y int
}

// DecodeClut decodes a packed color lookup table position.
func DecodeClut(value uint16) Clut {
	return Clut{
		X: int(value & 0x3f),
		Y: int(value >> 6 & 0x1ff),
	}
}

// Graphic is one sprite fragment of an animation frame.
type Graphic struct {
	Flags   GraphicFlags
	XOffset int8
	YOffset int8
	Texpage Texpage
	Clut    Clut
	U, V    uint8 // offset inside the texture page
	Width   uint8
	Height  uint8
}

// DecodeGraphic decodes a Graphic record.
func DecodeGraphic(data []byte) (Graphic, error) {
	if err := checkSize("graphic", data, GraphicSize); err != nil {
		return Graphic{}, err
	}
	return Graphic{
		Flags:   GraphicFlags(data[0]),
		XOffset: int8(data[2]),
		YOffset: int8(data[3]),
		Texpage: DecodeTexpage(binary.LittleEndian.Uint16(data[4:])),
		Clut:    DecodeClut(binary.LittleEndian.Uint16(data[6:])),
		U:       data[8],
		V:       data[9],
		Width:   data[10],
		Height:  data[11],
	}, nil
}

// ReadGraphic reads a Graphic record from memory.
func ReadGraphic(mem Memory, address psx.Address) (Graphic, error) {
	data, err := mem.Read(address, GraphicSize)
	if err != nil {
		return Graphic{}, fmt.Errorf("reading graphic at %s: %w", address, err)
	}
	return DecodeGraphic(data)
}

// Texture returns the video memory location of the fragment pixels.
func (g Graphic) Texture() vram.Texture {
	return vram.Texture{
		Depth:  g.Texpage.Depth,
		PageX:  g.Texpage.X,
		PageY:  g.Texpage.Y,
		U:      int(g.U),
		V:      int(g.V),
		Width:  int(g.Width),
		Height: int(g.Height),
		ClutX:  g.Clut.X,
		ClutY:  g.Clut.Y,
	}
}

// ReadRect reads a rectangle stored as x, y, width and height words.
func ReadRect(mem Memory, address psx.Address) (image.Rectangle, error) {
	data, err := mem.Read(address, RectSize)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("reading rect at %s: %w", address, err)
	}
	x := int(binary.LittleEndian.Uint16(data))
	y := int(binary.LittleEndian.Uint16(data[2:]))
	w := int(binary.LittleEndian.Uint16(data[4:]))
	h := int(binary.LittleEndian.Uint16(data[6:]))
	return image.Rect(x, y, x+w, y+h), nil
}
