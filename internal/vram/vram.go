// Package vram implements the emulated video memory of the console and the
// decoders for the texture and palette formats stored in it.
//
// VRAM is not safe for concurrent mutation.
package vram

import (
	"image"
	"image/color"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
)

// Geometry of the video memory.
const (
	Width     = 1024 // pixels per scan line
	Height    = 512
	PixelSize = 2 // bytes per raw pixel slot
	LineSize  = Width * PixelSize
	Size      = LineSize * Height
)

// colorMapping expands a 5 bit color channel to 8 bits.
var colorMapping = [32]uint8{
	0, 23, 47, 63, 79, 95, 103, 111,
	119, 127, 135, 143, 151, 159, 167, 175,
	183, 191, 199, 207, 211, 215, 219, 223,
	227, 231, 235, 239, 243, 247, 251, 255,
}

// VRAM is the emulated video memory.
type VRAM struct {
	buf          [Size]byte
	rects        []image.Rectangle
	boundingRect image.Rectangle
}

// New returns a cleared VRAM.
func New() *VRAM {
	return &VRAM{}
}

// Clear zeroes the memory and forgets all initialized rectangles.
func (v *VRAM) Clear() {
	clear(v.buf[:])
	v.rects = v.rects[:0]
	v.boundingRect = image.Rectangle{}
}

// InitializedRects returns the recorded initialized rectangles.
func (v *VRAM) InitializedRects() []image.Rectangle {
	rects := make([]image.Rectangle, len(v.rects))
	copy(rects, v.rects)
	return rects
}

// BoundingRect returns the union of all initialized rectangles.
func (v *VRAM) BoundingRect() image.Rectangle {
	return v.boundingRect
}

// Load copies raw pixel data into the rectangle, scan line by scan line.
func (v *VRAM) Load(data []byte, rect image.Rectangle) error {
	if rect.Empty() {
		return fault.New(fault.MalformedDescriptor, "vram load").WithRect(rect).WithDetail("empty rect")
	}
	if !rect.In(image.Rect(0, 0, Width, Height)) {
		return fault.New(fault.OutOfBounds, "vram load").WithRect(rect)
	}
	lineSize := rect.Dx() * PixelSize
	if expected := lineSize * rect.Dy(); len(data) != expected {
		return fault.New(fault.MalformedDescriptor, "vram load").
			WithRect(rect).
			WithDetail("expected data size 0x%x, provided 0x%x", expected, len(data))
	}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		offset := pixelOffset(rect.Min.X, y)
		copy(v.buf[offset:offset+lineSize], data[:lineSize])
		data = data[lineSize:]
	}
	v.appendInitializedRect(rect)
	return nil
}

// appendInitializedRect records a loaded rectangle. Overlapping rectangles are not
// coalesced, only rectangles contained in an already recorded one are dropped.
func (v *VRAM) appendInitializedRect(rect image.Rectangle) {
	v.boundingRect = v.boundingRect.Union(rect)
	for _, initialized := range v.rects {
		if rect.In(initialized) {
			return
		}
	}
	v.rects = append(v.rects, rect)
}

// IsInitialized reports whether a rectangle counts as initialized. It does not
// check full coverage: the rectangle has to be inside the bounding rectangle of
// all loads and each of its four corners has to be inside some loaded rectangle.
// An empty rectangle reads no pixels and is always accepted.
func (v *VRAM) IsInitialized(rect image.Rectangle) bool {
	if rect.Empty() {
		return true
	}
	if !rect.In(v.boundingRect) {
		return false
	}
	corners := [...]image.Point{
		rect.Min,
		{X: rect.Max.X - 1, Y: rect.Min.Y},
		{X: rect.Min.X, Y: rect.Max.Y - 1},
		{X: rect.Max.X - 1, Y: rect.Max.Y - 1},
	}
	for _, corner := range corners {
		if !v.isPointInitialized(corner) {
			return false
		}
	}
	return true
}

func (v *VRAM) isPointInitialized(point image.Point) bool {
	for _, initialized := range v.rects {
		if point.In(initialized) {
			return true
		}
	}
	return false
}

// Image renders the whole video memory as opaque colors, ignoring initialization.
func (v *VRAM) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, Width, Height))
	for y := range Height {
		for x := range Width {
			c := v.pixel(x, y).opaque()
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// pixel16 is a decoded raw pixel.
type pixel16 struct {
	r, g, b         uint8
	semiTransparent bool
}

func (p pixel16) opaque() color.NRGBA {
	return color.NRGBA{R: p.r, G: p.g, B: p.b, A: 0xff}
}

// nrgba maps an all zero pixel without the semi transparency bit to a fully
// transparent color, every other pixel including black is opaque.
func (p pixel16) nrgba() color.NRGBA {
	if p.r != 0 || p.g != 0 || p.b != 0 || p.semiTransparent {
		return color.NRGBA{R: p.r, G: p.g, B: p.b, A: 0xff}
	}
	return color.NRGBA{}
}

func (v *VRAM) pixel(x, y int) pixel16 {
	offset := pixelOffset(x, y)
	return decodePixel(v.buf[offset], v.buf[offset+1])
}

func decodePixel(lo, hi byte) pixel16 {
	return pixel16{
		r:               colorMapping[lo&0x1f],
		g:               colorMapping[(lo>>5)|((hi&0x03)<<3)],
		b:               colorMapping[(hi>>2)&0x1f],
		semiTransparent: hi&0x80 != 0,
	}
}

func pixelOffset(x, y int) int {
	return y*LineSize + x*PixelSize
}
