package vram

import (
	"fmt"
	"image"
	"image/color"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
)

// Texture page and color lookup table geometry.
const (
	TexturePageWidth  = 64  // horizontal page unit in pixels
	TexturePageHeight = 256 // vertical page unit in pixels
	ClutXUnit         = 16  // horizontal CLUT unit in pixels
)

// Depth is the texture color depth as encoded in a texture page descriptor.
type Depth uint8

// texture depths.
const (
	Depth4  Depth = 0
	Depth8  Depth = 1
	Depth16 Depth = 2
)

func (d Depth) String() string {
	switch d {
	case Depth4:
		return "4bpp"
	case Depth8:
		return "8bpp"
	case Depth16:
		return "16bpp"
	default:
		return fmt.Sprintf("bpp(%d)", uint8(d))
	}
}

// xShift returns how many logical texture pixels one raw pixel slot holds, as a shift.
func (d Depth) xShift() uint {
	switch d {
	case Depth4:
		return 2
	case Depth8:
		return 1
	default:
		return 0
	}
}

// PaletteSize returns the number of colors of an indexed depth.
func (d Depth) PaletteSize() int {
	switch d {
	case Depth4:
		return 16
	case Depth8:
		return 256
	default:
		return 0
	}
}

// Texture locates a sprite fragment inside the video memory.
type Texture struct {
	Depth  Depth
	PageX  int // texture page column, in TexturePageWidth units
	PageY  int // texture page row, in TexturePageHeight units
	U, V   int // offset inside the page in logical texture pixels
	Width  int
	Height int
	ClutX  int // palette column, in ClutXUnit units
	ClutY  int
}

// Rect returns the rectangle of raw pixel slots holding the texture. The width is
// truncated to whole slots, decoding pads the missing pixels.
func (t Texture) Rect() image.Rectangle {
	shift := t.Depth.xShift()
	x := t.PageX*TexturePageWidth + t.U>>shift
	y := t.PageY*TexturePageHeight + t.V
	return image.Rect(x, y, x+t.Width>>shift, y+t.Height)
}

// ClutPoint returns the position of the texture palette.
func (t Texture) ClutPoint() image.Point {
	return image.Pt(t.ClutX*ClutXUnit, t.ClutY)
}

// ReadTexture decodes a texture with the palette its depth requires.
func (v *VRAM) ReadTexture(t Texture) (image.Image, error) {
	switch t.Depth {
	case Depth4, Depth8:
		palette, err := v.ReadPalette(t.ClutPoint(), t.Depth.PaletteSize())
		if err != nil {
			return nil, err
		}
		if t.Depth == Depth4 {
			img, err := v.Read4BppTexture(t, palette)
			if err != nil {
				return nil, err
			}
			return img, nil
		}
		img, err := v.Read8BppTexture(t, palette)
		if err != nil {
			return nil, err
		}
		return img, nil

	case Depth16:
		img, err := v.Read16BppTexture(t)
		if err != nil {
			return nil, err
		}
		return img, nil

	default:
		return nil, fault.New(fault.MalformedDescriptor, "read texture").WithDetail("unknown depth %d", t.Depth)
	}
}

// Read16BppTexture decodes a direct color texture.
func (v *VRAM) Read16BppTexture(t Texture) (*image.NRGBA, error) {
	if err := expectDepth(t, Depth16); err != nil {
		return nil, err
	}
	img, err := v.Read16BppRect(t.Rect())
	if err != nil {
		return nil, err
	}
	return cropNRGBA(img, t.Width, t.Height), nil
}

// Read8BppTexture decodes a texture with one palette index per byte.
func (v *VRAM) Read8BppTexture(t Texture, palette color.Palette) (*image.Paletted, error) {
	if err := expectDepth(t, Depth8); err != nil {
		return nil, err
	}
	img, err := v.Read8BppRect(t.Rect(), palette)
	if err != nil {
		return nil, err
	}
	return cropPaletted(img, t.Width, t.Height), nil
}

// Read4BppTexture decodes a texture with two palette indexes per byte.
func (v *VRAM) Read4BppTexture(t Texture, palette color.Palette) (*image.Paletted, error) {
	if err := expectDepth(t, Depth4); err != nil {
		return nil, err
	}
	img, err := v.Read4BppRect(t.Rect(), palette)
	if err != nil {
		return nil, err
	}
	return cropPaletted(img, t.Width, t.Height), nil
}

// Read16BppRect decodes a rectangle of raw pixels, one output pixel per slot.
func (v *VRAM) Read16BppRect(rect image.Rectangle) (*image.NRGBA, error) {
	if !v.IsInitialized(rect) {
		return nil, uninitialized("16bpp texture", rect)
	}
	img := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := range rect.Dy() {
		for x := range rect.Dx() {
			img.SetNRGBA(x, y, v.pixel(rect.Min.X+x, rect.Min.Y+y).nrgba())
		}
	}
	return img, nil
}

// Read8BppRect decodes a rectangle of raw pixels, two output pixels per slot.
func (v *VRAM) Read8BppRect(rect image.Rectangle, palette color.Palette) (*image.Paletted, error) {
	if !v.IsInitialized(rect) {
		return nil, uninitialized("8bpp texture", rect)
	}
	img := image.NewPaletted(image.Rect(0, 0, rect.Dx()<<1, rect.Dy()), palette)
	for y := range rect.Dy() {
		offset := pixelOffset(rect.Min.X, rect.Min.Y+y)
		copy(img.Pix[y*img.Stride:], v.buf[offset:offset+img.Rect.Dx()])
	}
	return img, nil
}

// Read4BppRect decodes a rectangle of raw pixels, four output pixels per slot.
// The low nibble of each byte is the left pixel.
func (v *VRAM) Read4BppRect(rect image.Rectangle, palette color.Palette) (*image.Paletted, error) {
	if !v.IsInitialized(rect) {
		return nil, uninitialized("4bpp texture", rect)
	}
	img := image.NewPaletted(image.Rect(0, 0, rect.Dx()<<2, rect.Dy()), palette)
	for y := range rect.Dy() {
		line := img.Pix[y*img.Stride:]
		offset := pixelOffset(rect.Min.X, rect.Min.Y+y)
		for x := range rect.Dx() * PixelSize {
			b := v.buf[offset+x]
			line[2*x] = b & 0x0f
			line[2*x+1] = b >> 4
		}
	}
	return img, nil
}

// ReadPalette reads size colors stored as consecutive raw pixels starting at point.
// Only the size pixels holding the colors have to be initialized.
func (v *VRAM) ReadPalette(point image.Point, size int) (color.Palette, error) {
	rect := image.Rect(point.X, point.Y, point.X+size, point.Y+1)
	if !rect.In(image.Rect(0, 0, Width, Height)) {
		return nil, fault.New(fault.OutOfBounds, "read palette").WithRect(rect)
	}
	if !v.IsInitialized(rect) {
		return nil, uninitialized(fmt.Sprintf("%d colors palette", size), rect)
	}
	palette := make(color.Palette, size)
	for i := range size {
		palette[i] = v.pixel(point.X+i, point.Y).nrgba()
	}
	return palette, nil
}

func expectDepth(t Texture, expected Depth) error {
	if t.Depth != expected {
		return fault.New(fault.MalformedDescriptor, "read texture").
			WithDetail("expected %s, texture is %s", expected, t.Depth)
	}
	return nil
}

func uninitialized(what string, rect image.Rectangle) error {
	return fault.New(fault.UninitializedRead, "read "+what).WithRect(rect)
}

// cropNRGBA returns img resized to width x height, anchored at the top left.
// Pixels outside the source stay transparent.
func cropNRGBA(img *image.NRGBA, width, height int) *image.NRGBA {
	if img.Rect.Dx() == width && img.Rect.Dy() == height {
		return img
	}
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	lineSize := min(width, img.Rect.Dx()) * 4
	for y := range min(height, img.Rect.Dy()) {
		copy(out.Pix[y*out.Stride:y*out.Stride+lineSize], img.Pix[y*img.Stride:])
	}
	return out
}

// cropPaletted returns img resized to width x height, anchored at the top left.
// Pixels outside the source use palette index 0.
func cropPaletted(img *image.Paletted, width, height int) *image.Paletted {
	if img.Rect.Dx() == width && img.Rect.Dy() == height {
		return img
	}
	out := image.NewPaletted(image.Rect(0, 0, width, height), img.Palette)
	lineSize := min(width, img.Rect.Dx())
	for y := range min(height, img.Rect.Dy()) {
		copy(out.Pix[y*out.Stride:y*out.Stride+lineSize], img.Pix[y*img.Stride:])
	}
	return out
}
