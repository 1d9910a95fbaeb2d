// Package compose assembles the sprite fragments of an animation frame into a
// single image.
package compose

import (
	"image"

	"github.com/czajowaty/ad-resources-dumper/internal/gamedata"
	"github.com/czajowaty/ad-resources-dumper/internal/psx"
	"golang.org/x/image/draw"
)

// Fragment is a decoded sprite fragment.
type Fragment struct {
	Address psx.Address // of the Graphic record
	Graphic gamedata.Graphic
	Image   image.Image // already mirrored according to the graphic flags
}

// Position returns the top left corner of a fragment relative to the frame
// origin. A mirrored fragment is placed on the opposite side of the origin.
func Position(g gamedata.Graphic, scale int) image.Point {
	p := image.Pt(int(g.XOffset), int(g.YOffset))
	if g.Flags.Has(gamedata.FlipHorizontally) {
		p.X = -p.X - int(g.Width)
	}
	if g.Flags.Has(gamedata.FlipVertically) {
		p.Y = -p.Y - int(g.Height)
	}
	return p.Mul(scale)
}

// Bounds returns the union of the fragment rectangles relative to the frame origin.
func Bounds(fragments []Fragment, scale int) image.Rectangle {
	var bounds image.Rectangle
	for i, fragment := range fragments {
		g := fragment.Graphic
		p := Position(g, scale)
		r := image.Rect(p.X, p.Y, p.X+int(g.Width), p.Y+int(g.Height))
		if i == 0 {
			bounds = r
			continue
		}
		bounds = bounds.Union(r)
	}
	return bounds
}

// Combine draws the fragments onto a transparent canvas sized to their bounds.
// The first fragment of the chain ends up on top. No fragments result in an
// empty image.
func Combine(fragments []Fragment, scale int) *image.NRGBA {
	if len(fragments) == 0 {
		return image.NewNRGBA(image.Rectangle{})
	}
	bounds := Bounds(fragments, scale)
	anchor := bounds.Min.Mul(-1)
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for i := len(fragments) - 1; i >= 0; i-- {
		fragment := fragments[i]
		at := Position(fragment.Graphic, scale).Add(anchor)
		src := fragment.Image
		dst := src.Bounds().Sub(src.Bounds().Min).Add(at)
		draw.Draw(canvas, dst, src, src.Bounds().Min, draw.Over)
	}
	return canvas
}

// Mirror returns a copy of img flipped horizontally and/or vertically.
func Mirror(img image.Image, horizontal, vertical bool) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	if !horizontal && !vertical {
		return out
	}

	mirrored := image.NewNRGBA(out.Rect)
	w, h := b.Dx(), b.Dy()
	for y := range h {
		sy := y
		if vertical {
			sy = h - 1 - y
		}
		for x := range w {
			sx := x
			if horizontal {
				sx = w - 1 - x
			}
			mirrored.SetNRGBA(x, y, out.NRGBAAt(sx, sy))
		}
	}
	return mirrored
}

// MirrorGraphic mirrors a decoded fragment according to its graphic flags.
func MirrorGraphic(img image.Image, g gamedata.Graphic) image.Image {
	horizontal := g.Flags.Has(gamedata.FlipHorizontally)
	vertical := g.Flags.Has(gamedata.FlipVertically)
	if !horizontal && !vertical {
		return img
	}
	return Mirror(img, horizontal, vertical)
}
