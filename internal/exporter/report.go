package exporter

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/czajowaty/ad-resources-dumper/internal/loader"
)

// WriteReport writes a text description of a loaded portrait variant: where
// its records live, how its resources are loaded and how every frame is built.
func WriteReport(w io.Writer, speaker string, portrait *loader.Portrait) error {
	var b strings.Builder
	variant := portrait.Variant
	info := portrait.LoadInfo

	fmt.Fprintf(&b, "%s variant %d\n", speaker, variant.Index)
	fmt.Fprintf(&b, "Portrait data address: %s\n", variant.Address)
	fmt.Fprintf(&b, "Memory load info address: %s\n", variant.Data.LoadInfo)
	fmt.Fprintf(&b, "Animation address: %s\n", variant.Data.Animation)
	fmt.Fprintf(&b, "Memory load info:\n")
	fmt.Fprintf(&b, "  Address: %s\n", info.Address)
	fmt.Fprintf(&b, "  Sector: 0x%x\n", info.Sector)
	fmt.Fprintf(&b, "  Sectors number: 0x%x\n", info.Sectors)
	fmt.Fprintf(&b, "Graphics offset scale: %d\n", portrait.OffsetScale)
	for i, rect := range portrait.Textures {
		fmt.Fprintf(&b, "Texture %d: %s\n", i, formatRect(rect))
	}

	for i, frame := range portrait.Frames {
		img := portrait.Image(i)
		fmt.Fprintf(&b, "Animation frame %d:\n", i)
		fmt.Fprintf(&b, "  Address: %s\n", frame.Address)
		fmt.Fprintf(&b, "  Duration: %d\n", frame.Animation.Duration)
		fmt.Fprintf(&b, "  Graphic address: %s\n", frame.Animation.Graphic)
		fmt.Fprintf(&b, "  Full image size: w=%d, h=%d\n", img.Rect.Dx(), img.Rect.Dy())
		fmt.Fprintf(&b, "  Image parts:\n")

		for j, fragment := range frame.Fragments {
			g := fragment.Graphic
			fmt.Fprintf(&b, "    Part %d at %s:\n", j, fragment.Address)
			fmt.Fprintf(&b, "      Flags: %s\n", g.Flags)
			fmt.Fprintf(&b, "      BPP: %s\n", g.Texpage.Depth)
			fmt.Fprintf(&b, "      Texture page: 0x%x, 0x%x\n", g.Texpage.X, g.Texpage.Y)
			fmt.Fprintf(&b, "      CLUT coordinates: 0x%x, 0x%x\n", g.Clut.X, g.Clut.Y)
			fmt.Fprintf(&b, "      Position: %d (0x%02x), %d (0x%02x)\n",
				g.XOffset, uint8(g.XOffset), g.YOffset, uint8(g.YOffset))
			fmt.Fprintf(&b, "      In-texture page bounds: x=0x%x, y=0x%x, w=0x%x, h=0x%x\n",
				g.U, g.V, g.Width, g.Height)
			fmt.Fprintf(&b, "      VRAM bounds: %s\n", formatRect(g.Texture().Rect()))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatRect(r image.Rectangle) string {
	return fmt.Sprintf("x=0x%x, y=0x%x, w=0x%x, h=0x%x", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}
