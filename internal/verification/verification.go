// Package verification verifies that a written image file decodes back to the
// image it was created from.
package verification

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register decoder
	"os"

	"github.com/retroenv/retrogolib/log"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
)

// maxLoggedMismatches limits the per file mismatch log output.
const maxLoggedMismatches = 10

// VerifyFile decodes the image file at path and compares it pixel by pixel with
// the expected image.
func VerifyFile(logger *log.Logger, path string, expected image.Image) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file '%s' for comparison: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	decoded, format, err := image.Decode(file)
	if err != nil {
		return fmt.Errorf("decoding %s file '%s': %w", format, path, err)
	}

	if err := CompareImages(logger, expected, decoded); err != nil {
		return fmt.Errorf("file '%s': %w", path, err)
	}
	return nil
}

// CompareImages compares two images in non premultiplied color space. Fully
// transparent pixels match regardless of their color channels.
func CompareImages(logger *log.Logger, expected, actual image.Image) error {
	eb, ab := expected.Bounds(), actual.Bounds()
	if eb.Dx() != ab.Dx() || eb.Dy() != ab.Dy() {
		return fmt.Errorf("mismatched sizes, %dx%d != %dx%d", eb.Dx(), eb.Dy(), ab.Dx(), ab.Dy())
	}

	var diffs uint64
	for y := range eb.Dy() {
		for x := range eb.Dx() {
			e := nrgbaAt(expected, eb.Min.X+x, eb.Min.Y+y)
			a := nrgbaAt(actual, ab.Min.X+x, ab.Min.Y+y)
			if pixelsEqual(e, a) {
				continue
			}

			diffs++
			if diffs <= maxLoggedMismatches {
				logger.Error("Pixel mismatch",
					log.Int("x", x),
					log.Int("y", y),
					log.String("expected", formatColor(e)),
					log.String("got", formatColor(a)))
			}
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d pixel mismatches", diffs)
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	c, _ := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c
}

func pixelsEqual(a, b color.NRGBA) bool {
	if a.A == 0 && b.A == 0 {
		return true
	}
	return a == b
}

func formatColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
