package verification

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func checkerboard() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := range 3 {
		for x := range 4 {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 0xff, B: 0x10, A: 0xff})
			}
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.png")
	file, err := os.Create(path)
	assert.NoError(t, err)
	assert.NoError(t, png.Encode(file, img))
	assert.NoError(t, file.Close())
	return path
}

func TestVerifyFile(t *testing.T) {
	img := checkerboard()
	path := writePNG(t, img)

	assert.NoError(t, VerifyFile(log.NewTestLogger(t), path, img))

	// mismatches are logged at error level
	changed := checkerboard()
	changed.SetNRGBA(1, 0, color.NRGBA{G: 0xff, A: 0xff})
	err := VerifyFile(log.NewNop(), path, changed)
	assert.ErrorContains(t, err, "1 pixel mismatches")
}

func TestVerifyFileErrors(t *testing.T) {
	logger := log.NewTestLogger(t)

	err := VerifyFile(logger, filepath.Join(t.TempDir(), "missing.png"), checkerboard())
	assert.ErrorContains(t, err, "opening file")

	path := filepath.Join(t.TempDir(), "garbage.png")
	assert.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))
	err = VerifyFile(logger, path, checkerboard())
	assert.ErrorContains(t, err, "decoding")
}

func TestCompareImages(t *testing.T) {
	logger := log.NewTestLogger(t)

	t.Run("size mismatch", func(t *testing.T) {
		err := CompareImages(logger, checkerboard(), image.NewNRGBA(image.Rect(0, 0, 3, 3)))
		assert.ErrorContains(t, err, "mismatched sizes")
	})

	t.Run("offset bounds", func(t *testing.T) {
		shifted := checkerboard()
		shifted.Rect = shifted.Rect.Add(image.Pt(5, 7))
		assert.NoError(t, CompareImages(logger, checkerboard(), shifted))
	})

	t.Run("transparent pixels ignore color", func(t *testing.T) {
		a := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		b := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		b.SetNRGBA(0, 0, color.NRGBA{R: 0x80})
		assert.NoError(t, CompareImages(logger, a, b))
	})

	t.Run("paletted against rgba", func(t *testing.T) {
		palette := color.Palette{color.NRGBA{}, color.NRGBA{R: 0xff, A: 0xff}}
		p := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
		p.SetColorIndex(1, 0, 1)
		n := image.NewNRGBA(image.Rect(0, 0, 2, 1))
		n.SetNRGBA(1, 0, color.NRGBA{R: 0xff, A: 0xff})
		assert.NoError(t, CompareImages(logger, p, n))
	})
}
