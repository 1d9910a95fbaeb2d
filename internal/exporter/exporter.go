// Package exporter writes decoded portrait frames, their fragments and the video
// memory to image files.
package exporter

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/czajowaty/ad-resources-dumper/internal/verification"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/draw"
)

// Options controls how images are written.
type Options struct {
	Directory string // output directory, created if missing
	Format    Format
	Scale     int  // integer upscale factor, values below 2 keep the original size
	Verify    bool // decode every written file and compare it with the source image
}

// Exporter writes images into an output directory.
type Exporter struct {
	logger  *log.Logger
	options Options
	written int
}

// New creates an exporter.
func New(logger *log.Logger, options Options) (*Exporter, error) {
	if options.Format == "" {
		options.Format = PNG
	}
	if _, err := ParseFormat(string(options.Format)); err != nil {
		return nil, err
	}
	if options.Scale < 1 {
		options.Scale = 1
	}
	if options.Directory == "" {
		options.Directory = "."
	}
	if err := os.MkdirAll(options.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory '%s': %w", options.Directory, err)
	}

	return &Exporter{
		logger:  logger,
		options: options,
	}, nil
}

// Written returns the number of files written so far.
func (e *Exporter) Written() int {
	return e.written
}

// FrameName returns the base name of a frame image. A negative element index
// names the composite frame, others name a single fragment of it.
func FrameName(speaker string, variant, frame, element int) string {
	name := speaker + "_variant" + strconv.Itoa(variant) + "_frame" + strconv.Itoa(frame)
	if element >= 0 {
		name += "_element" + strconv.Itoa(element)
	}
	return name
}

// WriteImage writes img to a file with the given base name in the output
// directory and returns the file path.
func (e *Exporter) WriteImage(name string, img image.Image) (string, error) {
	if img.Bounds().Empty() {
		return "", fmt.Errorf("image '%s' is empty", name)
	}

	out := e.prepare(img)
	path := filepath.Join(e.options.Directory, name+e.options.Format.Extension())
	if err := writeFile(path, out, e.options.Format); err != nil {
		return "", err
	}
	e.written++

	e.logger.Debug("Wrote image",
		log.String("file", path),
		log.Int("width", out.Bounds().Dx()),
		log.Int("height", out.Bounds().Dy()))

	if e.options.Verify {
		if err := verification.VerifyFile(e.logger, path, out); err != nil {
			return path, fmt.Errorf("verification failed: %w", err)
		}
	}
	return path, nil
}

// WriteTo encodes img in the configured format and scale to w.
func (e *Exporter) WriteTo(w io.Writer, img image.Image) error {
	return Encode(w, e.prepare(img), e.options.Format)
}

// prepare scales img and converts it to non premultiplied RGBA, which every
// supported encoder writes with its alpha channel.
func (e *Exporter) prepare(img image.Image) *image.NRGBA {
	scaled := Scale(img, e.options.Scale)
	if n, ok := scaled.(*image.NRGBA); ok {
		return n
	}
	b := scaled.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, scaled, b.Min, draw.Src)
	return dst
}

// Scale returns img upscaled by an integer factor using nearest neighbor
// sampling, so palette pixels stay sharp.
func Scale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}

func writeFile(path string, img image.Image, format Format) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file '%s': %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing output file '%s': %w", path, cerr))
		}
	}()

	if err := Encode(file, img, format); err != nil {
		return fmt.Errorf("encoding '%s': %w", path, err)
	}
	return nil
}
