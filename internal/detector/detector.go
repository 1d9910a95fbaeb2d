// Package detector handles disc image format detection.
package detector

import (
	"path/filepath"
	"strings"

	"github.com/czajowaty/ad-resources-dumper/internal/disc"
	"github.com/czajowaty/ad-resources-dumper/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// Detector handles disc image format detection from file extensions, sizes and options.
type Detector struct {
	logger *log.Logger
}

// New creates a new disc format detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the sector format of the input image. An explicitly
// specified format wins, otherwise the file extension is checked, followed by
// the image size.
func (d *Detector) Detect(opts options.Program, size int64) (disc.Format, error) {
	if opts.DiscFormat != "" {
		return disc.ParseFormat(opts.DiscFormat)
	}

	format, how := d.detectFromFile(opts.Input, size)
	d.logger.Debug("Auto-detected disc format",
		log.Stringer("format", format),
		log.String("by", how),
		log.String("file", opts.Input))
	return format, nil
}

// detectFromFile determines the disc format based on file extension and size.
func (d *Detector) detectFromFile(filename string, size int64) (disc.Format, string) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".bin", ".img":
		return disc.Raw, "extension"
	case ".iso":
		return disc.Cooked, "extension"
	}

	if format, ok := disc.FormatFromSize(size); ok {
		return format, "size"
	}
	// Default to raw images as dumped by most ripping tools
	return disc.Raw, "default"
}
