// Package disc reads data sectors from disc images.
package disc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sector geometry.
const (
	SectorDataSize = 0x800 // user data bytes per sector
	RawSectorSize  = 0x930 // bytes per sector of a raw image
	RawDataOffset  = 0x18  // offset of the user data inside a raw sector
)

// ErrOutOfRange is returned when a read reaches beyond the last sector.
var ErrOutOfRange = errors.New("sector range beyond end of image")

// Format is the sector layout of an image file.
type Format int

// image formats.
const (
	Raw    Format = iota // 2352 byte sectors with headers
	Cooked               // 2048 byte sectors holding only user data
)

func (f Format) String() string {
	switch f {
	case Raw:
		return "raw"
	case Cooked:
		return "cooked"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat returns the format of the given name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "raw", "bin":
		return Raw, nil
	case "cooked", "iso":
		return Cooked, nil
	default:
		return Raw, fmt.Errorf("unsupported disc format '%s'", name)
	}
}

// SectorSize returns the number of bytes a sector occupies in the image.
func (f Format) SectorSize() int64 {
	if f == Cooked {
		return SectorDataSize
	}
	return RawSectorSize
}

// FormatFromSize guesses the format from the image size. It reports false if the
// size is a multiple of neither sector size.
func FormatFromSize(size int64) (Format, bool) {
	switch {
	case size > 0 && size%RawSectorSize == 0:
		return Raw, true
	case size > 0 && size%SectorDataSize == 0:
		return Cooked, true
	default:
		return Raw, false
	}
}

// SectorsFor returns the number of sectors holding size bytes.
func SectorsFor(size uint32) uint32 {
	return (size + SectorDataSize - 1) / SectorDataSize
}

// SectorSource supplies the user data of consecutive sectors.
type SectorSource interface {
	ReadSectors(start, count uint32) ([]byte, error)
}

// Image reads sectors from a disc image.
type Image struct {
	reader  io.ReaderAt
	closer  io.Closer
	format  Format
	sectors int64
}

// NewImage returns an image reading size bytes of the given format from reader.
func NewImage(reader io.ReaderAt, size int64, format Format) *Image {
	return &Image{
		reader:  reader,
		format:  format,
		sectors: size / format.SectorSize(),
	}
}

// Open opens an image file. The returned image has to be closed.
func Open(path string, format Format) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening disc image %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("reading disc image info %s: %w", path, err)
	}

	img := NewImage(file, info.Size(), format)
	img.closer = file
	return img, nil
}

// Close closes the underlying file if the image owns one.
func (i *Image) Close() error {
	if i.closer == nil {
		return nil
	}
	return i.closer.Close()
}

// Format returns the sector layout of the image.
func (i *Image) Format() Format {
	return i.format
}

// Sectors returns the number of complete sectors in the image.
func (i *Image) Sectors() int64 {
	return i.sectors
}

// ReadSectors returns the user data of count sectors starting at start.
func (i *Image) ReadSectors(start, count uint32) ([]byte, error) {
	if int64(start)+int64(count) > i.sectors {
		return nil, fmt.Errorf("reading sectors %d+%d of %d: %w", start, count, i.sectors, ErrOutOfRange)
	}

	data := make([]byte, int(count)*SectorDataSize)
	if i.format == Cooked {
		if _, err := i.reader.ReadAt(data, int64(start)*SectorDataSize); err != nil {
			return nil, fmt.Errorf("reading sectors %d+%d: %w", start, count, err)
		}
		return data, nil
	}

	for n := range int64(count) {
		offset := (int64(start)+n)*RawSectorSize + RawDataOffset
		buf := data[n*SectorDataSize : (n+1)*SectorDataSize]
		if _, err := i.reader.ReadAt(buf, offset); err != nil {
			return nil, fmt.Errorf("reading sector %d: %w", int64(start)+n, err)
		}
	}
	return data, nil
}
