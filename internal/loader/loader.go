// Package loader loads the resources of a disc image into the emulated memories
// and decodes character portraits from them.
//
// A Loader owns its RAM and VRAM. It is not safe for concurrent use: a load
// mutates both memories and a failed load leaves them unusable until the next
// successful Load.
package loader

import (
	"fmt"

	"github.com/czajowaty/ad-resources-dumper/internal/disc"
	"github.com/czajowaty/ad-resources-dumper/internal/gamedata"
	"github.com/czajowaty/ad-resources-dumper/internal/layout"
	"github.com/czajowaty/ad-resources-dumper/internal/psx"
	"github.com/czajowaty/ad-resources-dumper/internal/ram"
	"github.com/czajowaty/ad-resources-dumper/internal/resource"
	"github.com/czajowaty/ad-resources-dumper/internal/unpack"
	"github.com/czajowaty/ad-resources-dumper/internal/vram"
	"github.com/retroenv/retrogolib/log"
)

// sectorCountMask keeps the bits of a default sector count that a MemoryLoadInfo
// sector count does not replace.
const sectorCountMask = ^uint32(0x1ff)

// Loader sequences the disc loads and reads the portrait structures.
type Loader struct {
	logger *log.Logger
	layout *layout.Layout
	ram    *ram.RAM
	vram   *vram.VRAM
	source disc.SectorSource
}

// New creates a loader for the given title layout.
func New(logger *log.Logger, lay *layout.Layout) *Loader {
	return &Loader{
		logger: logger,
		layout: lay,
		ram:    ram.New(),
		vram:   vram.New(),
	}
}

// RAM returns the emulated main memory.
func (l *Loader) RAM() *ram.RAM {
	return l.ram
}

// VRAM returns the emulated video memory.
func (l *Loader) VRAM() *vram.VRAM {
	return l.vram
}

// Layout returns the title layout the loader uses.
func (l *Loader) Layout() *layout.Layout {
	return l.layout
}

// Load clears the memories and loads the executable tables and the town
// resources from source. Later portrait loads read from the same source.
func (l *Loader) Load(source disc.SectorSource) error {
	l.source = source
	l.ram.Clear()
	l.vram.Clear()

	if err := l.loadExecutable(); err != nil {
		return fmt.Errorf("loading executable: %w", err)
	}
	if err := l.LoadGameMode(gamedata.Town); err != nil {
		return fmt.Errorf("loading town resources: %w", err)
	}
	if err := l.loadTownVRAM(); err != nil {
		return fmt.Errorf("loading town video memory resources: %w", err)
	}
	return nil
}

func (l *Loader) loadExecutable() error {
	sectors := disc.SectorsFor(l.layout.ExecutableSize)
	l.logger.Debug("Loading executable",
		log.Hex("sector", l.layout.ExecutableSector),
		log.Hex("sectors", sectors),
		log.Stringer("address", l.layout.ExecutableAddress))

	data, err := l.readSectors(l.layout.ExecutableSector, sectors)
	if err != nil {
		return err
	}
	return l.ram.Load(data, l.layout.ExecutableAddress)
}

// LoadGameMode loads the resources of a game mode into RAM. A game mode without
// a load info record is skipped.
func (l *Loader) LoadGameMode(mode gamedata.GameMode) error {
	index := uint32(mode)
	entryAddress, err := l.layout.GameModeTable.Add(index * gamedata.GameModeDataSize)
	if err != nil {
		return err
	}
	modeData, err := gamedata.ReadGameModeData(l.ram, entryAddress)
	if err != nil {
		return err
	}
	if modeData.MemoryLoadInfo.IsNull() {
		l.logger.Debug("Game mode has no resources", log.Stringer("mode", mode))
		return nil
	}

	sectorsAddress, err := l.layout.GameModeSectorsTable.Add(index * 4)
	if err != nil {
		return err
	}
	sectors, err := l.ram.DWord(sectorsAddress)
	if err != nil {
		return fmt.Errorf("reading sector count of game mode %s: %w", mode, err)
	}

	info, err := gamedata.ReadMemoryLoadInfo(l.ram, modeData.MemoryLoadInfo)
	if err != nil {
		return err
	}
	if info.Address.IsNull() {
		return malformed("load game mode", modeData.MemoryLoadInfo, "load address is null")
	}
	sectors = sectors&sectorCountMask | info.Sectors

	l.logger.Debug("Loading game mode resources",
		log.Stringer("mode", mode),
		log.Hex("sector", info.Sector),
		log.Hex("sectors", sectors),
		log.Stringer("address", info.Address.KSEG0()))

	data, err := l.readSectors(info.Sector, sectors)
	if err != nil {
		return err
	}
	return l.ram.Load(data, info.Address.KSEG0())
}

// loadTownVRAM loads the town resource chain: packed images go to their own
// rect, palettes to the rect encoded in their position.
func (l *Loader) loadTownVRAM() error {
	info, err := gamedata.ReadMemoryLoadInfo(l.ram, l.layout.TownResources)
	if err != nil {
		return err
	}
	data, err := l.readSectors(info.Sector, info.Sectors)
	if err != nil {
		return err
	}

	chain := resource.NewChain(data)
	for chain.HasNext() {
		record, err := chain.Next()
		if err != nil {
			return err
		}

		switch record.Header.Type {
		case resource.VRAMLoadablePackedImage:
			err = l.loadPackedImage(record)
		case resource.Palette:
			err = l.loadPalette(record)
		default:
			err = unexpectedRecord("town resource", record)
		}
		if err != nil {
			return fmt.Errorf("town resource %d: %w", record.Index, err)
		}
	}
	return nil
}

func (l *Loader) loadPackedImage(record resource.Record) error {
	h, err := resource.DecodeImageHeader(record.Raw)
	if err != nil {
		return err
	}
	texture, err := unpack.Decode(record.Payload, unpack.CapacityFor(len(record.Payload)))
	if err != nil {
		return err
	}
	l.logger.Debug("Loading packed image", log.Int("index", record.Index), log.Stringer("rect", h.Rect))
	return l.vram.Load(texture, h.Rect)
}

func (l *Loader) loadPalette(record resource.Record) error {
	h, err := resource.DecodePaletteHeader(record.Raw)
	if err != nil {
		return err
	}
	if !h.ShouldCopy() {
		return nil
	}
	size := h.DataSize()
	if size > len(record.Payload) {
		return malformedRecord(record, "palette data of %d bytes exceeds payload of %d bytes", size, len(record.Payload))
	}
	l.logger.Debug("Loading palettes", log.Int("index", record.Index), log.Stringer("rect", h.Rect()))
	return l.vram.Load(record.Payload[:size], h.Rect())
}

func (l *Loader) readSectors(start, count uint32) ([]byte, error) {
	if l.source == nil {
		return nil, fmt.Errorf("reading sectors %d+%d: no disc loaded", start, count)
	}
	data, err := l.source.ReadSectors(start, count)
	if err != nil {
		return nil, fmt.Errorf("reading sectors %d+%d: %w", start, count, err)
	}
	return data, nil
}

// addressAt returns base advanced by index records of the given size.
func addressAt(base psx.Address, index int, size uint32) (psx.Address, error) {
	return base.Add(uint32(index) * size)
}
