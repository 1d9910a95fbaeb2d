// Package loadertest builds a synthetic disc image with executable tables,
// town resources and portraits for tests of the loading stages.
package loadertest

import (
	"encoding/binary"
	"image/color"

	"github.com/czajowaty/ad-resources-dumper/internal/disc"
	"github.com/czajowaty/ad-resources-dumper/internal/gamedata"
	"github.com/czajowaty/ad-resources-dumper/internal/layout"
	"github.com/czajowaty/ad-resources-dumper/internal/psx"
	"github.com/czajowaty/ad-resources-dumper/internal/resource"
)

// Placement of the synthetic executable and the resource sectors.
const (
	ExeAddress psx.Address = 0x80010000
	ExeSize                = 0x1000

	TownSector     = 10
	ModeSector     = 12
	PortraitSector = 14
	TooManySector  = 16
)

// Red is color 1 of the town palette.
var Red = color.NRGBA{R: 0xff, A: 0xff}

// Pack encodes data as a literal only compressed block.
func Pack(data []byte) []byte {
	var out []byte
	controlPos, used := 0, 8
	bit := func(b byte) {
		if used == 8 {
			controlPos = len(out)
			out = append(out, 0)
			used = 0
		}
		out[controlPos] |= b << used
		used++
	}
	for _, b := range data {
		bit(0)
		out = append(out, b)
	}
	bit(1)
	bit(0)
	return append(out, 0, 0)
}

// ChainBuilder assembles a resource chain from headers and payloads.
type ChainBuilder struct {
	headers  [][]byte
	payloads [][]byte
}

// Add appends a record with the given header words following the common header.
func (c *ChainBuilder) Add(typ resource.Type, payload []byte, extra ...uint16) *ChainBuilder {
	h := binary.LittleEndian.AppendUint16(nil, uint16(typ))
	h = binary.LittleEndian.AppendUint16(h, uint16(resource.HeaderSize+2*len(extra)))
	h = binary.LittleEndian.AppendUint32(h, 0)
	for _, w := range extra {
		h = binary.LittleEndian.AppendUint16(h, w)
	}
	c.headers = append(c.headers, h)
	c.payloads = append(c.payloads, payload)
	return c
}

// Build returns the chain with header offsets filled in and a terminator.
func (c *ChainBuilder) Build() []byte {
	size := resource.HeaderSize
	for _, h := range c.headers {
		size += len(h)
	}
	var data []byte
	offset := size
	for i, h := range c.headers {
		binary.LittleEndian.PutUint32(h[4:], uint32(offset))
		data = append(data, h...)
		offset += len(c.payloads[i])
	}
	terminator := make([]byte, resource.HeaderSize)
	binary.LittleEndian.PutUint32(terminator[4:], uint32(offset))
	data = append(data, terminator...)
	for _, p := range c.payloads {
		data = append(data, p...)
	}
	return data
}

// executable is the synthetic static table section.
type executable []byte

func (e executable) u8(address psx.Address, v uint8) {
	e[address-ExeAddress] = v
}

func (e executable) u16(address psx.Address, v uint16) {
	binary.LittleEndian.PutUint16(e[address-ExeAddress:], v)
}

func (e executable) u32(address psx.Address, v uint32) {
	binary.LittleEndian.PutUint32(e[address-ExeAddress:], v)
}

func (e executable) loadInfo(address psx.Address, load uint32, sectors, sector uint32) {
	e.u32(address, load&0x7fffff|sectors<<23)
	e.u32(address+4, sector)
}

func (e executable) rect(address psx.Address, x, y, w, h uint16) {
	e.u16(address, x)
	e.u16(address+2, y)
	e.u16(address+4, w)
	e.u16(address+6, h)
}

func (e executable) graphic(address psx.Address, flags gamedata.GraphicFlags, x, y int8, w, h uint8) {
	texpage := uint16(1)     // page x 1, 4bpp
	clut := uint16(448 << 6) // (0, 448)
	e.u8(address, uint8(flags))
	e.u8(address+2, uint8(x))
	e.u8(address+3, uint8(y))
	e.u16(address+4, texpage)
	e.u16(address+6, clut)
	e.u8(address+10, w)
	e.u8(address+11, h)
}

// Layout returns the layout matching the tables of Disc. Kewne has portraits,
// Weedy has a null portrait table and Koh is missing from the portrait speakers.
func Layout() *layout.Layout {
	return &layout.Layout{
		ExecutableSector:      1,
		ExecutableSize:        ExeSize,
		ExecutableAddress:     ExeAddress,
		GameModeTable:         0x80010100,
		GameModeSectorsTable:  0x80010140,
		TownResources:         0x80010180,
		PortraitSpeakers:      0x80010200,
		PortraitSpeakersCount: 4,
		PortraitTable:         0x80010210,
		PortraitRects:         0x80010280,
		PortraitResources:     3,
		HalvedOffsets:         map[psx.Address]int{0x80010600: 2},
		Speakers: []layout.Speaker{
			{Name: "Kewne", ID: 0x02, Variants: 5},
			{Name: "Weedy", ID: 0x05, Variants: 2},
			{Name: "Koh", ID: 0x01, Variants: 1},
		},
	}
}

// Disc returns the synthetic disc. Kewne has four variants: two loadable ones
// sharing a two fragment graphics series (the second with halved offsets), one
// pointing at the town chain and one with too many textures.
//
//nolint:funlen // builds the whole synthetic disc
func Disc() *disc.MemorySource {
	exe := executable(make([]byte, ExeSize))

	// game modes: town loads one sector, tower has no resources, title has a null load address
	exe.u32(0x80010108, 0)
	exe.u32(0x8001010c, 0x80010190)
	exe.u32(0x80010110, 0)
	exe.u32(0x80010114, 0)
	exe.u32(0x8001011c, 0x80010198)
	exe.u32(0x80010144, 0x3)
	exe.loadInfo(0x80010190, 0x012000, 1, ModeSector)

	exe.loadInfo(0x80010180, 0, 1, TownSector)

	// Weedy has no portrait table, Kewne has two variants
	exe.u8(0x80010200, 0x05)
	exe.u8(0x80010201, 0x02)
	exe.u8(0x80010202, 0xff)
	exe.u8(0x80010203, 0xff)
	exe.u32(0x80010214, 0x80010300)
	exe.rect(0x80010280, 64, 0, 1, 2)
	exe.rect(0x80010288, 65, 0, 1, 2)
	exe.rect(0x80010290, 66, 0, 1, 2)

	exe.u32(0x80010300, 0x80010400)
	exe.u32(0x80010304, 0x80010500)
	exe.u32(0x80010308, 0x80010408)
	exe.u32(0x8001030c, 0x80010600)
	exe.u32(0x80010310, 0x80010410)
	exe.u32(0x80010314, 0x80010500)
	exe.u32(0x80010318, 0x80010418)
	exe.u32(0x8001031c, 0x80010500)
	exe.loadInfo(0x80010400, 0, 1, PortraitSector)
	exe.loadInfo(0x80010408, 0, 1, PortraitSector)
	exe.loadInfo(0x80010410, 0, 1, TownSector)
	exe.loadInfo(0x80010418, 0, 1, TooManySector)

	// two frames sharing one graphics series, the halved variant has one frame
	for i, frameType := range []gamedata.FrameType{gamedata.NotLastFrame, gamedata.NotLastFrame, gamedata.LastFrame} {
		address := psx.Address(0x80010500 + i*gamedata.AnimationSize)
		exe.u8(address, 5)
		exe.u16(address+2, uint16(frameType))
		exe.u32(address+4, 0x80010700)
	}
	exe.u16(0x80010602, uint16(gamedata.NotLastFrame))
	exe.u32(0x80010604, 0x80010700)
	exe.u16(0x8001060a, uint16(gamedata.NoAnimation))

	exe.graphic(0x80010700, gamedata.PartOfSeries, 0, 0, 4, 2)
	exe.graphic(0x8001070c, gamedata.PartOfSeries|gamedata.SeriesEnd, 4, 0, 4, 2)

	palette := make([]byte, resource.PaletteBytes)
	palette[2] = 0x1f // index 1 is red
	town := (&ChainBuilder{}).
		Add(resource.VRAMLoadablePackedImage, Pack([]byte{0x1f, 0x00, 0x00, 0x7c}), 0, 0, 2, 1).
		Add(resource.Palette, palette, 0, 1, 0).
		Add(resource.Palette, make([]byte, resource.PaletteBytes), 1, 1, 1).
		Build()

	texture := Pack([]byte{0x10, 0x00, 0x01, 0x00})
	portrait := (&ChainBuilder{}).Add(resource.PackedImage, texture, 0, 0).Build()
	tooMany := (&ChainBuilder{}).
		Add(resource.PackedImage, texture, 0, 0).
		Add(resource.PackedImage, texture, 0, 0).
		Add(resource.PackedImage, texture, 0, 0).
		Add(resource.PackedImage, texture, 0, 0).
		Build()

	source := disc.NewMemorySource(nil)
	source.Put(1, exe)
	source.Put(TownSector, town)
	source.Put(ModeSector, []byte("mode resources"))
	source.Put(PortraitSector, portrait)
	source.Put(TooManySector, tooMany)
	return source
}
