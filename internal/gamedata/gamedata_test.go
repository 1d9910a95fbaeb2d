package gamedata

import (
	"image"
	"testing"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
	"github.com/czajowaty/ad-resources-dumper/internal/psx"
	"github.com/czajowaty/ad-resources-dumper/internal/ram"
	"github.com/czajowaty/ad-resources-dumper/internal/vram"
	"github.com/retroenv/retrogolib/assert"
)

func TestDecodeMemoryLoadInfo(t *testing.T) {
	// address 0x0a1234, 0x15 sectors, sector 0x1c2
	data := []byte{0x34, 0x12, 0x8a, 0x0a, 0xc2, 0x01, 0x00, 0x00}

	info, err := DecodeMemoryLoadInfo(data)
	assert.NoError(t, err)
	assert.Equal(t, psx.Address(0x0a1234), info.Address)
	assert.Equal(t, uint32(0x15), info.Sectors)
	assert.Equal(t, uint32(0x1c2), info.Sector)

	_, err = DecodeMemoryLoadInfo(data[:7])
	assert.ErrorIs(t, err, fault.ErrMalformedDescriptor)
}

func TestReadRecordsFromMemory(t *testing.T) {
	mem := ram.New()
	assert.NoError(t, mem.StoreAddress(0x80030000, 0x80010000))
	assert.NoError(t, mem.StoreAddress(0x80040000, 0x80010004))

	modeData, err := ReadGameModeData(mem, 0x80010000)
	assert.NoError(t, err)
	assert.Equal(t, psx.Address(0x80030000), modeData.LoopFunction)
	assert.Equal(t, psx.Address(0x80040000), modeData.MemoryLoadInfo)

	portrait, err := ReadPortraitData(mem, 0x80010000)
	assert.NoError(t, err)
	assert.Equal(t, psx.Address(0x80030000), portrait.LoadInfo)
	assert.Equal(t, psx.Address(0x80040000), portrait.Animation)

	_, err = ReadPortraitData(mem, 0x80010004)
	assert.ErrorIs(t, err, fault.ErrUninitializedRead)
	assert.ErrorContains(t, err, "portrait data at 0x80010004")
}

func TestDecodeAnimation(t *testing.T) {
	anim, err := DecodeAnimation([]byte{0x0c, 0x00, 0x02, 0x00, 0x00, 0x10, 0x07, 0x80})
	assert.NoError(t, err)
	assert.Equal(t, uint8(12), anim.Duration)
	assert.Equal(t, NotLastFrame, anim.FrameType)
	assert.Equal(t, psx.Address(0x80071000), anim.Graphic)
	assert.Equal(t, "not last frame", anim.FrameType.String())
}

func TestDecodeTexpage(t *testing.T) {
	// x 5, y 1, semi transparency 2, 8bpp, dither, y flip
	value := uint16(5 | 1<<4 | 2<<5 | 1<<7 | 1<<9 | 1<<13)
	page := DecodeTexpage(value)
	assert.Equal(t, 5, page.X)
	assert.Equal(t, 1, page.Y)
	assert.Equal(t, uint8(2), page.SemiTransparency)
	assert.Equal(t, vram.Depth8, page.Depth)
	assert.True(t, page.Dither)
	assert.False(t, page.DrawToDisplay)
	assert.False(t, page.XFlip)
	assert.True(t, page.YFlip)
}

func TestDecodeClut(t *testing.T) {
	clut := DecodeClut(uint16(0x21 | 0x1f0<<6))
	assert.Equal(t, Clut{X: 0x21, Y: 0x1f0}, clut)
}

func TestDecodeGraphic(t *testing.T) {
	texpage := uint16(2)       // page x 2, 4bpp
	clut := uint16(1 | 480<<6) // (16, 480)
	data := []byte{
		byte(FlipHorizontally | SeriesEnd), 0,
		0xfd, 0x04, // x -3, y 4
		byte(texpage), byte(texpage >> 8),
		byte(clut), byte(clut >> 8),
		8, 16, 24, 32,
	}

	g, err := DecodeGraphic(data)
	assert.NoError(t, err)
	assert.True(t, g.Flags.Has(FlipHorizontally))
	assert.True(t, g.Flags.Has(SeriesEnd))
	assert.False(t, g.Flags.Has(FlipVertically))
	assert.False(t, g.Flags.Has(FlipHorizontally|FlipVertically))
	assert.Equal(t, int8(-3), g.XOffset)
	assert.Equal(t, int8(4), g.YOffset)

	tex := g.Texture()
	assert.Equal(t, vram.Depth4, tex.Depth)
	assert.Equal(t, image.Rect(130, 16, 136, 48), tex.Rect())
	assert.Equal(t, image.Pt(16, 480), tex.ClutPoint())
}

func TestParseGameMode(t *testing.T) {
	mode, err := ParseGameMode(" Tower ")
	assert.NoError(t, err)
	assert.Equal(t, Tower, mode)
	assert.Equal(t, "tower", mode.String())

	_, err = ParseGameMode("dungeon")
	assert.Error(t, err)
}

func TestReadRect(t *testing.T) {
	mem := ram.New()
	assert.NoError(t, mem.Load([]byte{0x40, 0x01, 0x00, 0x01, 0x10, 0x00, 0x20, 0x00}, 0x8006b220))

	rect, err := ReadRect(mem, 0x8006b220)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0x140, 0x100, 0x150, 0x120), rect)
}

func TestGraphicFlagsString(t *testing.T) {
	assert.Equal(t, "none", GraphicFlags(0).String())
	assert.Equal(t, "FlipHorizontally|SeriesEnd", (FlipHorizontally | SeriesEnd).String())
	assert.Equal(t, "PartOfSeries|0x24", (PartOfSeries | 0x24).String())
}
