package loader

import (
	"fmt"
	"image"

	"github.com/czajowaty/ad-resources-dumper/internal/compose"
	"github.com/czajowaty/ad-resources-dumper/internal/fault"
	"github.com/czajowaty/ad-resources-dumper/internal/gamedata"
	"github.com/czajowaty/ad-resources-dumper/internal/layout"
	"github.com/czajowaty/ad-resources-dumper/internal/psx"
	"github.com/czajowaty/ad-resources-dumper/internal/resource"
	"github.com/czajowaty/ad-resources-dumper/internal/unpack"
	"github.com/retroenv/retrogolib/log"
)

// Variant is one portrait variant of a speaker.
type Variant struct {
	Index   int
	Address psx.Address // of the PortraitData record
	Data    gamedata.PortraitData
}

// Frame is one decoded animation frame.
type Frame struct {
	Address   psx.Address // of the Animation record
	Animation gamedata.Animation
	Fragments []compose.Fragment
}

// Portrait is a loaded portrait variant with its decoded animation.
type Portrait struct {
	Variant     Variant
	LoadInfo    gamedata.MemoryLoadInfo
	Textures    []image.Rectangle // video memory rects the textures were loaded to
	Frames      []Frame
	OffsetScale int
}

// Image composes a frame of the portrait.
func (p *Portrait) Image(frame int) *image.NRGBA {
	return compose.Combine(p.Frames[frame].Fragments, p.OffsetScale)
}

// PortraitIndex returns the index of a speaker in the table of speakers with
// portraits. It reports false if the speaker has no portraits.
func (l *Loader) PortraitIndex(speakerID uint8) (int, bool, error) {
	for index := range l.layout.PortraitSpeakersCount {
		address, err := addressAt(l.layout.PortraitSpeakers, index, 1)
		if err != nil {
			return 0, false, err
		}
		id, err := l.ram.Byte(address)
		if err != nil {
			return 0, false, fmt.Errorf("reading portrait speaker %d: %w", index, err)
		}
		if id == speakerID {
			return index, true, nil
		}
	}
	return 0, false, nil
}

// PortraitVariants returns the portrait variants of a speaker. Speakers that are
// not in the catalogue or have no portraits yield no variants.
func (l *Loader) PortraitVariants(speakerID uint8) ([]Variant, error) {
	speaker, ok := l.layout.Speaker(speakerID)
	if !ok {
		return nil, nil
	}
	index, ok, err := l.PortraitIndex(speakerID)
	if err != nil || !ok {
		return nil, err
	}

	pointerAddress, err := addressAt(l.layout.PortraitTable, index, 4)
	if err != nil {
		return nil, err
	}
	table, err := l.ram.Address(pointerAddress)
	if err != nil {
		return nil, fmt.Errorf("reading portrait table of %s: %w", speaker.Name, err)
	}
	if table.IsNull() {
		return nil, nil
	}

	return l.readVariants(speaker, table)
}

// readVariants walks the PortraitData records up to the first one without a
// load info, bounded by the variant count of the speaker.
func (l *Loader) readVariants(speaker layout.Speaker, table psx.Address) ([]Variant, error) {
	variants := make([]Variant, 0, speaker.Variants)
	for index := range speaker.Variants {
		address, err := addressAt(table, index, gamedata.PortraitDataSize)
		if err != nil {
			return nil, err
		}
		data, err := gamedata.ReadPortraitData(l.ram, address)
		if err != nil {
			return nil, fmt.Errorf("%s variant %d: %w", speaker.Name, index, err)
		}
		if data.LoadInfo.IsNull() {
			break
		}
		variants = append(variants, Variant{
			Index:   index,
			Address: address,
			Data:    data,
		})
	}
	return variants, nil
}

// LoadPortrait loads the textures of a portrait variant into VRAM and decodes
// its animation.
func (l *Loader) LoadPortrait(variant Variant) (*Portrait, error) {
	info, err := gamedata.ReadMemoryLoadInfo(l.ram, variant.Data.LoadInfo)
	if err != nil {
		return nil, err
	}
	textures, err := l.loadPortraitTextures(info)
	if err != nil {
		return nil, fmt.Errorf("loading portrait textures: %w", err)
	}

	frames, err := l.ReadAnimation(variant.Data.Animation)
	if err != nil {
		return nil, err
	}

	scale := l.layout.OffsetScale(variant.Data.Animation)
	l.logger.Debug("Loaded portrait",
		log.Stringer("variant", variant.Address),
		log.Int("frames", len(frames)),
		log.Int("scale", scale))

	return &Portrait{
		Variant:     variant,
		LoadInfo:    info,
		Textures:    textures,
		Frames:      frames,
		OffsetScale: scale,
	}, nil
}

// loadPortraitTextures loads the packed images of a portrait chain into the
// fixed destination rects of the portrait textures.
func (l *Loader) loadPortraitTextures(info gamedata.MemoryLoadInfo) ([]image.Rectangle, error) {
	data, err := l.readSectors(info.Sector, info.Sectors)
	if err != nil {
		return nil, err
	}

	var rects []image.Rectangle
	chain := resource.NewChain(data)
	for index := 0; chain.HasNext(); index++ {
		if index >= l.layout.PortraitResources {
			return nil, fault.New(fault.MalformedDescriptor, "load portrait").
				WithIndex(index).
				WithDetail("more than %d textures", l.layout.PortraitResources)
		}

		rectAddress, err := addressAt(l.layout.PortraitRects, index, gamedata.RectSize)
		if err != nil {
			return nil, err
		}
		rect, err := gamedata.ReadRect(l.ram, rectAddress)
		if err != nil {
			return nil, err
		}

		record, err := chain.Next()
		if err != nil {
			return nil, err
		}
		if record.Header.Type != resource.PackedImage {
			return nil, unexpectedRecord("portrait resource", record)
		}
		texture, err := unpack.Decode(record.Payload, unpack.CapacityFor(len(record.Payload)))
		if err != nil {
			return nil, fmt.Errorf("portrait resource %d: %w", index, err)
		}
		if err := l.vram.Load(texture, rect); err != nil {
			return nil, fmt.Errorf("portrait resource %d: %w", index, err)
		}
		rects = append(rects, rect)
	}
	return rects, nil
}

// ReadAnimation decodes the frames of an animation. Records are read while they
// are marked as not being the last frame, the terminating record is not a frame.
func (l *Loader) ReadAnimation(address psx.Address) ([]Frame, error) {
	var frames []Frame
	series := map[psx.Address][]compose.Fragment{}
	for {
		animation, err := gamedata.ReadAnimation(l.ram, address)
		if err != nil {
			return nil, fmt.Errorf("animation frame %d: %w", len(frames), err)
		}
		if animation.FrameType != gamedata.NotLastFrame {
			return frames, nil
		}

		fragments, ok := series[animation.Graphic]
		if !ok {
			fragments, err = l.ReadGraphicsSeries(animation.Graphic)
			if err != nil {
				return nil, fmt.Errorf("animation frame %d: %w", len(frames), err)
			}
			series[animation.Graphic] = fragments
		}
		frames = append(frames, Frame{
			Address:   address,
			Animation: animation,
			Fragments: fragments,
		})

		address, err = address.Add(gamedata.AnimationSize)
		if err != nil {
			return nil, err
		}
	}
}

// ReadGraphicsSeries decodes the fragments of a graphics series, up to and
// including the record flagged as the series end.
func (l *Loader) ReadGraphicsSeries(address psx.Address) ([]compose.Fragment, error) {
	var fragments []compose.Fragment
	for {
		g, err := gamedata.ReadGraphic(l.ram, address)
		if err != nil {
			return nil, err
		}
		img, err := l.ReadGraphic(g)
		if err != nil {
			return nil, fmt.Errorf("graphic at %s: %w", address, err)
		}
		fragments = append(fragments, compose.Fragment{
			Address: address,
			Graphic: g,
			Image:   img,
		})
		if g.Flags.Has(gamedata.SeriesEnd) {
			return fragments, nil
		}

		address, err = address.Add(gamedata.GraphicSize)
		if err != nil {
			return nil, err
		}
	}
}

// ReadGraphic decodes the pixels of a fragment and mirrors them according to
// its flags.
func (l *Loader) ReadGraphic(g gamedata.Graphic) (image.Image, error) {
	img, err := l.vram.ReadTexture(g.Texture())
	if err != nil {
		return nil, err
	}
	return compose.MirrorGraphic(img, g), nil
}

func malformed(op string, address psx.Address, detail string) error {
	return fault.New(fault.MalformedDescriptor, op).
		WithAddress(uint32(address), 0).
		WithDetail("%s", detail)
}

func malformedRecord(record resource.Record, format string, args ...any) error {
	return fault.New(fault.MalformedDescriptor, "resource record").
		WithIndex(record.Index).
		WithOffset(record.Offset).
		WithDetail(format, args...)
}

func unexpectedRecord(what string, record resource.Record) error {
	return fault.New(fault.UnexpectedRecordType, "read "+what).
		WithIndex(record.Index).
		WithOffset(record.Offset).
		WithDetail("unexpected type %s", record.Header.Type)
}
