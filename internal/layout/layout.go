// Package layout holds the memory and disc layout of the supported title: the
// addresses of its static tables, its speakers and the animations that need
// special handling. Nothing in the decoding packages embeds these constants.
package layout

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/czajowaty/ad-resources-dumper/internal/psx"
	"github.com/retroenv/retrogolib/set"
)

// Speaker is a character that can show a portrait in dialogs.
type Speaker struct {
	Name     string
	ID       uint8
	Variants int // upper bound of portrait variants to walk
}

// Layout is the injected title configuration.
type Layout struct {
	// executable section holding the static tables
	ExecutableSector  uint32
	ExecutableSize    uint32
	ExecutableAddress psx.Address

	GameModeTable        psx.Address // GameModeData entries, indexed by game mode
	GameModeSectorsTable psx.Address // default sector counts, indexed by game mode
	TownResources        psx.Address // MemoryLoadInfo of the town video memory resources

	PortraitSpeakers      psx.Address // speaker id bytes of speakers with portraits
	PortraitSpeakersCount int
	PortraitTable         psx.Address // PortraitData table pointers, indexed like PortraitSpeakers
	PortraitRects         psx.Address // video memory destinations of portrait textures
	PortraitResources     int         // maximum textures per portrait

	// HalvedOffsets maps animation addresses whose fragment offsets are stored
	// at reduced resolution to the factor restoring them.
	HalvedOffsets map[psx.Address]int

	Speakers []Speaker
}

// Default returns the layout of the supported title.
func Default() *Layout {
	return &Layout{
		ExecutableSector:  25,
		ExecutableSize:    0x54800,
		ExecutableAddress: 0x8002d000,

		GameModeTable:        0x8006ce44,
		GameModeSectorsTable: 0x8006ce6c,
		TownResources:        0x80080ea0,

		PortraitSpeakers:      0x8006b1ec,
		PortraitSpeakersCount: 18,
		PortraitTable:         0x8006b1a8,
		PortraitRects:         0x8006b220,
		PortraitResources:     3,

		HalvedOffsets: map[psx.Address]int{
			0x80077784: 2,
			0x800776fc: 2,
		},

		Speakers: []Speaker{
			{Name: "Aunt", ID: 0x2d, Variants: 2},
			{Name: "Cherrl", ID: 0x0d, Variants: 9},
			{Name: "Fur", ID: 0x09, Variants: 6},
			{Name: "Ghosh", ID: 0x06, Variants: 3},
			{Name: "Grandpa", ID: 0x2f, Variants: 1},
			{Name: "Guy", ID: 0x03, Variants: 3},
			{Name: "Jorda", ID: 0x16, Variants: 1},
			{Name: "Kewne", ID: 0x02, Variants: 13},
			{Name: "Miya", ID: 0x0a, Variants: 7},
			{Name: "Nico", ID: 0x0b, Variants: 8},
			{Name: "Patty", ID: 0x08, Variants: 5},
			{Name: "Selfi", ID: 0x07, Variants: 6},
			{Name: "Vivian", ID: 0x0c, Variants: 6},
			{Name: "Weedy", ID: 0x05, Variants: 2},
			{Name: "Wreath", ID: 0x04, Variants: 4},
		},
	}
}

// Speaker returns the catalogue entry of a speaker id.
func (l *Layout) Speaker(id uint8) (Speaker, bool) {
	for _, speaker := range l.Speakers {
		if speaker.ID == id {
			return speaker, true
		}
	}
	return Speaker{}, false
}

// SpeakerByName returns the catalogue entry of a speaker, ignoring case.
func (l *Layout) SpeakerByName(name string) (Speaker, bool) {
	for _, speaker := range l.Speakers {
		if strings.EqualFold(speaker.Name, name) {
			return speaker, true
		}
	}
	return Speaker{}, false
}

// OffsetScale returns the factor fragment offsets of an animation are scaled by.
func (l *Layout) OffsetScale(animation psx.Address) int {
	if scale, ok := l.HalvedOffsets[animation.KSEG0()]; ok {
		return scale
	}
	return 1
}

// Clone returns a deep copy of the layout.
func (l *Layout) Clone() *Layout {
	c := *l
	c.Speakers = slices.Clone(l.Speakers)
	c.HalvedOffsets = make(map[psx.Address]int, len(l.HalvedOffsets))
	for address, scale := range l.HalvedOffsets {
		c.HalvedOffsets[address] = scale
	}
	return &c
}

// Validate checks the consistency of the layout.
func (l *Layout) Validate() error {
	var errs []error
	if l.ExecutableSize == 0 {
		errs = append(errs, errors.New("executable size is zero"))
	}
	if l.ExecutableAddress.IsNull() || !l.ExecutableAddress.IsInRAM(l.ExecutableSize) {
		errs = append(errs, fmt.Errorf("executable address %s can not hold 0x%x bytes",
			l.ExecutableAddress, l.ExecutableSize))
	}
	if l.PortraitResources <= 0 {
		errs = append(errs, fmt.Errorf("invalid portrait resources count %d", l.PortraitResources))
	}
	if l.PortraitSpeakersCount < 0 {
		errs = append(errs, fmt.Errorf("invalid portrait speakers count %d", l.PortraitSpeakersCount))
	}
	for address, scale := range l.HalvedOffsets {
		if scale <= 0 {
			errs = append(errs, fmt.Errorf("invalid offset scale %d for animation %s", scale, address))
		}
	}

	ids := set.New[uint8]()
	names := set.New[string]()
	for _, speaker := range l.Speakers {
		name := strings.ToLower(speaker.Name)
		switch {
		case speaker.Name == "":
			errs = append(errs, fmt.Errorf("speaker 0x%02x has no name", speaker.ID))
		case names.Contains(name):
			errs = append(errs, fmt.Errorf("duplicate speaker name '%s'", speaker.Name))
		case ids.Contains(speaker.ID):
			errs = append(errs, fmt.Errorf("duplicate speaker id 0x%02x", speaker.ID))
		case speaker.Variants <= 0:
			errs = append(errs, fmt.Errorf("speaker '%s' has no variants", speaker.Name))
		}
		ids.Add(speaker.ID)
		names.Add(name)
	}
	return errors.Join(errs...)
}
