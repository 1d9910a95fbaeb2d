// Package gamedata decodes the fixed size records of the title's static tables
// as they are laid out in the emulated memory.
package gamedata

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
	"github.com/czajowaty/ad-resources-dumper/internal/psx"
)

// Record sizes in bytes.
const (
	MemoryLoadInfoSize = 8
	GameModeDataSize   = 8
	PortraitDataSize   = 8
	AnimationSize      = 8
	GraphicSize        = 12
	RectSize           = 8
)

// Memory is the view of the emulated memory the record readers need.
type Memory interface {
	Read(address psx.Address, size uint32) ([]byte, error)
}

// MemoryLoadInfo tells where a resource is stored on disc and where it is loaded to.
type MemoryLoadInfo struct {
	Address psx.Address // 23 bit load address, without segment
	Sectors uint32      // 9 bit sector count
	Sector  uint32
}

const (
	loadInfoAddressMask  = 0x007fffff
	loadInfoSectorsShift = 23
)

// DecodeMemoryLoadInfo decodes a MemoryLoadInfo record.
func DecodeMemoryLoadInfo(data []byte) (MemoryLoadInfo, error) {
	if err := checkSize("memory load info", data, MemoryLoadInfoSize); err != nil {
		return MemoryLoadInfo{}, err
	}
	packed := binary.LittleEndian.Uint32(data)
	return MemoryLoadInfo{
		Address: psx.Address(packed & loadInfoAddressMask),
		Sectors: packed >> loadInfoSectorsShift,
		Sector:  binary.LittleEndian.Uint32(data[4:]),
	}, nil
}

// ReadMemoryLoadInfo reads a MemoryLoadInfo record from memory.
func ReadMemoryLoadInfo(mem Memory, address psx.Address) (MemoryLoadInfo, error) {
	data, err := mem.Read(address, MemoryLoadInfoSize)
	if err != nil {
		return MemoryLoadInfo{}, fmt.Errorf("reading memory load info at %s: %w", address, err)
	}
	return DecodeMemoryLoadInfo(data)
}

// GameMode selects the resource set the title loads.
type GameMode uint16

// game modes, the value is the index into the game mode table.
const (
	NoGameMode GameMode = iota
	Town
	Tower
	TitleScreen
)

var gameModeNames = map[GameMode]string{
	NoGameMode:  "none",
	Town:        "town",
	Tower:       "tower",
	TitleScreen: "title",
}

func (m GameMode) String() string {
	if name, ok := gameModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", uint16(m))
}

// ParseGameMode returns the game mode of the given name.
func ParseGameMode(name string) (GameMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for mode, modeName := range gameModeNames {
		if modeName == name {
			return mode, nil
		}
	}
	return NoGameMode, fmt.Errorf("unsupported game mode '%s'", name)
}

// GameModeData is an entry of the game mode table.
type GameModeData struct {
	LoopFunction   psx.Address
	MemoryLoadInfo psx.Address
}

// ReadGameModeData reads a GameModeData record from memory.
func ReadGameModeData(mem Memory, address psx.Address) (GameModeData, error) {
	data, err := mem.Read(address, GameModeDataSize)
	if err != nil {
		return GameModeData{}, fmt.Errorf("reading game mode data at %s: %w", address, err)
	}
	return GameModeData{
		LoopFunction:   psx.Address(binary.LittleEndian.Uint32(data)),
		MemoryLoadInfo: psx.Address(binary.LittleEndian.Uint32(data[4:])),
	}, nil
}

// PortraitData describes one portrait variant of a speaker.
type PortraitData struct {
	LoadInfo  psx.Address // MemoryLoadInfo of the portrait textures
	Animation psx.Address // first Animation record
}

// ReadPortraitData reads a PortraitData record from memory.
func ReadPortraitData(mem Memory, address psx.Address) (PortraitData, error) {
	data, err := mem.Read(address, PortraitDataSize)
	if err != nil {
		return PortraitData{}, fmt.Errorf("reading portrait data at %s: %w", address, err)
	}
	return PortraitData{
		LoadInfo:  psx.Address(binary.LittleEndian.Uint32(data)),
		Animation: psx.Address(binary.LittleEndian.Uint32(data[4:])),
	}, nil
}

func checkSize(what string, data []byte, size int) error {
	if len(data) < size {
		return fault.New(fault.MalformedDescriptor, "decode "+what).
			WithDetail("needs %d bytes, %d available", size, len(data))
	}
	return nil
}
