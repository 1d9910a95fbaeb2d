package layout

import (
	"fmt"
	"math"

	"github.com/czajowaty/ad-resources-dumper/internal/psx"
	lua "github.com/yuin/gopher-lua"
)

// LuaTable is the global a layout script assigns its overrides to.
const LuaTable = "layout"

// LoadLua runs a layout script file and applies the fields of its global
// layout table on top of a copy of base.
//
//	layout = {
//	  game_mode_table = 0x8006ce44,
//	  halved_offsets = { [0x80077784] = 2 },
//	  speakers = { { name = "Kewne", id = 0x02, variants = 13 } },
//	}
func LoadLua(path string, base *Layout) (*Layout, error) {
	return runLua(base, func(state *lua.LState) error {
		return state.DoFile(path)
	})
}

// LoadLuaString is LoadLua for a script held in memory.
func LoadLuaString(script string, base *Layout) (*Layout, error) {
	return runLua(base, func(state *lua.LState) error {
		return state.DoString(script)
	})
}

func runLua(base *Layout, run func(*lua.LState) error) (*Layout, error) {
	state := lua.NewState()
	defer state.Close()

	if err := run(state); err != nil {
		return nil, fmt.Errorf("running layout script: %w", err)
	}
	table, ok := state.GetGlobal(LuaTable).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("layout script does not define a '%s' table", LuaTable)
	}

	l := base.Clone()
	if err := l.applyLua(table); err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return l, nil
}

func (l *Layout) applyLua(table *lua.LTable) error {
	addresses := map[string]*psx.Address{
		"executable_address": &l.ExecutableAddress,
		"game_mode_table":    &l.GameModeTable,
		"game_mode_sectors":  &l.GameModeSectorsTable,
		"town_resources":     &l.TownResources,
		"portrait_speakers":  &l.PortraitSpeakers,
		"portrait_table":     &l.PortraitTable,
		"portrait_rects":     &l.PortraitRects,
	}
	for key, field := range addresses {
		value, ok, err := luaUint32(table, key)
		if err != nil {
			return err
		}
		if ok {
			*field = psx.Address(value)
		}
	}

	numbers := map[string]*uint32{
		"executable_sector": &l.ExecutableSector,
		"executable_size":   &l.ExecutableSize,
	}
	for key, field := range numbers {
		value, ok, err := luaUint32(table, key)
		if err != nil {
			return err
		}
		if ok {
			*field = value
		}
	}

	counts := map[string]*int{
		"portrait_speakers_count": &l.PortraitSpeakersCount,
		"portrait_resources":      &l.PortraitResources,
	}
	for key, field := range counts {
		value, ok, err := luaUint32(table, key)
		if err != nil {
			return err
		}
		if ok {
			*field = int(value)
		}
	}

	if err := l.applyLuaHalvedOffsets(table); err != nil {
		return err
	}
	return l.applyLuaSpeakers(table)
}

// applyLuaHalvedOffsets replaces the halved offset rules, a scale of 1 removes a rule.
func (l *Layout) applyLuaHalvedOffsets(table *lua.LTable) error {
	value := table.RawGetString("halved_offsets")
	if value == lua.LNil {
		return nil
	}
	rules, ok := value.(*lua.LTable)
	if !ok {
		return fmt.Errorf("layout field 'halved_offsets' must be a table, got %s", value.Type())
	}

	var err error
	rules.ForEach(func(key, scale lua.LValue) {
		if err != nil {
			return
		}
		address, keyErr := toUint32("halved_offsets key", key)
		if keyErr != nil {
			err = keyErr
			return
		}
		factor, scaleErr := toUint32(fmt.Sprintf("halved_offsets[0x%08x]", address), scale)
		if scaleErr != nil {
			err = scaleErr
			return
		}
		animation := psx.Address(address).KSEG0()
		if factor == 1 {
			delete(l.HalvedOffsets, animation)
			return
		}
		l.HalvedOffsets[animation] = int(factor)
	})
	return err
}

// applyLuaSpeakers replaces the speaker catalogue.
func (l *Layout) applyLuaSpeakers(table *lua.LTable) error {
	value := table.RawGetString("speakers")
	if value == lua.LNil {
		return nil
	}
	entries, ok := value.(*lua.LTable)
	if !ok {
		return fmt.Errorf("layout field 'speakers' must be a table, got %s", value.Type())
	}

	speakers := make([]Speaker, 0, entries.Len())
	for i := 1; i <= entries.Len(); i++ {
		entry, ok := entries.RawGetInt(i).(*lua.LTable)
		if !ok {
			return fmt.Errorf("speaker entry %d must be a table", i)
		}
		name, ok := entry.RawGetString("name").(lua.LString)
		if !ok {
			return fmt.Errorf("speaker entry %d has no name", i)
		}
		id, found, err := luaUint32(entry, "id")
		if err != nil {
			return err
		}
		if !found || id > math.MaxUint8 {
			return fmt.Errorf("speaker '%s' needs an id between 0 and 255", name)
		}
		variants, found, err := luaUint32(entry, "variants")
		if err != nil {
			return err
		}
		if !found {
			variants = 1
		}
		speakers = append(speakers, Speaker{
			Name:     string(name),
			ID:       uint8(id),
			Variants: int(variants),
		})
	}
	l.Speakers = speakers
	return nil
}

func luaUint32(table *lua.LTable, key string) (uint32, bool, error) {
	value := table.RawGetString(key)
	if value == lua.LNil {
		return 0, false, nil
	}
	number, err := toUint32(key, value)
	return number, err == nil, err
}

func toUint32(name string, value lua.LValue) (uint32, error) {
	number, ok := value.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("layout field '%s' must be a number, got %s", name, value.Type())
	}
	f := float64(number)
	if f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0, fmt.Errorf("layout field '%s' value %v is not a 32 bit unsigned integer", name, f)
	}
	return uint32(f), nil
}
