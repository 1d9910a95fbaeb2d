package fileprocessor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
	"github.com/czajowaty/ad-resources-dumper/internal/loader/loadertest"
	"github.com/czajowaty/ad-resources-dumper/internal/options"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// layoutScript points the title layout at the tables of the synthetic disc.
// The third Kewne variant points at the town resources instead of portrait textures.
const layoutScript = `
layout = {
  executable_sector = 1,
  executable_size = 0x1000,
  executable_address = 0x80010000,
  game_mode_table = 0x80010100,
  game_mode_sectors = 0x80010140,
  town_resources = 0x80010180,
  portrait_speakers = 0x80010200,
  portrait_speakers_count = 4,
  portrait_table = 0x80010210,
  portrait_rects = 0x80010280,
  speakers = { { name = "Kewne", id = 0x02, variants = %d } },
}
`

func writeDisc(t *testing.T, dir string) string {
	t.Helper()
	source := loadertest.Disc()
	data, err := source.ReadSectors(0, source.Sectors())
	assert.NoError(t, err)
	path := filepath.Join(dir, "disc.iso")
	assert.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writeLayout(t *testing.T, dir string, variants int) string {
	t.Helper()
	path := filepath.Join(dir, "layout.lua")
	script := []byte(fmt.Sprintf(layoutScript, variants))
	assert.NoError(t, os.WriteFile(path, script, 0o600))
	return path
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	opts := options.Program{
		Parameters: options.Parameters{
			Input:  writeDisc(t, dir),
			Output: filepath.Join(dir, "out"),
		},
		OutputFlags: options.OutputFlags{Format: "png", Scale: 1},
	}

	t.Run("success", func(t *testing.T) {
		opts.Layout = writeLayout(t, t.TempDir(), 2)
		assert.NoError(t, ProcessFile(context.Background(), log.NewTestLogger(t), opts))

		_, err := os.Stat(filepath.Join(opts.Output, "Kewne_variant1_frame0.png"))
		assert.NoError(t, err)
	})

	t.Run("speaker failure", func(t *testing.T) {
		opts.Layout = writeLayout(t, t.TempDir(), 3)
		err := ProcessFile(context.Background(), log.NewNop(), opts)
		assert.ErrorContains(t, err, "exporting 1 of 1 speakers failed (unexpected record type: 1)")
	})
}

func TestFormatKinds(t *testing.T) {
	assert.Equal(t, "", formatKinds(nil))
	kinds := map[fault.Kind]int{fault.MalformedDescriptor: 2, fault.OutOfBounds: 1}
	assert.Equal(t, " (out of bounds: 1, malformed descriptor: 2)", formatKinds(kinds))
}

func TestGetFilesToProcess(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.bin", "b.bin", "c.iso"} {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files, err := GetFilesToProcess(&options.Program{Parameters: options.Parameters{Batch: filepath.Join(dir, "*.bin")}})
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.bin"), filepath.Join(dir, "b.bin")}, files)

	_, err = GetFilesToProcess(&options.Program{Parameters: options.Parameters{Batch: filepath.Join(dir, "*.cue")}})
	assert.ErrorContains(t, err, "no files match")

	files, err = GetFilesToProcess(&options.Program{Parameters: options.Parameters{Input: "disc.bin"}})
	assert.NoError(t, err)
	assert.Equal(t, []string{"disc.bin"}, files)
}

func TestGenerateOutputDirectory(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "Azure Dreams"), GenerateOutputDirectory("out", "/images/Azure Dreams.bin"))
	assert.Equal(t, "disc", GenerateOutputDirectory("", "disc.iso"))
}

func TestPrintBanner(t *testing.T) {
	logger := log.NewTestLogger(t)
	PrintBanner(logger, options.Program{}, "1.0.0", "0123456789abcdef", "2026-10-19")
	PrintBanner(logger, options.Program{Flags: options.Flags{Quiet: true}}, "dev", "", "")
}
