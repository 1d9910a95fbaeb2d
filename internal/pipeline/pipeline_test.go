package pipeline

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/czajowaty/ad-resources-dumper/internal/disc"
	"github.com/czajowaty/ad-resources-dumper/internal/fault"
	"github.com/czajowaty/ad-resources-dumper/internal/layout"
	"github.com/czajowaty/ad-resources-dumper/internal/loader/loadertest"
	"github.com/czajowaty/ad-resources-dumper/internal/options"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

const testLayoutScript = `
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
  portrait_resources = 3,
  halved_offsets = { [0x80010600] = 2 },
  speakers = { { name = "Kewne", id = 0x02, variants = 2 } },
}
`

func testOptions(t *testing.T) options.Program {
	t.Helper()
	return options.Program{
		Parameters:  options.Parameters{Output: t.TempDir()},
		Flags:       options.Flags{Quiet: true},
		OutputFlags: options.OutputFlags{Format: "png", Scale: 1},
	}
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

func TestNew(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	assert.NotNil(t, p)
	assert.NotNil(t, p.logger)
	assert.NotNil(t, p.detector)
	assert.NotNil(t, p.stdout)
}

//nolint:funlen // test functions can be long
func TestExecuteWithSource(t *testing.T) {
	ctx := context.Background()

	t.Run("all speakers", func(t *testing.T) {
		// the broken Kewne variant is logged at error level
		p := New(log.NewNop())
		opts := testOptions(t)

		result, err := p.ExecuteWithSource(ctx, loadertest.Disc(), loadertest.Layout(), opts)
		assert.NoError(t, err)
		assert.Equal(t, 3, result.Speakers)
		assert.Equal(t, 2, result.Portraits)
		assert.Equal(t, 9, result.Files)

		// the third Kewne variant points at a chain without portrait textures
		assert.Len(t, result.Errors, 1)
		assert.ErrorIs(t, result.Err(), fault.ErrUnexpectedRecordType)
		assert.ErrorContains(t, result.Err(), "Kewne: loading variant 2")
		assert.Equal(t, map[fault.Kind]int{fault.UnexpectedRecordType: 1}, result.FailureKinds())

		for _, name := range []string{
			"Kewne_variant0_frame0.png",
			"Kewne_variant0_frame1_element1.png",
			"Kewne_variant1_frame0.png",
			"Kewne_variant1_frame0_element0.png",
		} {
			assert.True(t, exists(t, filepath.Join(opts.Output, name)), name)
		}
		assert.False(t, exists(t, filepath.Join(opts.Output, "Kewne_variant2_frame0.png")))
	})

	t.Run("without elements", func(t *testing.T) {
		// the broken Kewne variant is logged at error level
		p := New(log.NewNop())
		opts := testOptions(t)
		opts.NoElements = true

		result, err := p.ExecuteWithSource(ctx, loadertest.Disc(), loadertest.Layout(), opts)
		assert.NoError(t, err)
		assert.Equal(t, 3, result.Files)
		assert.False(t, exists(t, filepath.Join(opts.Output, "Kewne_variant0_frame0_element0.png")))
	})

	t.Run("speaker filter", func(t *testing.T) {
		p := New(log.NewTestLogger(t))
		opts := testOptions(t)
		opts.Speaker = "weedy, KOH"

		result, err := p.ExecuteWithSource(ctx, loadertest.Disc(), loadertest.Layout(), opts)
		assert.NoError(t, err)
		assert.Equal(t, 2, result.Speakers)
		assert.Equal(t, 0, result.Files)
		assert.NoError(t, result.Err())
	})

	t.Run("unknown speaker", func(t *testing.T) {
		p := New(log.NewTestLogger(t))
		opts := testOptions(t)
		opts.Speaker = "Ghosh"

		_, err := p.ExecuteWithSource(ctx, loadertest.Disc(), loadertest.Layout(), opts)
		assert.ErrorContains(t, err, "unknown speaker 'Ghosh'")
	})

	t.Run("cancelled", func(t *testing.T) {
		p := New(log.NewTestLogger(t))
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := p.ExecuteWithSource(cancelled, loadertest.Disc(), loadertest.Layout(), testOptions(t))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("load failure", func(t *testing.T) {
		p := New(log.NewTestLogger(t))
		_, err := p.ExecuteWithSource(ctx, disc.NewMemorySource(nil), loadertest.Layout(), testOptions(t))
		assert.ErrorIs(t, err, disc.ErrOutOfRange)
	})

	t.Run("game modes", func(t *testing.T) {
		p := New(log.NewTestLogger(t))
		opts := testOptions(t)
		opts.Speaker = "Koh"

		opts.Mode = "tower"
		_, err := p.ExecuteWithSource(ctx, loadertest.Disc(), loadertest.Layout(), opts)
		assert.NoError(t, err)

		opts.Mode = "title"
		_, err = p.ExecuteWithSource(ctx, loadertest.Disc(), loadertest.Layout(), opts)
		assert.ErrorContains(t, err, "loading title resources")
	})
}

func TestExecuteWithSourceOutputs(t *testing.T) {
	ctx := context.Background()

	t.Run("video memory file and structure dump", func(t *testing.T) {
		// the broken Kewne variant is logged at error level
		p := New(log.NewNop())
		opts := testOptions(t)
		opts.Speaker = "Kewne"
		opts.VRAM = "vram.png"
		opts.Memviz = filepath.Join(t.TempDir(), "portraits.dot")

		_, err := p.ExecuteWithSource(ctx, loadertest.Disc(), loadertest.Layout(), opts)
		assert.NoError(t, err)

		file, err := os.Open(filepath.Join(opts.Output, "vram.png"))
		assert.NoError(t, err)
		defer func() { _ = file.Close() }()
		config, err := png.DecodeConfig(file)
		assert.NoError(t, err)
		assert.Equal(t, 1024, config.Width)
		assert.Equal(t, 512, config.Height)

		data, err := os.ReadFile(opts.Memviz)
		assert.NoError(t, err)
		assert.Contains(t, string(data), "digraph")
	})

	t.Run("video memory to stdout", func(t *testing.T) {
		p := New(log.NewTestLogger(t))
		var stdout bytes.Buffer
		p.stdout = &stdout
		opts := testOptions(t)
		opts.Speaker = "Koh"
		opts.VRAM = "-"

		_, err := p.ExecuteWithSource(ctx, loadertest.Disc(), loadertest.Layout(), opts)
		assert.NoError(t, err)
		config, err := png.DecodeConfig(&stdout)
		assert.NoError(t, err)
		assert.Equal(t, 1024, config.Width)
	})

	t.Run("portrait info", func(t *testing.T) {
		// the broken Kewne variant is logged at error level
		p := New(log.NewNop())
		var stdout bytes.Buffer
		p.stdout = &stdout
		opts := testOptions(t)
		opts.Info = true

		_, err := p.ExecuteWithSource(ctx, loadertest.Disc(), loadertest.Layout(), opts)
		assert.NoError(t, err)
		assert.Contains(t, stdout.String(), "Kewne variant 0\n")
		assert.Contains(t, stdout.String(), "Graphics offset scale: 2\n")
	})
}

func TestExecute(t *testing.T) {
	source := loadertest.Disc()
	data, err := source.ReadSectors(0, source.Sectors())
	assert.NoError(t, err)

	dir := t.TempDir()
	image := filepath.Join(dir, "disc.iso")
	assert.NoError(t, os.WriteFile(image, data, 0o600))
	script := filepath.Join(dir, "layout.lua")
	assert.NoError(t, os.WriteFile(script, []byte(testLayoutScript), 0o600))

	t.Run("cooked image with layout script", func(t *testing.T) {
		p := New(log.NewTestLogger(t))
		opts := testOptions(t)
		opts.Input = image
		opts.Layout = script
		opts.Verify = true

		result, err := p.Execute(context.Background(), opts)
		assert.NoError(t, err)
		assert.NoError(t, result.Err())
		assert.Equal(t, 1, result.Speakers)
		assert.Equal(t, 2, result.Portraits)
		assert.Equal(t, 9, result.Files)
	})

	t.Run("non-existent file", func(t *testing.T) {
		p := New(log.NewTestLogger(t))
		opts := testOptions(t)
		opts.Input = filepath.Join(dir, "missing.bin")

		_, err := p.Execute(context.Background(), opts)
		assert.Error(t, err)
	})

	t.Run("invalid layout script", func(t *testing.T) {
		p := New(log.NewTestLogger(t))
		opts := testOptions(t)
		opts.Input = image
		opts.Layout = filepath.Join(dir, "missing.lua")

		_, err := p.Execute(context.Background(), opts)
		assert.ErrorContains(t, err, "loading layout")
	})
}

func TestSelectSpeakers(t *testing.T) {
	lay := layout.Default()

	all, err := selectSpeakers(lay, "")
	assert.NoError(t, err)
	assert.Len(t, all, len(lay.Speakers))

	// catalogue order is kept and duplicates collapse
	selected, err := selectSpeakers(lay, "weedy,Kewne,kewne")
	assert.NoError(t, err)
	assert.Len(t, selected, 2)
	assert.Equal(t, "Kewne", selected[0].Name)
	assert.Equal(t, "Weedy", selected[1].Name)
}

func TestExportFormatExtension(t *testing.T) {
	assert.Equal(t, ".png", exportFormatExtension("vram.png"))
	assert.Equal(t, ".TIFF", exportFormatExtension("vram.TIFF"))
	assert.Equal(t, "", exportFormatExtension("vram"))
}
