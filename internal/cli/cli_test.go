package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/czajowaty/ad-resources-dumper/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

//nolint:funlen // test functions can be long
func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Program
	}{
		{
			name: "default flags",
			args: []string{"prog", "disc.bin"},
			want: options.Program{
				Parameters:  options.Parameters{Input: "disc.bin"},
				OutputFlags: options.OutputFlags{Format: "png", Scale: 1},
			},
		},
		{
			name: "output options",
			args: []string{"prog", "-o", "out", "-f", "TIF", "-scale", "4", "-noelements", "disc.bin"},
			want: options.Program{
				Parameters:  options.Parameters{Input: "disc.bin", Output: "out"},
				OutputFlags: options.OutputFlags{Format: "tiff", Scale: 4, NoElements: true},
			},
		},
		{
			name: "behavior options",
			args: []string{"prog", "-disc", "iso", "-mode", "Tower", "-speaker", "Kewne,Koh", "-verify", "disc.iso"},
			want: options.Program{
				Parameters: options.Parameters{Input: "disc.iso"},
				Flags: options.Flags{
					DiscFormat: "cooked",
					Mode:       "tower",
					Speaker:    "Kewne,Koh",
					Verify:     true,
				},
				OutputFlags: options.OutputFlags{Format: "png", Scale: 1},
			},
		},
		{
			name: "batch without positional argument",
			args: []string{"prog", "-batch", "*.bin", "-vram", "-"},
			want: options.Program{
				Parameters:  options.Parameters{Batch: "*.bin", VRAM: "-"},
				OutputFlags: options.OutputFlags{Format: "png", Scale: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			got, err := ParseFlags()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlagsUsage(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	os.Args = []string{"prog", "-q"}
	_, err := ParseFlags()
	var usageErr *UsageError
	assert.True(t, errors.As(err, &usageErr))

	os.Args = []string{"prog", "disc.bin", "-q"}
	_, err = ParseFlags()
	assert.True(t, errors.As(err, &usageErr))
	assert.ErrorContains(t, err, "found after disc image")
}

func TestNormalizeOptions(t *testing.T) {
	valid := func() options.Program {
		return options.Program{OutputFlags: options.OutputFlags{Format: "png", Scale: 1}}
	}

	tests := []struct {
		name        string
		modify      func(*options.Program)
		errContains string
	}{
		{name: "valid", modify: func(*options.Program) {}},
		{name: "unknown image format", modify: func(o *options.Program) { o.Format = "gif" }, errContains: "unsupported image format"},
		{name: "zero scale", modify: func(o *options.Program) { o.Scale = 0 }, errContains: "invalid scale"},
		{name: "unknown disc format", modify: func(o *options.Program) { o.DiscFormat = "cue" }, errContains: "unsupported disc format"},
		{name: "unknown game mode", modify: func(o *options.Program) { o.Mode = "dungeon" }, errContains: "unsupported game mode"},
		{
			name: "two outputs on stdout",
			modify: func(o *options.Program) {
				o.VRAM = "-"
				o.Info = true
			},
			errContains: "can not both be written to stdout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid()
			tt.modify(&opts)
			err := normalizeOptions(&opts)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}
