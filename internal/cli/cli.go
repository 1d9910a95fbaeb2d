// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/czajowaty/ad-resources-dumper/internal/disc"
	"github.com/czajowaty/ad-resources-dumper/internal/exporter"
	"github.com/czajowaty/ad-resources-dumper/internal/gamedata"
	"github.com/czajowaty/ad-resources-dumper/internal/options"
)

// ParseFlags parses command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Batch == "" && opts.Input == "") {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, err
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}

	if opts.Batch == "" && len(args) > 0 {
		opts.Input = args[0]
	}

	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: addumper [options] <disc image>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after disc image, please pass the disc image as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	format, err := exporter.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	opts.Format = string(format)

	if opts.Scale < 1 {
		return fmt.Errorf("invalid scale %d, must be at least 1", opts.Scale)
	}

	if opts.DiscFormat != "" {
		discFormat, err := disc.ParseFormat(opts.DiscFormat)
		if err != nil {
			return err
		}
		opts.DiscFormat = discFormat.String()
	}

	opts.Mode = strings.ToLower(opts.Mode)
	if opts.Mode != "" {
		if _, err := gamedata.ParseGameMode(opts.Mode); err != nil {
			return err
		}
	}

	if opts.VRAM == "-" && opts.Info {
		return &UsageError{msg: "the video memory image and the portrait info can not both be written to stdout"}
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input disc image")
	flags.StringVar(&opts.Output, "o", "", "output directory of the written images, current directory if no name given")
	flags.StringVar(&opts.Layout, "layout", "", "Lua file overriding the addresses and speakers of the title memory layout")
	flags.StringVar(&opts.VRAM, "vram", "", "write the video memory after loading the town resources under this name to the output directory, - for stdout")
	flags.StringVar(&opts.Memviz, "memviz", "", "write a graphviz dump of the decoded portrait records to this file")
	flags.StringVar(&opts.Batch, "batch", "", "process a batch of disc images matching a path and file mask, for example *.bin")
	flags.StringVar(&opts.DiscFormat, "disc", "", "disc image format (raw/cooked) - if not auto-detected from file extension and size")
	flags.StringVar(&opts.Mode, "mode", "", "load the resources of an additional game mode (tower/title)")
	flags.StringVar(&opts.Speaker, "speaker", "", "comma separated names of the speakers to export, all speakers if none given")
	flags.StringVar(&opts.Format, "f", "png", "image format of the written files (png/bmp/tiff)")
	flags.IntVar(&opts.Scale, "scale", 1, "integer upscale factor of the written images")
	flags.BoolVar(&opts.NoElements, "noelements", false, "do not write the single fragments of frames built from multiple fragments")
	flags.BoolVar(&opts.Verify, "verify", false, "verify every written image by decoding it and comparing it to the exported image")
	flags.BoolVar(&opts.Info, "info", false, "print a description of every exported portrait on console")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
