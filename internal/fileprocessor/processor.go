// Package fileprocessor handles disc image selection and processing operations
package fileprocessor

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/czajowaty/ad-resources-dumper/internal/fault"
	"github.com/czajowaty/ad-resources-dumper/internal/options"
	"github.com/czajowaty/ad-resources-dumper/internal/pipeline"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

// ProcessFile handles the complete export workflow of one disc image
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program) error {
	result, err := pipeline.New(logger).Execute(ctx, opts)
	if err != nil {
		return err
	}

	if !opts.Quiet {
		logger.Info("Export finished",
			log.String("file", opts.Input),
			log.Int("speakers", result.Speakers),
			log.Int("portraits", result.Portraits),
			log.Int("files", result.Files))
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("exporting %d of %d speakers failed%s: %w",
			len(result.Errors), result.Speakers, formatKinds(result.FailureKinds()), result.Err())
	}
	return nil
}

// formatKinds lists failure counts per error kind, ordered by kind.
func formatKinds(kinds map[fault.Kind]int) string {
	if len(kinds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(kinds))
	for _, kind := range slices.Sorted(maps.Keys(kinds)) {
		parts = append(parts, fmt.Sprintf("%s: %d", kind, kinds[kind]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// GetFilesToProcess returns list of files to process based on options
func GetFilesToProcess(opts *options.Program) ([]string, error) {
	if opts.Batch != "" {
		matches, err := filepath.Glob(opts.Batch)
		if err != nil {
			return nil, fmt.Errorf("globbing batch pattern: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match batch pattern '%s'", opts.Batch)
		}
		return matches, nil
	}
	return []string{opts.Input}, nil
}

// GenerateOutputDirectory returns the output directory of a disc image in batch
// mode, a sub directory named after the image file.
func GenerateOutputDirectory(outputDir, inputFile string) string {
	base := filepath.Base(inputFile)
	ext := filepath.Ext(base)
	return filepath.Join(outputDir, base[:len(base)-len(ext)])
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	logger.Info("addumper", log.String("version", buildinfo.Version(version, commit, date)))
}
