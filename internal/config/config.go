// Package config handles application configuration and setup
package config

import (
	"fmt"

	"github.com/czajowaty/ad-resources-dumper/internal/layout"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	switch {
	case debug:
		cfg.Level = log.DebugLevel
	case quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// LoadLayout returns the memory layout of the supported title, with the
// overrides of a Lua layout script applied if a path is given.
func LoadLayout(logger *log.Logger, path string) (*layout.Layout, error) {
	lay := layout.Default()
	if path == "" {
		return lay, nil
	}

	lay, err := layout.LoadLua(path, lay)
	if err != nil {
		return nil, fmt.Errorf("loading layout: %w", err)
	}
	logger.Debug("Loaded layout",
		log.String("file", path),
		log.Int("speakers", len(lay.Speakers)),
		log.Int("halved_offsets", len(lay.HalvedOffsets)))
	return lay, nil
}
