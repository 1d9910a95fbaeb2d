// Package pipeline orchestrates the portrait export workflow stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/czajowaty/ad-resources-dumper/internal/config"
	"github.com/czajowaty/ad-resources-dumper/internal/detector"
	"github.com/czajowaty/ad-resources-dumper/internal/disc"
	"github.com/czajowaty/ad-resources-dumper/internal/exporter"
	"github.com/czajowaty/ad-resources-dumper/internal/fault"
	"github.com/czajowaty/ad-resources-dumper/internal/gamedata"
	"github.com/czajowaty/ad-resources-dumper/internal/layout"
	"github.com/czajowaty/ad-resources-dumper/internal/loader"
	"github.com/czajowaty/ad-resources-dumper/internal/options"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"golang.org/x/term"
)

// Pipeline orchestrates the complete export workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	stdout   io.Writer
}

// Result summarizes an export run.
type Result struct {
	Speakers  int     // speakers that were processed
	Portraits int     // portrait variants that were exported
	Files     int     // image files written
	Errors    []error // per speaker failures
}

// Err joins the per speaker failures.
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// FailureKinds counts the per speaker failures by decoding error kind. Failures
// that are not decoding errors are left out.
func (r *Result) FailureKinds() map[fault.Kind]int {
	kinds := make(map[fault.Kind]int)
	for _, err := range r.Errors {
		if kind := fault.KindOf(err); kind != 0 {
			kinds[kind]++
		}
	}
	return kinds
}

// New creates a new export pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		stdout:   os.Stdout,
	}
}

// Execute runs the complete export pipeline for the input disc image.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program) (*Result, error) {
	info, err := os.Stat(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("reading disc image info: %w", err)
	}
	format, err := p.detector.Detect(opts, info.Size())
	if err != nil {
		return nil, fmt.Errorf("detecting disc format: %w", err)
	}

	image, err := disc.Open(opts.Input, format)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = image.Close()
	}()

	lay, err := config.LoadLayout(p.logger, opts.Layout)
	if err != nil {
		return nil, err
	}

	p.printInfo(opts, image)
	return p.ExecuteWithSource(ctx, image, lay, opts)
}

// ExecuteWithSource runs the export pipeline with an already opened sector source.
// This is useful for testing and programmatic usage where the disc is already in memory.
func (p *Pipeline) ExecuteWithSource(ctx context.Context, source disc.SectorSource, lay *layout.Layout,
	opts options.Program) (*Result, error) {

	speakers, err := selectSpeakers(lay, opts.Speaker)
	if err != nil {
		return nil, err
	}

	exp, err := exporter.New(p.logger, exporter.Options{
		Directory: opts.Output,
		Format:    exporter.Format(opts.Format),
		Scale:     opts.Scale,
		Verify:    opts.Verify,
	})
	if err != nil {
		return nil, fmt.Errorf("creating exporter: %w", err)
	}

	l := loader.New(p.logger, lay)
	if err := l.Load(source); err != nil {
		return nil, fmt.Errorf("loading disc resources: %w", err)
	}
	if err := p.loadGameMode(l, opts.Mode); err != nil {
		return nil, err
	}
	if opts.VRAM != "" {
		if err := p.writeVRAM(exp, l, opts.VRAM); err != nil {
			return nil, fmt.Errorf("writing video memory: %w", err)
		}
	}

	result := &Result{}
	var records []*exporter.Record
	for _, speaker := range speakers {
		// A cancelled export is discarded as a whole
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("exporting portraits: %w", err)
		}

		exported, err := p.exportSpeaker(exp, l, speaker, opts)
		result.Speakers++
		result.Portraits += len(exported)
		for _, portrait := range exported {
			records = append(records, exporter.NewRecord(speaker.Name, portrait))
		}
		if err != nil {
			p.logger.Error("Exporting speaker failed", log.String("speaker", speaker.Name), log.Err(err))
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", speaker.Name, err))
		}
	}
	result.Files = exp.Written()

	if opts.Memviz != "" {
		if err := exporter.DumpStructureFile(opts.Memviz, records); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// exportSpeaker writes all frames of all portrait variants of a speaker and
// returns the portraits that were exported completely.
func (p *Pipeline) exportSpeaker(exp *exporter.Exporter, l *loader.Loader, speaker layout.Speaker,
	opts options.Program) ([]*loader.Portrait, error) {

	variants, err := l.PortraitVariants(speaker.ID)
	if err != nil {
		return nil, fmt.Errorf("reading portrait variants: %w", err)
	}
	if len(variants) == 0 {
		p.logger.Debug("Speaker has no portraits", log.String("speaker", speaker.Name))
		return nil, nil
	}

	var exported []*loader.Portrait
	for _, variant := range variants {
		portrait, err := l.LoadPortrait(variant)
		if err != nil {
			return exported, fmt.Errorf("loading variant %d: %w", variant.Index, err)
		}
		if err := p.exportPortrait(exp, speaker.Name, portrait, opts); err != nil {
			return exported, fmt.Errorf("variant %d: %w", variant.Index, err)
		}
		exported = append(exported, portrait)

		if opts.Info {
			if err := exporter.WriteReport(p.stdout, speaker.Name, portrait); err != nil {
				return exported, fmt.Errorf("writing portrait info: %w", err)
			}
		}
	}

	p.logger.Info("Exported portraits",
		log.String("speaker", speaker.Name),
		log.Int("variants", len(variants)))
	return exported, nil
}

func (p *Pipeline) exportPortrait(exp *exporter.Exporter, name string, portrait *loader.Portrait,
	opts options.Program) error {

	variant := portrait.Variant.Index
	for i, frame := range portrait.Frames {
		if _, err := exp.WriteImage(exporter.FrameName(name, variant, i, -1), portrait.Image(i)); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if opts.NoElements || len(frame.Fragments) < 2 {
			continue
		}
		for j, fragment := range frame.Fragments {
			if _, err := exp.WriteImage(exporter.FrameName(name, variant, i, j), fragment.Image); err != nil {
				return fmt.Errorf("frame %d element %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func (p *Pipeline) loadGameMode(l *loader.Loader, name string) error {
	if name == "" {
		return nil
	}
	mode, err := gamedata.ParseGameMode(name)
	if err != nil {
		return err
	}
	if mode == gamedata.Town || mode == gamedata.NoGameMode {
		return nil
	}
	if err := l.LoadGameMode(mode); err != nil {
		return fmt.Errorf("loading %s resources: %w", mode, err)
	}
	return nil
}

func (p *Pipeline) writeVRAM(exp *exporter.Exporter, l *loader.Loader, path string) error {
	img := l.VRAM().Image()
	if path != "-" {
		_, err := exp.WriteImage(strings.TrimSuffix(path, exportFormatExtension(path)), img)
		return err
	}

	if isTerminal(p.stdout) {
		return errors.New("refusing to write image data to a terminal")
	}
	return exp.WriteTo(p.stdout, img)
}

// printInfo prints information about the disc image being processed.
func (p *Pipeline) printInfo(opts options.Program, image *disc.Image) {
	if opts.Quiet {
		return
	}
	p.logger.Info("Processing disc image",
		log.String("file", opts.Input),
		log.Stringer("format", image.Format()),
		log.Int("sectors", int(image.Sectors())))
}

// selectSpeakers returns the catalogue speakers matching a comma separated name
// filter, all of them for an empty filter.
func selectSpeakers(lay *layout.Layout, filter string) ([]layout.Speaker, error) {
	if filter == "" {
		return lay.Speakers, nil
	}

	names := set.New[string]()
	for name := range strings.SplitSeq(filter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		speaker, ok := lay.SpeakerByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown speaker '%s'", name)
		}
		names.Add(speaker.Name)
	}

	var speakers []layout.Speaker
	for _, speaker := range lay.Speakers {
		if names.Contains(speaker.Name) {
			speakers = append(speakers, speaker)
		}
	}
	return speakers, nil
}

// exportFormatExtension returns the extension of path if it names a supported
// image format, the exporter appends its own.
func exportFormatExtension(path string) string {
	for _, format := range []exporter.Format{exporter.PNG, exporter.BMP, exporter.TIFF} {
		if strings.HasSuffix(strings.ToLower(path), format.Extension()) {
			return path[len(path)-len(format.Extension()):]
		}
	}
	return ""
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
