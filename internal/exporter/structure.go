package exporter

import (
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"
	"github.com/czajowaty/ad-resources-dumper/internal/gamedata"
	"github.com/czajowaty/ad-resources-dumper/internal/loader"
)

// Record is the decoded record tree of a portrait variant, without pixel data.
type Record struct {
	Speaker  string
	Variant  loader.Variant
	LoadInfo gamedata.MemoryLoadInfo
	Frames   []*FrameRecord
}

// FrameRecord holds the records of one animation frame.
type FrameRecord struct {
	Animation gamedata.Animation
	Graphics  []gamedata.Graphic
}

// NewRecord extracts the record tree of a loaded portrait.
func NewRecord(speaker string, portrait *loader.Portrait) *Record {
	r := &Record{
		Speaker:  speaker,
		Variant:  portrait.Variant,
		LoadInfo: portrait.LoadInfo,
	}
	for _, frame := range portrait.Frames {
		fr := &FrameRecord{Animation: frame.Animation}
		for _, fragment := range frame.Fragments {
			fr.Graphics = append(fr.Graphics, fragment.Graphic)
		}
		r.Frames = append(r.Frames, fr)
	}
	return r
}

// DumpStructure writes a graphviz description of the records reachable from
// value.
func DumpStructure(w io.Writer, value any) {
	memviz.Map(w, value)
}

// DumpStructureFile writes the graphviz description of value to a file.
func DumpStructureFile(path string, value any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating structure dump '%s': %w", path, err)
	}
	DumpStructure(file, value)
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing structure dump '%s': %w", path, err)
	}
	return nil
}
