// Package options contains the program options.
package options

// Parameters contains file path options.
type Parameters struct {
	Input  string `flag:"i" usage:"input disc image"`
	Output string `flag:"o" usage:"output directory (default: current directory)"`
	Layout string `flag:"layout" usage:"Lua file overriding the title memory layout"`
	VRAM   string `flag:"vram" usage:"write the video memory image under this name to the output directory, - for stdout"`
	Memviz string `flag:"memviz" usage:"write a graphviz dump of the decoded portrait records"`
	Batch  string `flag:"batch" usage:"batch process disc images matching pattern (e.g. *.bin)"`
}

// Flags contains behavior options.
type Flags struct {
	DiscFormat string `flag:"disc" usage:"disc image format: raw, cooked (default: auto-detect)"`
	Mode       string `flag:"mode" usage:"additional game mode to load: tower, title"`
	Speaker    string `flag:"speaker" usage:"comma separated speaker names to export (default: all)"`
	Verify     bool   `flag:"verify" usage:"verify written images by decoding and comparing them"`
	Info       bool   `flag:"info" usage:"print a description of every exported portrait"`
	Debug      bool   `flag:"debug" usage:"enable debug logging"`
	Quiet      bool   `flag:"q" usage:"quiet mode"`
}

// OutputFlags contains output formatting options.
type OutputFlags struct {
	Format     string `flag:"f" usage:"image format: png, bmp, tiff" default:"png"`
	Scale      int    `flag:"scale" usage:"integer upscale factor of written images" default:"1"`
	NoElements bool   `flag:"noelements" usage:"do not write the fragments of multi fragment frames"`
}

// Program options of the exporter.
type Program struct {
	Parameters
	Flags
	OutputFlags
}
