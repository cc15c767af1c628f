package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mxe/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size          string
	orientation   string
	margin        float64
	noPageNumbers bool
}

// tocFlags holds table of contents flags.
type tocFlags struct {
	enabled  bool
	title    string
	minDepth int
	maxDepth int
}

// fontFlags selects catalog fonts.
type fontFlags struct {
	body string
	code string
}

// diagramFlags holds Mermaid and WaveDrom flags.
type diagramFlags struct {
	mode       string
	theme      string
	handDraw   bool
	layout     string
	mermaidCLI bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common    commonFlags
	format    string
	style     string
	output    string
	assetPath string
	css       string
	timeout   string
	workers   int
	watch     bool
	page      pageFlags
	toc       tocFlags
	fonts     fontFlags
	diagrams  diagramFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a4, letter, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches (0.25-3.0)")
	fs.BoolVar(&f.noPageNumbers, "no-page-numbers", false, "hide the page number footer")
}

// addTOCFlags adds TOC flags to a FlagSet.
func addTOCFlags(fs *flag.FlagSet, f *tocFlags) {
	fs.BoolVar(&f.enabled, "toc", false, "insert a table of contents")
	fs.StringVar(&f.title, "toc-title", "", "table of contents heading")
	fs.IntVar(&f.minDepth, "toc-min-depth", 0, "min heading depth for TOC (1-6, default: 1)")
	fs.IntVar(&f.maxDepth, "toc-max-depth", 0, "max heading depth for TOC (1-6, default: 3)")
}

// addFontFlags adds font selection flags to a FlagSet.
func addFontFlags(fs *flag.FlagSet, f *fontFlags) {
	fs.StringVar(&f.body, "font", "", "body font id (see 'mxe fonts')")
	fs.StringVar(&f.code, "code-font", "", "code font id (see 'mxe fonts')")
}

// addDiagramFlags adds diagram flags to a FlagSet.
func addDiagramFlags(fs *flag.FlagSet, f *diagramFlags) {
	fs.StringVar(&f.mode, "diagrams", "", "diagram mode: render, script, off")
	fs.StringVar(&f.theme, "mermaid-theme", "", "mermaid theme: default, neutral, dark, forest, base")
	fs.BoolVar(&f.handDraw, "hand-draw", false, "hand-drawn mermaid look")
	fs.StringVar(&f.layout, "mermaid-layout", "", "mermaid layout: dagre, elk")
	fs.BoolVar(&f.mermaidCLI, "mermaid-cli", false, "render mermaid with mmdc when installed")
}

// newConvertFlagSet registers every convert flag on a new FlagSet.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	fs.StringVarP(&f.format, "format", "f", "", "output format: pdf, docx, html, clipboard, terminal")
	fs.StringVarP(&f.style, "style", "s", "", "CSS style name or file path")
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory with custom styles/<name>.css")
	fs.StringVar(&f.css, "css", "", "extra CSS file applied last")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g. 30s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.watch, "watch", false, "re-convert inputs when they change")

	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	addTOCFlags(fs, &f.toc)
	addFontFlags(fs, &f.fonts)
	addDiagramFlags(fs, &f.diagrams)
	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printConvertUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return f, fs.Args(), nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(f *convertFlags, cfg *config.Config) {
	setString(&cfg.Format, f.format)
	setString(&cfg.Style, f.style)
	setString(&cfg.Output, f.output)
	setString(&cfg.AssetPath, f.assetPath)
	setString(&cfg.Timeout, f.timeout)
	if f.workers > 0 {
		cfg.Workers = f.workers
	}

	setString(&cfg.Page.Size, f.page.size)
	setString(&cfg.Page.Orientation, f.page.orientation)
	if f.page.margin > 0 {
		cfg.Page.Margin = f.page.margin
	}
	if f.page.noPageNumbers {
		off := false
		cfg.Page.PageNumbers = &off
	}

	// Any TOC flag turns the TOC on.
	if f.toc.enabled || f.toc.title != "" || f.toc.minDepth > 0 || f.toc.maxDepth > 0 {
		cfg.TOC.Enabled = true
	}
	setString(&cfg.TOC.Title, f.toc.title)
	if f.toc.minDepth > 0 {
		cfg.TOC.MinDepth = f.toc.minDepth
	}
	if f.toc.maxDepth > 0 {
		cfg.TOC.MaxDepth = f.toc.maxDepth
	}

	setString(&cfg.Fonts.Body, f.fonts.body)
	setString(&cfg.Fonts.Code, f.fonts.code)

	setString(&cfg.Diagrams.Mode, strings.ToLower(f.diagrams.mode))
	setString(&cfg.Diagrams.Mermaid.Theme, f.diagrams.theme)
	setString(&cfg.Diagrams.Mermaid.Layout, f.diagrams.layout)
	if f.diagrams.handDraw {
		cfg.Diagrams.Mermaid.HandDraw = true
	}
	if f.diagrams.mermaidCLI {
		cfg.Diagrams.MermaidCLI = true
	}
}
