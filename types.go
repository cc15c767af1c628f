package mxe

import (
	"fmt"
	"strings"

	"github.com/alnah/go-mxe/internal/diagram"
	"github.com/alnah/go-mxe/internal/fonts"
)

// Format selects what Export produces.
type Format string

// Output formats.
const (
	FormatPDF       Format = "pdf"
	FormatDOCX      Format = "docx"
	FormatHTML      Format = "html"
	FormatClipboard Format = "clipboard"
	FormatTerminal  Format = "terminal"
)

// Formats lists every output format, default first.
var Formats = []Format{FormatPDF, FormatDOCX, FormatHTML, FormatClipboard, FormatTerminal}

// ParseFormat maps s (case-insensitive) to a Format. Empty means PDF.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatPDF, nil
	}
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want pdf, docx, html, clipboard or terminal)", ErrInvalidFormat, s)
}

// Ext returns the output file extension, or "" for formats that do not
// write files.
func (f Format) Ext() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatDOCX:
		return ".docx"
	case FormatHTML:
		return ".html"
	}
	return ""
}

// WritesFile reports whether the format produces an output file.
func (f Format) WritesFile() bool {
	return f.Ext() != ""
}

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.59 // 1.5cm
)

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "a4", "letter", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
	PageNumbers *bool   // footer "page / total"; nil means shown
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults). Empty fields mean
// their default.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	switch strings.ToLower(p.Size) {
	case "", PageSizeLetter, PageSizeA4, PageSizeLegal:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case "", OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.Margin != 0 && (p.Margin < MinMargin || p.Margin > MaxMargin) {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// resolved fills empty fields with defaults. Safe on nil.
func (p *PageSettings) resolved() PageSettings {
	out := *DefaultPageSettings()
	if p == nil {
		return out
	}
	if p.Size != "" {
		out.Size = strings.ToLower(p.Size)
	}
	if p.Orientation != "" {
		out.Orientation = strings.ToLower(p.Orientation)
	}
	if p.Margin != 0 {
		out.Margin = p.Margin
	}
	out.PageNumbers = p.PageNumbers
	return out
}

// showPageNumbers reports whether the footer is printed.
func (p PageSettings) showPageNumbers() bool {
	return p.PageNumbers == nil || *p.PageNumbers
}

// TOC depth bounds and defaults.
const (
	DefaultTOCMinDepth = 1
	DefaultTOCMaxDepth = 3
)

// TOC configures the table of contents.
type TOC struct {
	Title    string // empty means "Table of Contents"
	MinDepth int    // 1-6, 0 means DefaultTOCMinDepth
	MaxDepth int    // 1-6, 0 means DefaultTOCMaxDepth
}

// Validate checks depth bounds. Returns nil if t is nil.
func (t *TOC) Validate() error {
	if t == nil {
		return nil
	}
	minDepth, maxDepth := t.depths()
	if minDepth < 1 || minDepth > 6 {
		return fmt.Errorf("%w: minDepth %d (must be 1-6)", ErrInvalidTOCDepth, t.MinDepth)
	}
	if maxDepth < 1 || maxDepth > 6 {
		return fmt.Errorf("%w: maxDepth %d (must be 1-6)", ErrInvalidTOCDepth, t.MaxDepth)
	}
	if minDepth > maxDepth {
		return fmt.Errorf("%w: minDepth %d > maxDepth %d", ErrInvalidTOCDepth, minDepth, maxDepth)
	}
	return nil
}

func (t *TOC) depths() (int, int) {
	minDepth, maxDepth := t.MinDepth, t.MaxDepth
	if minDepth == 0 {
		minDepth = DefaultTOCMinDepth
	}
	if maxDepth == 0 {
		maxDepth = DefaultTOCMaxDepth
	}
	return minDepth, maxDepth
}

// Fonts selects catalog fonts by id (see `mxe fonts`).
type Fonts struct {
	Body string // empty means lato
	Code string // empty keeps the style's monospace stack
}

// Validate checks both ids against the catalog. Returns nil if f is nil.
func (f *Fonts) Validate() error {
	if f == nil {
		return nil
	}
	for _, id := range []string{f.Body, f.Code} {
		if id == "" {
			continue
		}
		if _, err := fonts.Lookup(id); err != nil {
			return err
		}
	}
	return nil
}

// Diagram modes.
const (
	DiagramsRender = diagram.ModeRender
	DiagramsScript = diagram.ModeScript
	DiagramsOff    = diagram.ModeOff
)

// Diagrams configures Mermaid and WaveDrom handling.
type Diagrams struct {
	Mode     diagram.Mode // empty means DiagramsRender
	Theme    string       // mermaid theme: default, neutral, dark, forest, base
	HandDraw bool         // mermaid hand-drawn look
	Layout   string       // mermaid layout: dagre or elk
}

// Validate checks the mode and Mermaid options. Returns nil if d is nil.
func (d *Diagrams) Validate() error {
	if d == nil {
		return nil
	}
	if _, err := diagram.ParseMode(string(d.Mode)); err != nil {
		return err
	}
	return d.mermaid().Validate()
}

func (d *Diagrams) mermaid() diagram.MermaidOptions {
	return diagram.MermaidOptions{Theme: d.Theme, HandDraw: d.HandDraw, Layout: d.Layout}
}

// Input contains conversion parameters.
type Input struct {
	Markdown  string        // Markdown content (required)
	SourceDir string        // base for relative image paths
	Title     string        // document title; first H1 when empty
	CSS       string        // extra CSS, applied last
	TOC       *TOC          // nil means no table of contents
	Page      *PageSettings // nil means defaults (A4, portrait, 1.5cm, page numbers)
	Fonts     *Fonts        // nil means Lato body, monospace code from the style
	Diagrams  *Diagrams     // nil means server-side rendering, default Mermaid options
}

// Result holds the output of Export. HTML is always set except for
// FormatTerminal; the other fields depend on the format.
type Result struct {
	Format Format
	HTML   []byte
	PDF    []byte
	DOCX   []byte
	Text   []byte // terminal rendering
}

// Bytes returns the payload for the result's format.
func (r *Result) Bytes() []byte {
	switch r.Format {
	case FormatPDF:
		return r.PDF
	case FormatDOCX:
		return r.DOCX
	case FormatTerminal:
		return r.Text
	}
	return r.HTML
}
