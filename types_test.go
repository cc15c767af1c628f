package mxe

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestParseFormat - Output format parsing
// ---------------------------------------------------------------------------

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr error
	}{
		{in: "", want: FormatPDF},
		{in: "pdf", want: FormatPDF},
		{in: "DOCX", want: FormatDOCX},
		{in: " html ", want: FormatHTML},
		{in: "clipboard", want: FormatClipboard},
		{in: "terminal", want: FormatTerminal},
		{in: "odt", wantErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseFormat(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat_Ext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		ext    string
	}{
		{FormatPDF, ".pdf"},
		{FormatDOCX, ".docx"},
		{FormatHTML, ".html"},
		{FormatClipboard, ""},
		{FormatTerminal, ""},
	}

	for _, tt := range tests {
		if got := tt.format.Ext(); got != tt.ext {
			t.Errorf("%s.Ext() = %q, want %q", tt.format, got, tt.ext)
		}
		if got := tt.format.WritesFile(); got != (tt.ext != "") {
			t.Errorf("%s.WritesFile() = %v", tt.format, got)
		}
	}
}

// ---------------------------------------------------------------------------
// TestPageSettings - Validation and defaults
// ---------------------------------------------------------------------------

func TestPageSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    *PageSettings
		wantErr error
	}{
		{name: "nil", page: nil},
		{name: "empty uses defaults", page: &PageSettings{}},
		{name: "letter landscape", page: &PageSettings{Size: "Letter", Orientation: "LANDSCAPE", Margin: 1}},
		{name: "min margin", page: &PageSettings{Margin: MinMargin}},
		{name: "max margin", page: &PageSettings{Margin: MaxMargin}},
		{name: "bad size", page: &PageSettings{Size: "tabloid"}, wantErr: ErrInvalidPageSize},
		{name: "bad orientation", page: &PageSettings{Orientation: "diagonal"}, wantErr: ErrInvalidOrientation},
		{name: "margin too small", page: &PageSettings{Margin: 0.1}, wantErr: ErrInvalidMargin},
		{name: "margin too large", page: &PageSettings{Margin: 3.5}, wantErr: ErrInvalidMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.page.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageSettings_Resolved(t *testing.T) {
	t.Parallel()

	var nilPage *PageSettings
	got := nilPage.resolved()
	if got.Size != PageSizeA4 || got.Orientation != OrientationPortrait || got.Margin != DefaultMargin {
		t.Errorf("nil resolved = %+v", got)
	}
	if !got.showPageNumbers() {
		t.Error("page numbers should default to shown")
	}

	off := false
	got = (&PageSettings{Size: "LEGAL", Margin: 2, PageNumbers: &off}).resolved()
	if got.Size != PageSizeLegal || got.Orientation != OrientationPortrait || got.Margin != 2 {
		t.Errorf("resolved = %+v", got)
	}
	if got.showPageNumbers() {
		t.Error("page numbers should be hidden")
	}
}

// ---------------------------------------------------------------------------
// TestTOC_Validate / TestFonts_Validate / TestDiagrams_Validate
// ---------------------------------------------------------------------------

func TestTOC_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		toc     *TOC
		wantErr error
	}{
		{name: "nil", toc: nil},
		{name: "defaults", toc: &TOC{}},
		{name: "single level", toc: &TOC{MinDepth: 2, MaxDepth: 2}},
		{name: "full range", toc: &TOC{MinDepth: 1, MaxDepth: 6}},
		{name: "min above default max", toc: &TOC{MinDepth: 4}, wantErr: ErrInvalidTOCDepth},
		{name: "max too deep", toc: &TOC{MaxDepth: 7}, wantErr: ErrInvalidTOCDepth},
		{name: "negative", toc: &TOC{MinDepth: -1}, wantErr: ErrInvalidTOCDepth},
		{name: "inverted", toc: &TOC{MinDepth: 3, MaxDepth: 2}, wantErr: ErrInvalidTOCDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.toc.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestToTOCData(t *testing.T) {
	t.Parallel()

	if toTOCData(nil) != nil {
		t.Error("toTOCData(nil) should be nil")
	}
	got := toTOCData(&TOC{Title: "Contents", MaxDepth: 4})
	if got.Title != "Contents" || got.MinDepth != DefaultTOCMinDepth || got.MaxDepth != 4 {
		t.Errorf("toTOCData() = %+v", got)
	}
}

func TestFonts_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fonts   *Fonts
		wantErr error
	}{
		{name: "nil", fonts: nil},
		{name: "empty", fonts: &Fonts{}},
		{name: "known", fonts: &Fonts{Body: "Inter", Code: "fira-code"}},
		{name: "unknown body", fonts: &Fonts{Body: "papyrus"}, wantErr: ErrUnknownFont},
		{name: "unknown code", fonts: &Fonts{Code: "courier"}, wantErr: ErrUnknownFont},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.fonts.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDiagrams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		diagrams *Diagrams
		wantErr  error
	}{
		{name: "nil", diagrams: nil},
		{name: "empty", diagrams: &Diagrams{}},
		{name: "script dark elk", diagrams: &Diagrams{Mode: DiagramsScript, Theme: "dark", Layout: "elk"}},
		{name: "bad mode", diagrams: &Diagrams{Mode: "inline"}, wantErr: ErrInvalidDiagramMode},
		{name: "bad theme", diagrams: &Diagrams{Theme: "solarized"}, wantErr: ErrInvalidMermaidTheme},
		{name: "bad layout", diagrams: &Diagrams{Layout: "force"}, wantErr: ErrInvalidMermaidLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.diagrams.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResult_Bytes(t *testing.T) {
	t.Parallel()

	r := &Result{HTML: []byte("h"), PDF: []byte("p"), DOCX: []byte("d"), Text: []byte("t")}
	want := map[Format]string{FormatPDF: "p", FormatDOCX: "d", FormatHTML: "h", FormatClipboard: "h", FormatTerminal: "t"}
	for format, w := range want {
		r.Format = format
		if got := string(r.Bytes()); got != w {
			t.Errorf("Bytes() for %s = %q, want %q", format, got, w)
		}
	}
}
