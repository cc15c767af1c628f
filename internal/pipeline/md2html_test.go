package pipeline

// Notes:
// - Assertions use substring checks: goldmark's exact whitespace is not
//   part of the contract.

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGoldmarkConverter_ToHTML
// ---------------------------------------------------------------------------

func TestGoldmarkConverter_ToHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markdown string
		title    string
		want     []string
		notWant  []string
	}{
		{
			name:     "document shell",
			markdown: "hello",
			want:     []string{"<!DOCTYPE html>", `<meta charset="utf-8">`, "<p>hello</p>", "</body>"},
		},
		{
			name:     "title from first h1",
			markdown: "# Guide & Notes\n\ntext",
			want:     []string{"<title>Guide &amp; Notes</title>", `<h1 id="guide-notes">`},
		},
		{
			name:     "explicit title wins",
			markdown: "# Heading",
			title:    "<Report>",
			want:     []string{"<title>&lt;Report&gt;</title>"},
		},
		{
			name:     "default title",
			markdown: "no headings",
			want:     []string{"<title>" + DefaultTitle + "</title>"},
		},
		{
			name:     "duplicate heading ids",
			markdown: "## Setup\n\n## Setup\n\n## Setup",
			want:     []string{`id="setup"`, `id="setup-1"`, `id="setup-2"`},
		},
		{
			name:     "gfm table",
			markdown: "| a | b |\n|---|---|\n| 1 | 2 |",
			want:     []string{"<table>", "<th>a</th>", "<td>2</td>"},
		},
		{
			name:     "task list",
			markdown: "- [x] done\n- [ ] todo",
			want:     []string{`type="checkbox"`, "checked"},
		},
		{
			name:     "footnote",
			markdown: "text[^1]\n\n[^1]: note",
			want:     []string{`class="footnotes"`},
		},
		{
			name:     "code highlighted with classes",
			markdown: "```go\nfunc main() {}\n```",
			want:     []string{`class="chroma"`},
			notWant:  []string{"style=\"color"},
		},
		{
			name:     "raw html dropped",
			markdown: "<script>alert(1)</script>\n\ntext",
			notWant:  []string{"<script>alert(1)</script>"},
		},
		{
			name:     "hard wraps",
			markdown: "line one\nline two",
			want:     []string{"<br />"},
		},
	}

	c := NewGoldmarkConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := c.ToHTML(context.Background(), tt.markdown, tt.title)
			if err != nil {
				t.Fatalf("ToHTML() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("ToHTML() missing %q in:\n%s", w, got)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("ToHTML() unexpectedly contains %q", nw)
				}
			}
		})
	}
}

func TestGoldmarkConverter_ToHTML_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoldmarkConverter().ToHTML(ctx, "# x", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToHTML() error = %v, want context.Canceled", err)
	}
}

// The slugger is per document: converting twice yields the same ids.
func TestGoldmarkConverter_IDsResetPerDocument(t *testing.T) {
	t.Parallel()

	c := NewGoldmarkConverter()
	for i := 0; i < 2; i++ {
		got, err := c.ToHTML(context.Background(), "# Intro", "")
		if err != nil {
			t.Fatalf("ToHTML() error = %v", err)
		}
		if !strings.Contains(got, `id="intro"`) {
			t.Errorf("run %d: want id=\"intro\", got:\n%s", i, got)
		}
	}
}

// ---------------------------------------------------------------------------
// TestSlugify / TestSlugger
// ---------------------------------------------------------------------------

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"API: v2.0 (beta)!", "api-v20-beta"},
		{"snake_case stays", "snake_case-stays"},
		{"a -- b", "a-b"},
		{"Café déjà vu", "café-déjà-vu"},
		{"!!!", "section"},
		{"", "section"},
		{"--x--", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugger_Duplicates(t *testing.T) {
	t.Parallel()

	s := NewSlugger()
	got := []string{s.Slug("A"), s.Slug("a"), s.Slug("A"), s.Slug("a-1"), s.Slug("!")}
	want := []string{"a", "a-1", "a-2", "a-1-1", "section"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Slug #%d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSlugger_PutReservesID(t *testing.T) {
	t.Parallel()

	s := NewSlugger()
	s.Put([]byte("intro"))
	if got := s.Slug("Intro"); got != "intro-1" {
		t.Errorf("Slug after Put = %q, want intro-1", got)
	}
}

// ---------------------------------------------------------------------------
// TestFirstHeading
// ---------------------------------------------------------------------------

func TestFirstHeading(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{"with id", `<h1 id="first">First</h1>`, "First"},
		{"without id", `<h1>First</h1><h1 id="second">Second</h1>`, "First"},
		{"attributes and inline tags", `<h1 class="t"><em>Big</em> &amp; bold</h1>`, "Big & bold"},
		{"skips empty", `<h1></h1><h1>Next</h1>`, "Next"},
		{"ignores other levels", `<h2>Sub</h2>`, ""},
		{"none", `<p>text</p>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FirstHeading(tt.html); got != tt.want {
				t.Errorf("FirstHeading(%q) = %q, want %q", tt.html, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestHighlightCSS
// ---------------------------------------------------------------------------

func TestHighlightCSS(t *testing.T) {
	t.Parallel()

	css := HighlightCSS()
	if !strings.Contains(css, ".chroma") {
		t.Errorf("HighlightCSS() missing .chroma selector:\n%s", css)
	}
}
