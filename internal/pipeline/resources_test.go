package pipeline

// Notes:
// - The 1x1 PNG below is enough for mimetype to detect image/png.
// - Logging of skipped images is checked with zaptest/observer.

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var tinyPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func writeTestFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ---------------------------------------------------------------------------
// TestInlineResources - Image inlining
// ---------------------------------------------------------------------------

func TestInlineResources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "img", "dot.png"), tinyPNG)
	// Misleading extension: content detection wins.
	writeTestFile(t, filepath.Join(dir, "dot.jpg"), tinyPNG)
	writeTestFile(t, filepath.Join(dir, "pic.svg"), []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`))

	tests := []struct {
		name    string
		html    string
		want    string
		notWant string
	}{
		{name: "relative png", html: `<p><img src="img/dot.png"/></p>`, want: `src="data:image/png;base64,`},
		{name: "detected from content", html: `<img src="dot.jpg"/>`, want: `src="data:image/png;base64,`},
		{name: "svg without charset", html: `<img src="pic.svg"/>`, want: `src="data:image/svg+xml;base64,`},
		{name: "remote untouched", html: `<img src="https://x.test/a.png"/>`, want: `src="https://x.test/a.png"`},
		{name: "data uri untouched", html: `<img src="data:image/png;base64,AA=="/>`, want: `src="data:image/png;base64,AA=="`},
		{name: "traversal untouched", html: `<img src="../secret.png"/>`, want: `src="../secret.png"`},
		{name: "missing file untouched", html: `<img src="nope.png"/>`, want: `src="nope.png"`},
		{name: "links untouched by default", html: `<a href="other.md">x</a>`, want: `href="other.md"`, notWant: "file://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := InlineResources(context.Background(), tt.html, ResourceOptions{SourceDir: dir})
			if err != nil {
				t.Fatalf("InlineResources() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("InlineResources() = %s, want substring %s", got, tt.want)
			}
			if tt.notWant != "" && strings.Contains(got, tt.notWant) {
				t.Errorf("InlineResources() = %s, unexpected %s", got, tt.notWant)
			}
		})
	}
}

func TestInlineResources_FileLinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	html := `<a href="docs/other.md">x</a><a href="#top">t</a><a href="https://x.test">w</a>`

	got, err := InlineResources(context.Background(), html, ResourceOptions{SourceDir: dir, FileLinks: true})
	if err != nil {
		t.Fatalf("InlineResources() error = %v", err)
	}
	wantLink := pathToFileURL(filepath.Join(dir, "docs", "other.md"))
	for _, want := range []string{`href="` + wantLink + `"`, `href="#top"`, `href="https://x.test"`} {
		if !strings.Contains(got, want) {
			t.Errorf("InlineResources() = %s, missing %s", got, want)
		}
	}
}

func TestInlineResources_EmptySourceDir(t *testing.T) {
	t.Parallel()

	in := `<img src="a.png">`
	got, err := InlineResources(context.Background(), in, ResourceOptions{})
	if err != nil || got != in {
		t.Errorf("InlineResources() = %q, %v; want unchanged", got, err)
	}
}

func TestInlineResources_FullDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.png"), tinyPNG)

	in := "<!DOCTYPE html><html><head><title>t</title></head><body><img src=\"a.png\"/></body></html>"
	got, err := InlineResources(context.Background(), in, ResourceOptions{SourceDir: dir})
	if err != nil {
		t.Fatalf("InlineResources() error = %v", err)
	}
	if !strings.HasPrefix(got, "<!DOCTYPE html>") || !strings.Contains(got, "data:image/png") {
		t.Errorf("InlineResources() = %s", got)
	}
}

func TestInlineResources_LogsSkipped(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	_, err := InlineResources(context.Background(), `<img src="gone.png"/><img src="../up.png"/>`, ResourceOptions{
		SourceDir: t.TempDir(),
		Logger:    zap.New(core),
	})
	if err != nil {
		t.Fatalf("InlineResources() error = %v", err)
	}
	if got := logs.Len(); got != 2 {
		t.Errorf("logged %d warnings, want 2: %v", got, logs.All())
	}
}

// ---------------------------------------------------------------------------
// TestIsRelativePath
// ---------------------------------------------------------------------------

func TestIsRelativePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"img.png", true},
		{"./img.png", true},
		{"../img.png", true},
		{"", false},
		{"#anchor", false},
		{"HTTPS://x.test", false},
		{"//cdn.test/x.png", false},
		{"mailto:a@b.c", false},
		{"tel:+15550100", false},
		{"ftp://files.test/a.png", false},
		{"javascript:alert(1)", false},
		{"DATA:image/png;base64,AA==", false},
		{"/abs/img.png", false},
		{"dir with space/img.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := isRelativePath(tt.path); got != tt.want {
				t.Errorf("isRelativePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestParseRender - Fragment round trip
// ---------------------------------------------------------------------------

func TestParseHTML_Fragment(t *testing.T) {
	t.Parallel()

	doc, isFragment, err := ParseHTML("<p>a</p><p>b</p>")
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	if !isFragment {
		t.Fatal("ParseHTML() isFragment = false, want true")
	}
	got, err := RenderHTML(doc, isFragment)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if got != "<p>a</p><p>b</p>" {
		t.Errorf("RenderHTML() = %q", got)
	}
}
