package main

// Notes:
// - Conversions run against fakePool/fakeConverter; the real converter is
//   covered by the root package tests.
// - run() is driven with argument slices as a user would type them, so
//   config, env and flag precedence are checked together.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/config"
	"github.com/alnah/go-mxe/internal/diagram"
)

// ---------------------------------------------------------------------------
// TestBatchRun - Concurrent conversion over the pool
// ---------------------------------------------------------------------------

func TestBatchRun_WritesOutputs(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.md": "alpha", "b.md": "beta", "c.md": "gamma"})
	jobs, err := discoverInputs([]string{root}, filepath.Join(root, "out"), mxe.FormatPDF)
	if err != nil {
		t.Fatalf("discoverInputs() error = %v", err)
	}

	b, pool, _ := newTestBatch(mxe.FormatPDF)
	results := b.run(context.Background(), jobs)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("results[%d].Err = %v", i, r.Err)
		}
		if r.InputPath != jobs[i].InputPath {
			t.Errorf("results[%d].InputPath = %q, want %q (order kept)", i, r.InputPath, jobs[i].InputPath)
		}
		data, err := os.ReadFile(r.OutputPath)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", r.OutputPath, err)
		}
		if !strings.HasPrefix(string(data), "%PDF-1.4") {
			t.Errorf("output %s = %q, want PDF bytes", r.OutputPath, data)
		}
	}

	if pool.conv.calls() != 3 {
		t.Errorf("Export calls = %d, want 3", pool.conv.calls())
	}
	if pool.acquired != pool.released {
		t.Errorf("acquired %d, released %d", pool.acquired, pool.released)
	}
}

func TestBatchRun_SetsSourceDir(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"docs/a.md": "![x](img.png)"})
	b, pool, _ := newTestBatch(mxe.FormatHTML)
	b.input = mxe.Input{CSS: "body{}"}

	path := filepath.Join(root, "docs", "a.md")
	results := b.run(context.Background(), []job{{InputPath: path, OutputPath: filepath.Join(root, "a.html")}})
	if results[0].Err != nil {
		t.Fatalf("Err = %v", results[0].Err)
	}

	in := pool.conv.lastInput()
	if in.SourceDir != filepath.Join(root, "docs") {
		t.Errorf("SourceDir = %q, want %q", in.SourceDir, filepath.Join(root, "docs"))
	}
	if in.CSS != "body{}" {
		t.Errorf("CSS = %q, want template CSS", in.CSS)
	}
}

func TestBatchRun_URLJob(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "example-post")
	out := filepath.Join(dir, "example-post.pdf")
	b, pool, dl := newTestBatch(mxe.FormatPDF)

	results := b.run(context.Background(), []job{{
		InputPath: "https://example.com/post", URL: true, ArticleDir: dir, OutputPath: out,
	}})
	if results[0].Err != nil {
		t.Fatalf("Err = %v", results[0].Err)
	}

	if len(dl.dirs) != 1 || dl.dirs[0] != dir {
		t.Errorf("download dirs = %v, want [%s]", dl.dirs, dir)
	}
	md, err := os.ReadFile(filepath.Join(dir, "example-post.md"))
	if err != nil {
		t.Fatalf("article markdown not saved: %v", err)
	}
	if !strings.Contains(string(md), "# Fetched") {
		t.Errorf("saved markdown = %q", md)
	}

	in := pool.conv.lastInput()
	if in.SourceDir != dir || in.Title != "Fetched" {
		t.Errorf("input SourceDir=%q Title=%q, want %q and %q", in.SourceDir, in.Title, dir, "Fetched")
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestBatchRun_Errors(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.md": "alpha"})
	good := job{InputPath: filepath.Join(root, "a.md"), OutputPath: filepath.Join(root, "a.pdf")}

	tests := []struct {
		name    string
		setup   func(b *batch, pool *fakePool, dl *fakeDownloader)
		job     job
		ctx     func() context.Context
		wantErr error
	}{
		{
			name:    "missing source",
			job:     job{InputPath: filepath.Join(root, "gone.md"), OutputPath: filepath.Join(root, "gone.pdf")},
			wantErr: ErrReadMarkdown,
		},
		{
			name:    "export failure",
			setup:   func(_ *batch, pool *fakePool, _ *fakeDownloader) { pool.conv.err = mxe.ErrPDFGeneration },
			job:     good,
			wantErr: mxe.ErrPDFGeneration,
		},
		{
			name:    "acquire failure",
			setup:   func(_ *batch, pool *fakePool, _ *fakeDownloader) { pool.acquireErr = mxe.ErrBrowserConnect },
			job:     good,
			wantErr: mxe.ErrBrowserConnect,
		},
		{
			name:    "download failure",
			setup:   func(_ *batch, _ *fakePool, dl *fakeDownloader) { dl.err = errFake },
			job:     job{InputPath: "https://example.com/x", URL: true, ArticleDir: filepath.Join(root, "x")},
			wantErr: errFake,
		},
		{
			name:    "unwritable output",
			job:     job{InputPath: good.InputPath, OutputPath: filepath.Join(root, "a.md", "nested.pdf")},
			wantErr: ErrWriteOutput,
		},
		{
			name: "cancelled",
			job:  good,
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, pool, dl := newTestBatch(mxe.FormatPDF)
			if tt.setup != nil {
				tt.setup(b, pool, dl)
			}
			ctx := context.Background()
			if tt.ctx != nil {
				ctx = tt.ctx()
			}

			results := b.run(ctx, []job{tt.job})
			if !errors.Is(results[0].Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", results[0].Err, tt.wantErr)
			}
		})
	}
}

func TestBatchRun_Empty(t *testing.T) {
	t.Parallel()

	b, _, _ := newTestBatch(mxe.FormatPDF)
	if got := b.run(context.Background(), nil); got != nil {
		t.Errorf("run(nil) = %v, want nil", got)
	}
}

// ---------------------------------------------------------------------------
// TestPrintResults - User-facing output
// ---------------------------------------------------------------------------

func TestPrintResults(t *testing.T) {
	t.Parallel()

	results := []ConversionResult{
		{InputPath: "a.md", OutputPath: "a.pdf"},
		{InputPath: "b.md", Err: errFake},
	}

	tests := []struct {
		name       string
		quiet      bool
		verbose    bool
		wantOut    []string
		notOut     []string
		wantFailed int
	}{
		{name: "normal", wantOut: []string{"Created a.pdf", "1 succeeded, 1 failed"}, wantFailed: 1},
		{name: "quiet", quiet: true, notOut: []string{"Created", "succeeded"}, wantFailed: 1},
		{name: "verbose", verbose: true, wantOut: []string{"a.md -> a.pdf"}, wantFailed: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			failed := printResults(results, tt.quiet, tt.verbose, h.env)
			if failed != tt.wantFailed {
				t.Errorf("failed = %d, want %d", failed, tt.wantFailed)
			}
			for _, s := range tt.wantOut {
				if !strings.Contains(h.stdout.String(), s) {
					t.Errorf("stdout missing %q:\n%s", s, h.stdout)
				}
			}
			for _, s := range tt.notOut {
				if strings.Contains(h.stdout.String(), s) {
					t.Errorf("stdout contains %q:\n%s", s, h.stdout)
				}
			}
			if !strings.Contains(h.stderr.String(), "FAILED b.md") {
				t.Errorf("stderr = %q, want FAILED line", h.stderr)
			}
		})
	}
}

func TestPrintResults_TerminalAndClipboard(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	printResults([]ConversionResult{
		{InputPath: "a.md", Text: []byte("TERM a\n")},
		{InputPath: "b.md", Text: []byte("TERM b\n")},
	}, true, false, h.env)
	if got := h.stdout.String(); got != "TERM a\nTERM b\n" {
		t.Errorf("terminal stdout = %q, want renderings in order even when quiet", got)
	}

	h = newHarness(t)
	printResults([]ConversionResult{{InputPath: "a.md"}}, false, false, h.env)
	if !strings.Contains(h.stdout.String(), "Copied a.md to clipboard") {
		t.Errorf("clipboard stdout = %q", h.stdout)
	}
}

// ---------------------------------------------------------------------------
// TestBuildInputTemplate / TestConverterOptions - Config to library types
// ---------------------------------------------------------------------------

func TestBuildInputTemplate(t *testing.T) {
	t.Parallel()

	off := false
	cfg := &config.Config{
		Fonts: config.FontsConfig{Body: "inter", Code: "fira-code"},
		TOC:   config.TOCConfig{Enabled: true, Title: "Contents", MinDepth: 2, MaxDepth: 4},
		Page:  config.PageConfig{Size: "letter", Orientation: "landscape", Margin: 1, PageNumbers: &off},
		Diagrams: config.DiagramsConfig{
			Mode:    "script",
			Mermaid: config.MermaidConfig{Theme: "dark", HandDraw: true, Layout: "elk"},
		},
	}

	in, err := buildInputTemplate(&convertFlags{}, cfg)
	if err != nil {
		t.Fatalf("buildInputTemplate() error = %v", err)
	}

	if in.TOC == nil || in.TOC.Title != "Contents" || in.TOC.MinDepth != 2 || in.TOC.MaxDepth != 4 {
		t.Errorf("TOC = %+v", in.TOC)
	}
	if in.Fonts == nil || in.Fonts.Body != "inter" || in.Fonts.Code != "fira-code" {
		t.Errorf("Fonts = %+v", in.Fonts)
	}
	if in.Page.Size != "letter" || in.Page.Orientation != "landscape" || in.Page.Margin != 1 || *in.Page.PageNumbers {
		t.Errorf("Page = %+v", in.Page)
	}
	want := mxe.Diagrams{Mode: diagram.ModeScript, Theme: "dark", HandDraw: true, Layout: "elk"}
	if *in.Diagrams != want {
		t.Errorf("Diagrams = %+v, want %+v", *in.Diagrams, want)
	}
}

func TestBuildInputTemplate_Defaults(t *testing.T) {
	t.Parallel()

	in, err := buildInputTemplate(&convertFlags{}, config.DefaultConfig())
	if err != nil {
		t.Fatalf("buildInputTemplate() error = %v", err)
	}
	if in.TOC != nil {
		t.Errorf("TOC = %+v, want nil when disabled", in.TOC)
	}
	if in.Fonts != nil {
		t.Errorf("Fonts = %+v, want nil when unset", in.Fonts)
	}
	if err := in.Page.Validate(); err != nil {
		t.Errorf("default Page.Validate() = %v", err)
	}
}

func TestBuildInputTemplate_CSSFile(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"extra.css": "h1 { color: red; }"})

	in, err := buildInputTemplate(&convertFlags{css: filepath.Join(root, "extra.css")}, config.DefaultConfig())
	if err != nil {
		t.Fatalf("buildInputTemplate() error = %v", err)
	}
	if in.CSS != "h1 { color: red; }" {
		t.Errorf("CSS = %q", in.CSS)
	}

	_, err = buildInputTemplate(&convertFlags{css: filepath.Join(root, "missing.css")}, config.DefaultConfig())
	if !errors.Is(err, ErrReadCSS) {
		t.Errorf("missing css error = %v, want ErrReadCSS", err)
	}
}

func TestConverterOptions(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Style: "minimal", AssetPath: "assets", Timeout: "45s"}
	opts, err := converterOptions(cfg, nil)
	if err != nil {
		t.Fatalf("converterOptions() error = %v", err)
	}
	// logger, mermaid cli, style, asset path, timeout
	if len(opts) != 5 {
		t.Errorf("len(opts) = %d, want 5", len(opts))
	}

	_, err = converterOptions(&config.Config{Timeout: "soon"}, nil)
	if !errors.Is(err, config.ErrInvalidValue) {
		t.Errorf("bad timeout error = %v, want ErrInvalidValue", err)
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, mxe.MaxPoolSize} {
		if err := validateWorkers(n); err != nil {
			t.Errorf("validateWorkers(%d) = %v, want nil", n, err)
		}
	}
	for _, n := range []int{-1, mxe.MaxPoolSize + 1} {
		if err := validateWorkers(n); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert - End to end through run()
// ---------------------------------------------------------------------------

func TestRunConvert_ImplicitCommand(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"doc.md": "# Doc"})
	h := newHarness(t)

	code := run(context.Background(), []string{filepath.Join(root, "doc.md"), "-f", "docx"}, h.env)
	if code != ExitSuccess {
		t.Fatalf("exit = %d, stderr = %s", code, h.stderr)
	}
	if _, err := os.Stat(filepath.Join(root, "doc.docx")); err != nil {
		t.Errorf("doc.docx not written: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "Created") {
		t.Errorf("stdout = %q, want Created line", h.stdout)
	}
	if !h.pool.closed {
		t.Error("pool not closed after run")
	}
}

func TestRunConvert_Precedence(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"doc.md":   "# Doc",
		"cfg.yaml": "format: html\noutput: from-config\ntoc:\n  enabled: true\n  title: Config TOC\n",
	})
	h := newHarness(t)
	h.vars["MXE_CONFIG"] = filepath.Join(root, "cfg.yaml")
	h.vars["MXE_OUTPUT_DIR"] = filepath.Join(root, "from-env")

	code := run(context.Background(), []string{
		"convert", filepath.Join(root, "doc.md"), "--toc-title", "Flag TOC",
	}, h.env)
	if code != ExitSuccess {
		t.Fatalf("exit = %d, stderr = %s", code, h.stderr)
	}

	// format from config, output from env, TOC title from flag
	if _, err := os.Stat(filepath.Join(root, "from-env", "doc.html")); err != nil {
		t.Errorf("output not at env dir: %v", err)
	}
	if got := h.pool.conv.lastInput().TOC; got == nil || got.Title != "Flag TOC" {
		t.Errorf("TOC = %+v, want flag title", got)
	}
	if got := h.pool.conv.formats[0]; got != mxe.FormatHTML {
		t.Errorf("format = %q, want html", got)
	}
}

func TestRunConvert_Terminal(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.md": "alpha", "b.md": "beta"})
	h := newHarness(t)

	code := run(context.Background(), []string{root, "--format", "terminal"}, h.env)
	if code != ExitSuccess {
		t.Fatalf("exit = %d, stderr = %s", code, h.stderr)
	}
	if got := h.stdout.String(); got != "TERM alpha\nTERM beta\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRunConvert_Errors(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.md": "alpha", "b.md": "beta", "bad.yaml": "format: [\n"})

	tests := []struct {
		name     string
		args     []string
		vars     map[string]string
		wantCode int
		wantErr  string
	}{
		{name: "no input", args: []string{"convert"}, wantCode: ExitIO, wantErr: "no input"},
		{name: "bad flag", args: []string{"convert", "--nope"}, wantCode: ExitUsage},
		{name: "bad format", args: []string{root, "-f", "rtf"}, wantCode: ExitUsage, wantErr: "rtf"},
		{name: "bad workers", args: []string{root, "-w", "99"}, wantCode: ExitUsage},
		{name: "clipboard needs one input", args: []string{root, "-f", "clipboard"}, wantCode: ExitClipboard},
		{name: "missing input", args: []string{filepath.Join(root, "zzz.md")}, wantCode: ExitIO},
		{name: "empty directory", args: []string{t.TempDir()}, wantCode: ExitIO, wantErr: "no markdown files"},
		{
			name: "config not found", args: []string{root, "-c", "does-not-exist-anywhere"},
			wantCode: ExitUsage, wantErr: "hint:",
		},
		{name: "config parse error", args: []string{root, "-c", filepath.Join(root, "bad.yaml")}, wantCode: ExitUsage},
		{name: "bad env format", args: []string{root}, vars: map[string]string{"MXE_FORMAT": "odt"}, wantCode: ExitUsage},
		{name: "unknown font", args: []string{root, "--font", "comic"}, wantCode: ExitUsage},
		{name: "bad toc depth", args: []string{root, "--toc-min-depth", "5", "--toc-max-depth", "2"}, wantCode: ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			for k, v := range tt.vars {
				h.vars[k] = v
			}
			code := run(context.Background(), tt.args, h.env)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d; stderr = %s", code, tt.wantCode, h.stderr)
			}
			if tt.wantErr != "" && !strings.Contains(h.stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", h.stderr, tt.wantErr)
			}
		})
	}
}

func TestRunConvert_FailureWrapsFirstError(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.md": "alpha"})
	h := newHarness(t)
	h.pool.conv.err = mxe.ErrBrowserConnect

	code := run(context.Background(), []string{root}, h.env)
	if code != ExitBrowser {
		t.Errorf("exit = %d, want %d", code, ExitBrowser)
	}
	if !strings.Contains(h.stderr.String(), "1 conversion(s) failed") {
		t.Errorf("stderr = %q", h.stderr)
	}
}

func TestRunConvert_UnknownEnvWarning(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.md": "alpha"})
	h := newHarness(t)
	h.vars["MXE_FROMAT"] = "pdf"

	if code := run(context.Background(), []string{root}, h.env); code != ExitSuccess {
		t.Fatalf("exit = %d, stderr = %s", code, h.stderr)
	}
	if !strings.Contains(h.stderr.String(), "MXE_FROMAT") {
		t.Errorf("stderr = %q, want unknown variable warning", h.stderr)
	}
}
