package main

// Notes:
// - Shared fakes for the CLI tests: a Converter that records inputs, a Pool
//   over it, and a Downloader that writes nothing.
// - testEnv wires them into an Environment with buffered Stdout/Stderr so
//   run() can be exercised end to end without a browser.

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/download"
)

// ---------------------------------------------------------------------------
// fakeConverter - Records exports and returns canned output
// ---------------------------------------------------------------------------

type fakeConverter struct {
	mu      sync.Mutex
	inputs  []mxe.Input
	formats []mxe.Format
	err     error
}

func (f *fakeConverter) Export(_ context.Context, in mxe.Input, format mxe.Format) (*mxe.Result, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.formats = append(f.formats, format)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	res := &mxe.Result{Format: format, HTML: []byte("<p>" + in.Markdown + "</p>")}
	switch format {
	case mxe.FormatPDF:
		res.PDF = []byte("%PDF-1.4 " + in.Markdown)
	case mxe.FormatDOCX:
		res.DOCX = []byte("PK " + in.Markdown)
	case mxe.FormatTerminal:
		res.HTML = nil
		res.Text = []byte("TERM " + strings.TrimSpace(in.Markdown) + "\n")
	}
	return res, nil
}

func (f *fakeConverter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeConverter) lastInput() mxe.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

// ---------------------------------------------------------------------------
// fakePool - Hands out one shared fakeConverter
// ---------------------------------------------------------------------------

type fakePool struct {
	conv       *fakeConverter
	size       int
	acquireErr error

	mu       sync.Mutex
	acquired int
	released int
	closed   bool
	opts     []mxe.Option
}

func (p *fakePool) Acquire() (Converter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return p.conv, nil
}

func (p *fakePool) Release(Converter) {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
}

func (p *fakePool) Size() int { return p.size }

func (p *fakePool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// fakeDownloader - Returns a fixed article
// ---------------------------------------------------------------------------

type fakeDownloader struct {
	article *download.Article
	err     error

	mu   sync.Mutex
	dirs []string
}

func (d *fakeDownloader) Download(_ context.Context, rawURL, dir string) (*download.Article, error) {
	d.mu.Lock()
	d.dirs = append(d.dirs, dir)
	d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	a := *d.article
	a.URL = rawURL
	return &a, nil
}

var errFake = errors.New("fake failure")

// ---------------------------------------------------------------------------
// testEnv - Environment with buffers and fakes
// ---------------------------------------------------------------------------

type testHarness struct {
	env        *Environment
	stdout     *bytes.Buffer
	stderr     *bytes.Buffer
	pool       *fakePool
	downloader *fakeDownloader
	vars       map[string]string
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		pool:   &fakePool{conv: &fakeConverter{}, size: 2},
		downloader: &fakeDownloader{article: &download.Article{
			Title:    "Fetched",
			Markdown: "# Fetched\n\nbody\n",
		}},
		vars: map[string]string{},
	}
	h.env = &Environment{
		Now:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		Stdout: h.stdout,
		Stderr: h.stderr,
		Getenv: func(k string) string { return h.vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(h.vars))
			for k, v := range h.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		NewPool: func(size int, opts ...mxe.Option) Pool {
			h.pool.mu.Lock()
			h.pool.opts = opts
			h.pool.mu.Unlock()
			return h.pool
		},
		NewDownloader: func(*zap.Logger) Downloader { return h.downloader },
	}
	return h
}

// newTestBatch returns a batch over a fake pool for direct tests.
func newTestBatch(format mxe.Format) (*batch, *fakePool, *fakeDownloader) {
	pool := &fakePool{conv: &fakeConverter{}, size: 2}
	dl := &fakeDownloader{article: &download.Article{Title: "Fetched", Markdown: "# Fetched\n"}}
	return &batch{
		pool:       pool,
		format:     format,
		downloader: dl,
		logger:     zap.NewNop(),
	}, pool, dl
}
