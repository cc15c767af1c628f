package diagram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultLoadTimeout bounds loading the diagram libraries when ctx has no deadline.
const DefaultLoadTimeout = 30 * time.Second

// ErrLibraryLoad is returned for every block when Mermaid or WaveDrom
// cannot be loaded in the browser (offline, CDN blocked).
var ErrLibraryLoad = errors.New("diagram libraries failed to load")

// PageOpener opens browser tabs. Implemented by *browser.Browser.
type PageOpener interface {
	Page(ctx context.Context, url string) (*rod.Page, error)
}

// BrowserRenderer renders diagrams in one headless browser tab loaded with
// Mermaid and WaveDrom.
type BrowserRenderer struct {
	pages   PageOpener
	timeout time.Duration
}

var _ Renderer = (*BrowserRenderer)(nil)

// NewBrowserRenderer returns a renderer using pages from opener.
func NewBrowserRenderer(opener PageOpener, timeout time.Duration) *BrowserRenderer {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return &BrowserRenderer{pages: opener, timeout: timeout}
}

const renderMermaidJS = `async (src, id) => {
  const { svg } = await window.mermaid.render(id, src);
  return svg;
}`

const renderWaveDromJS = `(src, idx) => {
  const obj = new Function('return (' + src + ')')();
  const out = document.createElement('div');
  out.id = 'wavedrom-out-' + idx;
  document.body.appendChild(out);
  WaveDrom.RenderWaveForm(idx, obj, 'wavedrom-out-');
  const svg = out.querySelector('svg');
  if (!svg) { throw new Error('WaveDrom produced no SVG'); }
  const markup = svg.outerHTML;
  out.remove();
  return markup;
}`

const showSVGJS = `(svg) => { document.getElementById('shot').innerHTML = svg; }`

const librariesReadyJS = `() => typeof window.mermaid !== 'undefined' && typeof window.WaveDrom !== 'undefined'`

// hostPage is the document the renderer evaluates diagrams in.
func hostPage(opts MermaidOptions) string {
	return `<!DOCTYPE html><html><head><meta charset="utf-8">` +
		wavedromScripts() + mermaidModule(opts, false) +
		`</head><body style="margin:0;background:#fff">` +
		`<div id="shot" style="display:inline-block;padding:8px;background:#fff"></div></body></html>`
}

// Render implements Renderer. A failure to start the browser or load the
// libraries is reported on every block.
func (r *BrowserRenderer) Render(ctx context.Context, blocks []Block, opts MermaidOptions, format Format) []Result {
	results := make([]Result, len(blocks))
	fail := func(err error) []Result {
		for i := range results {
			results[i] = Result{Err: err}
		}
		return results
	}

	page, err := r.pages.Page(ctx, "about:blank")
	if err != nil {
		return fail(err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return fail(context.DeadlineExceeded)
	}
	page = page.Timeout(timeout)

	if err := page.SetDocumentContent(hostPage(opts)); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrLibraryLoad, err))
	}
	if err := page.Wait(rod.Eval(librariesReadyJS)); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrLibraryLoad, err))
	}

	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Err: err}
			continue
		}
		results[i] = r.renderOne(page, b, format)
	}
	return results
}

func (r *BrowserRenderer) renderOne(page *rod.Page, b Block, format Format) Result {
	var eval *rod.EvalOptions
	switch b.Kind {
	case Mermaid:
		eval = rod.Eval(renderMermaidJS, b.Source, fmt.Sprintf("mxe-mermaid-%d", b.Index)).ByPromise()
	case WaveDrom:
		eval = rod.Eval(renderWaveDromJS, b.Source, b.Index)
	default:
		return Result{Err: ErrUnsupported}
	}

	res, err := page.Evaluate(eval)
	if err != nil {
		return Result{Err: err}
	}
	svg := res.Value.Str()
	if format == SVG {
		return Result{Data: []byte(svg)}
	}

	if _, err := page.Evaluate(rod.Eval(showSVGJS, svg)); err != nil {
		return Result{Err: err}
	}
	el, err := page.Element("#shot")
	if err != nil {
		return Result{Err: err}
	}
	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Data: png}
}
