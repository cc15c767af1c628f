package diagram

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"html"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"go.uber.org/zap"
)

// CDN locations of the client libraries.
const (
	mermaidESM     = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs"
	mermaidELK     = "https://cdn.jsdelivr.net/npm/@mermaid-js/layout-elk@0/dist/mermaid-layout-elk.esm.min.mjs"
	wavedromSkin   = "https://cdnjs.cloudflare.com/ajax/libs/wavedrom/3.5.0/skins/default.js"
	wavedromScript = "https://cdnjs.cloudflare.com/ajax/libs/wavedrom/3.5.0/wavedrom.min.js"
)

// CSS lays out rendered and client-side diagrams.
const CSS = `
/* Diagrams */
.diagram {
  display: flex;
  justify-content: center;
  margin: 1.5em 0;
  break-inside: avoid;
  page-break-inside: avoid;
  overflow-x: auto;
}
.diagram svg, .diagram img {
  max-width: 100%;
  height: auto;
}
pre.mermaid {
  background: none;
  border: none;
  text-align: center;
}
`

// Format is the encoding requested from a renderer.
type Format int

// Render formats.
const (
	SVG Format = iota
	PNG
)

// Result is the outcome of rendering one block.
type Result struct {
	Data []byte // SVG markup or PNG bytes
	Err  error
}

// Renderer renders a batch of blocks. The returned slice is parallel to blocks.
type Renderer interface {
	Render(ctx context.Context, blocks []Block, opts MermaidOptions, format Format) []Result
}

// Processor expands placeholders according to the diagram mode.
type Processor struct {
	browser    Renderer // all kinds
	mermaidCLI Renderer // optional, Mermaid only
	logger     *zap.Logger
}

// NewProcessor returns a Processor. mermaidCLI may be nil; when set it
// renders Mermaid blocks and browser renders the rest.
func NewProcessor(browser, mermaidCLI Renderer, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{browser: browser, mermaidCLI: mermaidCLI, logger: logger}
}

// Options selects what Substitute emits.
type Options struct {
	Mode    Mode
	Mermaid MermaidOptions
	Format  Format // for ModeRender: inline SVG or PNG images
}

// Substitute replaces placeholders in htmlContent. Blocks that fail to
// render keep their source as a highlighted code block and log a warning.
// In ModeScript the client libraries are returned as head markup, to be
// injected by the caller.
func (p *Processor) Substitute(ctx context.Context, htmlContent string, blocks []Block, opts Options) (body, head string) {
	if len(blocks) == 0 {
		return htmlContent, ""
	}

	replacements := make(map[int]string, len(blocks))
	switch opts.Mode {
	case ModeScript:
		for _, b := range blocks {
			replacements[b.Index] = scriptMarkup(b)
		}
		head = HeadScripts(blocks, opts.Mermaid)
	case ModeOff:
		for _, b := range blocks {
			replacements[b.Index] = CodeBlock(b)
		}
	default:
		for i, r := range p.render(ctx, blocks, opts) {
			b := blocks[i]
			if r.Err != nil {
				p.logger.Warn("diagram render failed, keeping source",
					zap.String("kind", string(b.Kind)), zap.Int("index", b.Index), zap.Error(r.Err))
				replacements[b.Index] = CodeBlock(b)
				continue
			}
			replacements[b.Index] = renderedMarkup(b, r.Data, opts.Format)
		}
	}

	body = placeholderPattern.ReplaceAllStringFunc(htmlContent, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		idx, _ := strconv.Atoi(sub[1])
		if r, ok := replacements[idx]; ok {
			return r
		}
		return m
	})
	return body, head
}

// render dispatches blocks to the configured renderers and returns results
// parallel to blocks.
func (p *Processor) render(ctx context.Context, blocks []Block, opts Options) []Result {
	results := make([]Result, len(blocks))

	var viaCLI, viaBrowser []int
	for i, b := range blocks {
		if p.mermaidCLI != nil && b.Kind == Mermaid {
			viaCLI = append(viaCLI, i)
		} else {
			viaBrowser = append(viaBrowser, i)
		}
	}

	run := func(r Renderer, idx []int) {
		if len(idx) == 0 {
			return
		}
		batch := make([]Block, len(idx))
		for j, i := range idx {
			batch[j] = blocks[i]
		}
		if r == nil {
			for _, i := range idx {
				results[i] = Result{Err: ErrUnsupported}
			}
			return
		}
		p.logger.Debug("rendering diagrams", zap.Int("count", len(batch)))
		out := r.Render(ctx, batch, opts.Mermaid, opts.Format)
		for j, i := range idx {
			if j < len(out) {
				results[i] = out[j]
			} else {
				results[i] = Result{Err: ErrUnsupported}
			}
		}
	}

	run(p.mermaidCLI, viaCLI)
	run(p.browser, viaBrowser)
	return results
}

func renderedMarkup(b Block, data []byte, format Format) string {
	var inner string
	if format == PNG {
		inner = `<img src="data:image/png;base64,` + base64.StdEncoding.EncodeToString(data) +
			`" alt="` + string(b.Kind) + ` diagram ` + strconv.Itoa(b.Index+1) + `"/>`
	} else {
		inner = string(data)
	}
	return `<div class="diagram diagram-` + string(b.Kind) + `">` + inner + `</div>`
}

func scriptMarkup(b Block) string {
	if b.Kind == WaveDrom {
		return `<div class="diagram diagram-wavedrom"><script type="WaveDrom">` +
			strings.ReplaceAll(b.Source, "</", `<\/`) + `</script></div>`
	}
	return `<div class="diagram diagram-mermaid"><pre class="mermaid">` + html.EscapeString(b.Source) + `</pre></div>`
}

// CodeBlock renders a block's source as a chroma-highlighted code block,
// matching what goldmark emits for ordinary fences.
func CodeBlock(b Block) string {
	lexer := lexers.Get(string(b.Kind))
	if lexer == nil && b.Kind == WaveDrom {
		lexer = lexers.Get("json")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	fallback := `<pre><code class="language-` + string(b.Kind) + `">` + html.EscapeString(b.Source) + `</code></pre>`
	it, err := lexer.Tokenise(nil, b.Source)
	if err != nil {
		return fallback
	}
	var buf strings.Builder
	if err := chromahtml.New(chromahtml.WithClasses(true)).Format(&buf, styles.Get("github"), it); err != nil {
		return fallback
	}
	return buf.String()
}

// mermaidConfig is passed to mermaid.initialize.
func mermaidConfig(opts MermaidOptions, startOnLoad bool) string {
	cfg := map[string]any{
		"startOnLoad":   startOnLoad,
		"theme":         opts.theme(),
		"securityLevel": "strict",
	}
	if opts.HandDraw {
		cfg["look"] = "handDrawn"
		cfg["handDrawnSeed"] = 42
	}
	if strings.EqualFold(opts.Layout, "elk") {
		cfg["layout"] = "elk"
	}
	data, _ := json.Marshal(cfg)
	return string(data)
}

// mermaidModule loads Mermaid (and ELK when requested) as an ES module and
// exposes it on window.
func mermaidModule(opts MermaidOptions, startOnLoad bool) string {
	var b strings.Builder
	b.WriteString(`<script type="module">import mermaid from '` + mermaidESM + `';`)
	if strings.EqualFold(opts.Layout, "elk") {
		b.WriteString(`import elkLayouts from '` + mermaidELK + `';mermaid.registerLayoutLoaders(elkLayouts);`)
	}
	b.WriteString(`mermaid.initialize(` + mermaidConfig(opts, startOnLoad) + `);window.mermaid = mermaid;</script>`)
	return b.String()
}

func wavedromScripts() string {
	return `<script src="` + wavedromSkin + `"></script><script src="` + wavedromScript + `"></script>`
}

// HeadScripts returns the client-side loaders needed by blocks.
func HeadScripts(blocks []Block, opts MermaidOptions) string {
	var hasMermaid, hasWaveDrom bool
	for _, b := range blocks {
		switch b.Kind {
		case Mermaid:
			hasMermaid = true
		case WaveDrom:
			hasWaveDrom = true
		}
	}

	var b strings.Builder
	if hasMermaid {
		b.WriteString(mermaidModule(opts, true))
	}
	if hasWaveDrom {
		b.WriteString(wavedromScripts())
		b.WriteString(`<script>window.addEventListener('load',function(){if(typeof WaveDrom!=='undefined'){WaveDrom.ProcessAll();}});</script>`)
	}
	return b.String()
}
