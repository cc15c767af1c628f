package mxe

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/alnah/go-mxe/internal/assets"
	"github.com/alnah/go-mxe/internal/browser"
	"github.com/alnah/go-mxe/internal/diagram"
	"github.com/alnah/go-mxe/internal/docx"
	"github.com/alnah/go-mxe/internal/fileutil"
	"github.com/alnah/go-mxe/internal/fonts"
	"github.com/alnah/go-mxe/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.CSSInjector          = (*pipeline.CSSInjection)(nil)
	_ pipeline.TOCInjector          = (*pipeline.TOCInjection)(nil)
	_ diagram.PageOpener            = (*browser.Browser)(nil)
	_ clipboardWriter               = systemClipboard{}
)

// Converter orchestrates the Markdown export pipeline.
// Create with NewConverter, call Export (or a To* method), and Close when done.
// A Converter is safe for sequential use; use ConverterPool for parallelism.
type Converter struct {
	cfg          converterConfig
	logger       *zap.Logger
	assetLoader  assets.AssetLoader
	preprocessor pipeline.MarkdownPreprocessor
	htmlConv     pipeline.HTMLConverter
	cssInjector  pipeline.CSSInjector
	tocInjector  pipeline.TOCInjector

	browser         *browser.Browser
	diagramRenderer diagram.Renderer
	diagrams        *diagram.Processor
	pdf             pdfRenderer
	clipboard       clipboardWriter

	mu     sync.Mutex
	closed bool
}

// NewConverter creates a Converter. Chrome is started lazily, on the
// first export that needs it.
// Returns an error if the asset path or style cannot be resolved.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:          converterConfig{timeout: defaultTimeout},
		logger:       zap.NewNop(),
		preprocessor: &pipeline.CommonMarkPreprocessor{},
		htmlConv:     pipeline.NewGoldmarkConverter(),
		cssInjector:  &pipeline.CSSInjection{},
		tocInjector:  pipeline.NewTOCInjection(),
		clipboard:    systemClipboard{},
	}

	for _, opt := range opts {
		opt(c)
	}

	resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	c.assetLoader = resolver
	if resolver.HasCustomLoader() {
		c.logger.Debug("using custom styles", zap.String("assetPath", c.cfg.assetPath))
	}

	if err := c.resolveStyle(); err != nil {
		return nil, err
	}

	c.browser = browser.New(browser.WithLogger(c.logger))
	if c.diagramRenderer == nil {
		c.diagramRenderer = diagram.NewBrowserRenderer(c.browser, c.cfg.timeout)
	}
	if c.pdf == nil {
		c.pdf = newRodPDF(c.browser, c.cfg.timeout)
	}

	var cli diagram.Renderer
	if c.cfg.mermaidCLI {
		if path := diagram.LookupMermaidCLI(); path != "" {
			cli = diagram.NewCLIRenderer(path, diagram.ExecRunner{})
		} else {
			c.logger.Warn("mmdc not found on PATH, rendering Mermaid in the browser")
		}
	}
	c.diagrams = diagram.NewProcessor(c.diagramRenderer, cli, c.logger)

	return c, nil
}

// Export runs the pipeline and returns the output for format.
// The context is used for cancellation; without a deadline the converter
// timeout applies. Internal panics are recovered into errors.
func (c *Converter) Export(ctx context.Context, input Input, format Format) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if c.isClosed() {
		return nil, ErrConverterClosed
	}
	if err := c.validateInput(input, format); err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	markdown := c.preprocessor.PreprocessMarkdown(ctx, input.Markdown)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if format == FormatTerminal {
		text, err := renderTerminal(pipeline.RestoreHighlightSyntax(markdown))
		if err != nil {
			return nil, err
		}
		return &Result{Format: format, Text: text}, nil
	}

	htmlContent, err := c.buildHTML(ctx, input, format, markdown)
	if err != nil {
		return nil, err
	}

	res := &Result{Format: format, HTML: []byte(htmlContent)}
	switch format {
	case FormatPDF:
		res.PDF, err = c.pdf.Render(ctx, htmlContent, input.Page.resolved())
		if err != nil {
			return nil, fmt.Errorf("converting to PDF: %w", err)
		}
	case FormatDOCX:
		res.DOCX, err = docx.Convert(ctx, htmlContent, c.docxOptions(input, htmlContent))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDOCXGeneration, err)
		}
	case FormatClipboard:
		if err := writeClipboard(c.clipboard, htmlContent); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// buildHTML turns preprocessed Markdown into the final HTML document.
func (c *Converter) buildHTML(ctx context.Context, input Input, format Format, markdown string) (string, error) {
	markdown, blocks := diagram.Extract(markdown)

	htmlContent, err := c.htmlConv.ToHTML(ctx, markdown, input.Title)
	if err != nil {
		return "", fmt.Errorf("converting to HTML: %w", err)
	}

	// Completes the ==text== feature started in preprocessing.
	htmlContent = pipeline.ConvertMarkPlaceholders(htmlContent)

	if len(blocks) > 0 {
		opts := c.diagramOptions(input.Diagrams, format)
		c.logger.Debug("substituting diagrams", zap.Int("count", len(blocks)), zap.String("mode", string(opts.Mode)))
		var head string
		htmlContent, head = c.diagrams.Substitute(ctx, htmlContent, blocks, opts)
		if head != "" {
			htmlContent = pipeline.InjectHead(htmlContent, head)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	htmlContent, err = pipeline.InlineResources(ctx, htmlContent, pipeline.ResourceOptions{
		SourceDir: input.SourceDir,
		FileLinks: format == FormatPDF,
		Logger:    c.logger,
	})
	if err != nil {
		return "", fmt.Errorf("inlining resources: %w", err)
	}

	css, err := buildCSS(cssParts{
		base:     c.cfg.resolvedStyle,
		fonts:    input.Fonts,
		toc:      input.TOC != nil,
		diagrams: len(blocks) > 0,
		user:     input.CSS,
	})
	if err != nil {
		return "", err
	}
	htmlContent = c.cssInjector.InjectCSS(ctx, htmlContent, css)

	htmlContent, err = c.tocInjector.InjectTOC(ctx, htmlContent, toTOCData(input.TOC))
	if err != nil {
		return "", fmt.Errorf("injecting TOC: %w", err)
	}
	return htmlContent, ctx.Err()
}

// diagramOptions resolves the diagram settings for one export. Script mode
// needs a browser reading the HTML, so other formats render server-side.
func (c *Converter) diagramOptions(d *Diagrams, format Format) diagram.Options {
	var opts diagram.Options
	if d != nil {
		opts.Mode, _ = diagram.ParseMode(string(d.Mode))
		opts.Mermaid = d.mermaid()
	} else {
		opts.Mode = diagram.ModeRender
	}
	if opts.Mode == diagram.ModeScript && format != FormatHTML {
		c.logger.Debug("script diagrams need HTML output, rendering instead", zap.String("format", string(format)))
		opts.Mode = diagram.ModeRender
	}
	opts.Format = diagram.SVG
	if format == FormatDOCX {
		opts.Format = diagram.PNG
	}
	return opts
}

func (c *Converter) docxOptions(input Input, htmlContent string) docx.Options {
	opts := docx.Options{
		Title:   input.Title,
		BaseDir: input.SourceDir,
		Logger:  c.logger,
	}
	if opts.Title == "" {
		opts.Title = pipeline.FirstHeading(htmlContent)
	}
	if input.Fonts != nil {
		if f, err := fonts.Lookup(input.Fonts.Body); err == nil {
			opts.BodyFont = f.Name
		}
		if f, err := fonts.Lookup(input.Fonts.Code); err == nil {
			opts.CodeFont = f.Name
		}
	}
	return opts
}

// ToHTML exports input as a standalone HTML document.
func (c *Converter) ToHTML(ctx context.Context, input Input) ([]byte, error) {
	res, err := c.Export(ctx, input, FormatHTML)
	if err != nil {
		return nil, err
	}
	return res.HTML, nil
}

// ToPDF exports input as PDF.
func (c *Converter) ToPDF(ctx context.Context, input Input) ([]byte, error) {
	res, err := c.Export(ctx, input, FormatPDF)
	if err != nil {
		return nil, err
	}
	return res.PDF, nil
}

// ToDOCX exports input as a Word document.
func (c *Converter) ToDOCX(ctx context.Context, input Input) ([]byte, error) {
	res, err := c.Export(ctx, input, FormatDOCX)
	if err != nil {
		return nil, err
	}
	return res.DOCX, nil
}

// ToClipboard copies the HTML rendering of input to the system clipboard.
func (c *Converter) ToClipboard(ctx context.Context, input Input) error {
	_, err := c.Export(ctx, input, FormatClipboard)
	return err
}

// ToTerminal renders input for display in a terminal.
func (c *Converter) ToTerminal(ctx context.Context, input Input) ([]byte, error) {
	res, err := c.Export(ctx, input, FormatTerminal)
	if err != nil {
		return nil, err
	}
	return res.Text, nil
}

// Close releases the headless browser. Safe to call more than once.
func (c *Converter) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.browser != nil {
		return c.browser.Close()
	}
	return nil
}

func (c *Converter) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Styles returns the style names available to WithStyle.
func (c *Converter) Styles() ([]string, error) {
	return c.assetLoader.ListStyles()
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS
// content. An empty input selects the embedded default style.
func (c *Converter) resolveStyle() error {
	input := c.cfg.styleInput
	if input == "" {
		input = assets.DefaultStyleName
	}

	// File path? (contains / or \)
	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		c.cfg.resolvedStyle = string(content)
		return nil
	}

	// CSS content? (contains {)
	if fileutil.IsCSS(input) {
		c.cfg.resolvedStyle = input
		return nil
	}

	css, err := c.assetLoader.LoadStyle(input)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", input, err)
	}
	c.cfg.resolvedStyle = css
	return nil
}

// validateInput checks that required fields are present and valid.
//
// This is a TRUST BOUNDARY for direct library users who build Input manually.
// CLI users have their input validated earlier by Config.Validate() at config load time.
// Both paths converge here, ensuring all inputs are validated before processing.
func (c *Converter) validateInput(input Input, format Format) error {
	if _, err := ParseFormat(string(format)); err != nil {
		return err
	}
	if input.Markdown == "" {
		return ErrEmptyMarkdown
	}
	if err := input.Page.Validate(); err != nil {
		return err
	}
	if err := input.TOC.Validate(); err != nil {
		return err
	}
	if err := input.Fonts.Validate(); err != nil {
		return err
	}
	return input.Diagrams.Validate()
}

// toTOCData converts the public TOC type to internal pipeline.TOCData.
func toTOCData(t *TOC) *pipeline.TOCData {
	if t == nil {
		return nil
	}
	minDepth, maxDepth := t.depths()
	return &pipeline.TOCData{
		Title:    t.Title,
		MinDepth: minDepth,
		MaxDepth: maxDepth,
	}
}
