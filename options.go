package mxe

import (
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mxe/internal/diagram"
)

// defaultTimeout bounds one Export when the caller's context has no deadline.
const defaultTimeout = 30 * time.Second

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds settings collected from options.
type converterConfig struct {
	timeout       time.Duration
	styleInput    string // name, file path, or CSS content
	resolvedStyle string
	assetPath     string
	mermaidCLI    bool
}

// WithTimeout sets the per-export timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mxe: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithStyle sets the base stylesheet. The value is a style name served by
// the asset loader, a path to a CSS file (contains / or \), or CSS content
// (contains {).
func WithStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.styleInput = style
	}
}

// WithAssetPath adds a directory whose styles/<name>.css files take
// precedence over the embedded styles.
func WithAssetPath(dir string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = dir
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMermaidCLI renders Mermaid diagrams with the mmdc command when it is
// on PATH. Without mmdc the browser renderer is used.
func WithMermaidCLI(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.mermaidCLI = enabled
	}
}

// withPDFRenderer replaces the headless Chrome PDF backend.
func withPDFRenderer(r pdfRenderer) Option {
	return func(c *Converter) {
		c.pdf = r
	}
}

// withDiagramRenderer replaces the browser diagram renderer.
func withDiagramRenderer(r diagram.Renderer) Option {
	return func(c *Converter) {
		c.diagramRenderer = r
	}
}

// withClipboard replaces the system clipboard writer.
func withClipboard(cb clipboardWriter) Option {
	return func(c *Converter) {
		c.clipboard = cb
	}
}
