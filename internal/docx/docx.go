// Package docx converts the generated HTML document into an Office Open
// XML (.docx) package. It walks the parsed HTML body and maps elements to
// WordprocessingML paragraphs, runs and tables; no office suite is involved.
package docx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sentinel errors for DOCX generation.
var (
	ErrParseHTML = errors.New("failed to parse HTML for DOCX")
	ErrWrite     = errors.New("failed to write DOCX package")
)

// Font defaults.
const (
	DefaultBodyFont = "Lato"
	DefaultCodeFont = "Consolas"
)

// Options configures Convert.
type Options struct {
	Title    string // core properties title
	BodyFont string // font family name for Normal text
	CodeFont string // font family name for code
	BaseDir  string // base for relative image paths
	Created  time.Time
	Logger   *zap.Logger
}

func (o *Options) defaults() {
	if o.BodyFont == "" {
		o.BodyFont = DefaultBodyFont
	}
	if o.CodeFont == "" {
		o.CodeFont = DefaultCodeFont
	}
	if o.Created.IsZero() {
		o.Created = time.Now().UTC()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Convert renders htmlContent as a DOCX package.
func Convert(ctx context.Context, htmlContent string, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.defaults()

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseHTML, err)
	}

	b := newBuilder(ctx, opts)
	if body := findElement(doc, atom.Body); body != nil {
		b.blocks(body, blockContext{})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := writePackage(b, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return data, nil
}

// findElement returns the first element with the given atom, depth-first.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent concatenates all descendant text.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
