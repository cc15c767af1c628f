package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-mxe/internal/fileutil"
)

// MaxInlineImageSize caps the size of a local image embedded as a data URI.
const MaxInlineImageSize = 10 << 20

// ErrImageTooLarge is reported (and logged) for images over MaxInlineImageSize.
var ErrImageTooLarge = errors.New("image exceeds inline size limit")

// ResourceOptions controls how local resources referenced by the HTML are resolved.
type ResourceOptions struct {
	// SourceDir is the base for relative paths. Empty disables resolution.
	SourceDir string
	// FileLinks rewrites relative a[href] targets to absolute file:// URLs.
	// Needed when the document is rendered away from its source directory.
	FileLinks bool
	Logger    *zap.Logger
}

// InlineResources embeds relative img[src] files as base64 data URIs and,
// with FileLinks, turns relative links into file:// URLs.
//
// Left untouched:
//   - URLs (http, https, file, data, protocol-relative) and anchors
//   - absolute paths
//   - paths escaping SourceDir
//   - files that cannot be read or exceed MaxInlineImageSize (logged)
func InlineResources(ctx context.Context, htmlContent string, opts ResourceOptions) (string, error) {
	if opts.SourceDir == "" {
		return htmlContent, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	absSourceDir, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return "", err
	}

	doc, isFragment, err := ParseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	r := resourceResolver{dir: absSourceDir, opts: opts}
	r.walk(doc)

	return RenderHTML(doc, isFragment)
}

type resourceResolver struct {
	dir  string
	opts ResourceOptions
}

func (r *resourceResolver) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			r.inlineImage(n)
		case atom.A:
			if r.opts.FileLinks {
				r.rewriteLink(n)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
}

// resolve returns the absolute path for a relative reference inside dir.
func (r *resourceResolver) resolve(ref string) (string, bool) {
	if !isRelativePath(ref) {
		return "", false
	}
	p := ref
	if unescaped, err := url.PathUnescape(ref); err == nil {
		p = unescaped
	}
	abs := filepath.Join(r.dir, filepath.FromSlash(p))
	if !fileutil.IsPathUnder(abs, r.dir) {
		r.opts.Logger.Warn("skipping resource outside source directory", zap.String("path", ref))
		return "", false
	}
	return abs, true
}

func (r *resourceResolver) inlineImage(n *html.Node) {
	for i, attr := range n.Attr {
		if attr.Key != "src" {
			continue
		}
		abs, ok := r.resolve(attr.Val)
		if !ok {
			return
		}
		dataURI, err := imageDataURI(abs)
		if err != nil {
			r.opts.Logger.Warn("leaving image unresolved", zap.String("path", attr.Val), zap.Error(err))
			return
		}
		n.Attr[i].Val = dataURI
		return
	}
}

func (r *resourceResolver) rewriteLink(n *html.Node) {
	for i, attr := range n.Attr {
		if attr.Key != "href" {
			continue
		}
		if abs, ok := r.resolve(attr.Val); ok {
			n.Attr[i].Val = pathToFileURL(abs)
		}
		return
	}
}

// imageDataURI reads path and encodes it as a data URI, detecting the MIME
// type from content so mislabeled extensions still render.
func imageDataURI(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxInlineImageSize {
		return "", &os.PathError{Op: "inline", Path: path, Err: ErrImageTooLarge}
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path validated under source dir
	if err != nil {
		return "", err
	}
	mime := mimetype.Detect(data)
	// mimetype reports SVG with a charset parameter the browser does not need.
	mediaType := strings.SplitN(mime.String(), ";", 2)[0]
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// isRelativePath returns true if the reference points to a local relative file.
func isRelativePath(path string) bool {
	if path == "" {
		return false
	}
	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, "#") {
		return false
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}
	// Any scheme (tel:, ftp:, javascript:, ...) is not a file.
	if u, err := url.Parse(path); err == nil && u.Scheme != "" {
		return false
	}
	return true
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letters
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// ParseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node and whether it was a fragment.
func ParseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// RenderHTML renders a tree from ParseHTML back to a string.
// Fragments render their children only, without an <html><body> wrapper.
func RenderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
