// Package download fetches a web article, keeps its main content and
// images, and converts it to Markdown.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mxe/internal/httputil"
)

// Sentinel errors for article download.
var (
	ErrInvalidURL = errors.New("invalid article URL")
	ErrFetch      = errors.New("failed to fetch article")
	ErrParse      = errors.New("failed to parse article HTML")
	ErrConvert    = errors.New("failed to convert article to Markdown")
	ErrWrite      = errors.New("failed to write article files")
)

// ImagesDir is the subdirectory of the output directory holding images.
const ImagesDir = "images"

// DefaultImageConcurrency bounds parallel image downloads.
const DefaultImageConcurrency = 4

// Article is a downloaded web page reduced to its content.
type Article struct {
	URL      string
	Title    string
	Markdown string
	Images   []string // local paths of downloaded images
	HTML     string   // sanitized article HTML
}

// Downloader fetches articles. The zero value is not usable; use New.
type Downloader struct {
	client      *httputil.Client
	logger      *zap.Logger
	concurrency int
	policy      *bluemonday.Policy
	converter   *converter.Converter
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithClient sets the HTTP client.
func WithClient(c *httputil.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithLogger sets the logger for skipped images and retries.
func WithLogger(l *zap.Logger) Option {
	return func(d *Downloader) { d.logger = l }
}

// WithImageConcurrency bounds parallel image downloads. n <= 0 keeps the default.
func WithImageConcurrency(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// New returns a Downloader with a retrying HTTP client.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		logger:      zap.NewNop(),
		concurrency: DefaultImageConcurrency,
		policy:      sanitizePolicy(),
		converter:   newMarkdownConverter(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = httputil.NewClient(d.logger)
	}
	return d
}

// Download fetches rawURL, saves its images under dir/images and returns
// the article as Markdown. dir is created when missing. Image failures are
// logged and leave the remote URL in place.
func (d *Downloader) Download(ctx context.Context, rawURL, dir string) (*Article, error) {
	if !IsURL(rawURL) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	body, err := d.client.Get(ctx, rawURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	title := extractTitle(doc)
	root := contentRoot(doc)
	removeUnwanted(root)
	if title != "" {
		removeTitleHeading(root, title)
	}
	absolutize(root, base)

	if err := os.MkdirAll(filepath.Join(dir, ImagesDir), 0o750); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	saved, err := d.downloadImages(ctx, root, dir)
	if err != nil {
		return nil, err
	}

	rendered, err := renderChildren(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	clean := d.policy.Sanitize(rendered)

	md, err := d.converter.ConvertString(clean, converter.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConvert, err)
	}
	if title != "" {
		md = "# " + title + "\n\n" + md
	}

	return &Article{
		URL:      rawURL,
		Title:    title,
		Markdown: CleanMarkdown(md),
		Images:   saved,
		HTML:     clean,
	}, nil
}

// absolutize resolves link and image URLs against the page URL.
func absolutize(root *html.Node, base *url.URL) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, key := range []string{"href", "src"} {
				v := strings.TrimSpace(attr(n, key))
				if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "data:") {
					continue
				}
				if ref, err := url.Parse(v); err == nil {
					setAttr(n, key, base.ResolveReference(ref).String())
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

// downloadImages fetches each distinct remote image once, with bounded
// concurrency, and rewrites src attributes to the saved relative path.
// Only context cancellation aborts the batch.
func (d *Downloader) downloadImages(ctx context.Context, root *html.Node, dir string) ([]string, error) {
	byURL := make(map[string][]*html.Node)
	var order []string
	for _, img := range images(root) {
		src := attr(img, "src")
		if !IsURL(src) {
			continue
		}
		if _, seen := byURL[src]; !seen {
			order = append(order, src)
		}
		byURL[src] = append(byURL[src], img)
	}

	var (
		mu    sync.Mutex
		local = make(map[string]string, len(order))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, src := range order {
		g.Go(func() error {
			name, err := d.saveImage(gctx, src, dir)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				d.logger.Warn("image download failed, keeping remote URL",
					zap.String("url", src), zap.Error(err))
				return nil
			}
			mu.Lock()
			local[src] = name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var saved []string
	for _, src := range order {
		name, ok := local[src]
		if !ok {
			continue
		}
		for _, img := range byURL[src] {
			setAttr(img, "src", ImagesDir+"/"+name)
			removeAttr(img, "srcset")
		}
		saved = append(saved, filepath.Join(dir, ImagesDir, name))
	}
	return saved, nil
}

func (d *Downloader) saveImage(ctx context.Context, src, dir string) (string, error) {
	data, err := d.client.Get(ctx, src)
	if err != nil {
		return "", err
	}
	name := ImageFilename(src)
	if err := os.WriteFile(filepath.Join(dir, ImagesDir, name), data, 0o600); err != nil {
		return "", err
	}
	return name, nil
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)

// ImageFilename is md5(url) in hex plus the URL path's extension,
// or ".jpg" when it has none.
func ImageFilename(src string) string {
	ext := ""
	if u, err := url.Parse(src); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	if !extPattern.MatchString(ext) {
		ext = ".jpg"
	}
	return urlHash(src) + ext
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}
