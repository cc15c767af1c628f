package download

// Notes:
// - A local httptest server plays the article site; no network access.
// - Retry backoff is shortened through httputil.RetryBaseDelay in init.
// - The exact Markdown layout belongs to html-to-markdown; assertions look
//   for stable fragments only.

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-mxe/internal/httputil"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

var tinyPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

const articlePage = `<!DOCTYPE html>
<html><head><title>Site | My Article</title><script>var tracker = 1;</script></head>
<body>
<nav>Main menu</nav>
<article>
  <h1>My Article</h1>
  <p>Hello <strong>world</strong>, see <a href="/about">about</a>.</p>
  <img src="/img/a.png" alt="A">
  <img src="/img/a.png" alt="A again">
  <img src="/img/missing.png" alt="B">
  <div class="social-share">Share me</div>
  <pre><code class="language-go">fmt.Println("hi")</code></pre>
  <iframe src="https://ads.example"></iframe>
  <script>alert(1)</script>
</article>
<footer>Copyright</footer>
</body></html>`

func newArticleServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/post/my-article", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	})
	mux.HandleFunc("/img/a.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(tinyPNG)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestDownloader(ts *httptest.Server, logger *zap.Logger) *Downloader {
	client := httputil.NewClient(logger)
	client.HTTP = ts.Client()
	client.MaxRetries = 1
	return New(WithClient(client), WithLogger(logger))
}

// ---------------------------------------------------------------------------
// TestDownload - Article extraction and image saving
// ---------------------------------------------------------------------------

func TestDownload(t *testing.T) {
	t.Parallel()

	ts := newArticleServer(t)
	core, logs := observer.New(zapcore.WarnLevel)
	d := newTestDownloader(ts, zap.New(core))
	dir := t.TempDir()

	article, err := d.Download(context.Background(), ts.URL+"/post/my-article", dir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	if article.Title != "My Article" {
		t.Errorf("Title = %q, want %q", article.Title, "My Article")
	}
	if !strings.HasPrefix(article.Markdown, "# My Article\n\n") {
		t.Errorf("Markdown does not start with the title heading:\n%s", article.Markdown)
	}
	if strings.Count(article.Markdown, "# My Article") != 1 {
		t.Errorf("title heading duplicated:\n%s", article.Markdown)
	}

	localName := ImageFilename(ts.URL + "/img/a.png")
	for _, want := range []string{
		"**world**",
		"](" + ts.URL + "/about)",
		"](images/" + localName + ")",
		ts.URL + "/img/missing.png",
		"```go",
	} {
		if !strings.Contains(article.Markdown, want) {
			t.Errorf("Markdown missing %q:\n%s", want, article.Markdown)
		}
	}
	for _, unwanted := range []string{"Main menu", "Share me", "alert", "tracker", "Copyright", "ads.example"} {
		if strings.Contains(article.Markdown, unwanted) {
			t.Errorf("Markdown contains %q:\n%s", unwanted, article.Markdown)
		}
	}

	wantPath := filepath.Join(dir, ImagesDir, localName)
	if len(article.Images) != 1 || article.Images[0] != wantPath {
		t.Errorf("Images = %v, want [%s]", article.Images, wantPath)
	}
	if data, err := os.ReadFile(wantPath); err != nil || len(data) != len(tinyPNG) {
		t.Errorf("saved image: len=%d err=%v", len(data), err)
	}

	if got := logs.FilterMessage("image download failed, keeping remote URL").Len(); got != 1 {
		t.Errorf("logged %d image failures, want 1", got)
	}
}

func TestDownload_Errors(t *testing.T) {
	t.Parallel()

	ts := newArticleServer(t)
	d := newTestDownloader(ts, zap.NewNop())

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "not a url", url: "docs/readme.md", wantErr: ErrInvalidURL},
		{name: "server error", url: ts.URL + "/broken", wantErr: ErrFetch},
		{name: "not found", url: ts.URL + "/nope", wantErr: ErrFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := d.Download(context.Background(), tt.url, t.TempDir())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Download(%q) error = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestDownload_Cancelled(t *testing.T) {
	t.Parallel()

	ts := newArticleServer(t)
	d := newTestDownloader(ts, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Download(ctx, ts.URL+"/post/my-article", t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Download() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestExtract - Content root and title selection
// ---------------------------------------------------------------------------

func TestExtractTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page string
		want string
	}{
		{name: "h1 wins", page: `<title>T</title><h1> Big  Title </h1>`, want: "Big Title"},
		{name: "class title", page: `<title>T</title><div class="post-title">Post</div>`, want: "Post"},
		{name: "title fallback", page: `<title>Only Title</title><p>x</p>`, want: "Only Title"},
		{name: "nothing", page: `<p>x</p>`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := mustParse(t, tt.page)
			if got := extractTitle(doc); got != tt.want {
				t.Errorf("extractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    string
		wantTag string
	}{
		{name: "article", page: `<main><article>a</article></main>`, wantTag: "article"},
		{name: "entry content", page: `<div class="entry-content">a</div><main>m</main>`, wantTag: "div"},
		{name: "main", page: `<main>m</main>`, wantTag: "main"},
		{name: "body fallback", page: `<p>x</p>`, wantTag: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := contentRoot(mustParse(t, tt.page)); got.Data != tt.wantTag {
				t.Errorf("contentRoot() = <%s>, want <%s>", got.Data, tt.wantTag)
			}
		})
	}
}
