// Package browser owns the headless Chrome instance used for PDF printing
// and diagram rendering. The browser is launched on first use.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-mxe/internal/process"
)

// Sentinel errors for browser operations.
var (
	ErrConnect    = errors.New("browser connection failed")
	ErrPageCreate = errors.New("page creation failed")
	ErrPageLoad   = errors.New("page load failed")
	ErrClosed     = errors.New("browser closed")
)

// Environment variables read when launching.
const (
	EnvBrowserBin = "ROD_BROWSER_BIN" // pre-installed browser (containers)
	EnvNoSandbox  = "ROD_NO_SANDBOX"  // "1" or "true" disables the Chrome sandbox
	envCI         = "CI"
)

// Launcher starts a browser and returns its control URL and process id.
type Launcher interface {
	Launch() (controlURL string, pid int, err error)
}

// NoSandbox reports whether v, a ROD_NO_SANDBOX value, disables the sandbox.
func NoSandbox(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// rodLauncher launches Chrome through rod's launcher, which downloads
// Chromium on first run if none is found.
type rodLauncher struct{}

func (rodLauncher) Launch() (string, int, error) {
	l := launcher.New()

	bin := os.Getenv(EnvBrowserBin)
	if bin != "" {
		l = l.Bin(bin)
	}
	if bin != "" || os.Getenv(envCI) == "true" || NoSandbox(os.Getenv(EnvNoSandbox)) {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return "", 0, err
	}
	return u, l.PID(), nil
}

// Browser lazily connects to a single headless Chrome. Safe for concurrent use.
type Browser struct {
	mu       sync.Mutex
	launcher Launcher
	logger   *zap.Logger
	rod      *rod.Browser
	pid      int
	closed   bool
}

// Option configures a Browser.
type Option func(*Browser)

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(b *Browser) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithLauncher replaces the Chrome launcher.
func WithLauncher(l Launcher) Option {
	return func(b *Browser) { b.launcher = l }
}

// New returns a Browser that launches Chrome on first use.
func New(opts ...Option) *Browser {
	b := &Browser{launcher: rodLauncher{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// connect returns the connected rod browser, launching it if needed.
func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if b.rod != nil {
		return b.rod, nil
	}

	u, pid, err := b.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	br := rod.New().ControlURL(u)
	if err := br.Connect(); err != nil {
		process.KillProcessGroup(pid)
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	b.logger.Debug("browser started", zap.Int("pid", pid))
	b.rod, b.pid = br, pid
	return br, nil
}

// Page opens url in a new tab bound to ctx. The caller closes the page.
func (b *Browser) Page(ctx context.Context, url string) (*rod.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	br, err := b.connect()
	if err != nil {
		return nil, err
	}
	page, err := br.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return page.Context(ctx), nil
}

// Started reports whether Chrome has been launched.
func (b *Browser) Started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rod != nil
}

// Close shuts the browser down and kills any leftover Chrome processes.
// Safe to call more than once; later calls are no-ops.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.rod == nil {
		return nil
	}

	err := b.rod.Close()
	process.KillProcessGroup(b.pid)
	b.logger.Debug("browser stopped", zap.Int("pid", b.pid))
	b.rod = nil
	return err
}
