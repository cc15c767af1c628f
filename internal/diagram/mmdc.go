package diagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mxe/internal/browser"
	"github.com/alnah/go-mxe/internal/process"
)

// MermaidCLIName is the mermaid-cli executable.
const MermaidCLIName = "mmdc"

// ErrMermaidCLI wraps mmdc failures.
var ErrMermaidCLI = errors.New("mermaid-cli failed")

// Runner runs an external command and returns its stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stderr []byte, err error)
}

// ExecRunner runs commands with os/exec. Cancelling ctx kills the command
// and its children (mmdc drives its own headless browser).
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- fixed executable, generated args
	process.Bind(cmd)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// LookupMermaidCLI returns the mmdc path, or "" when it is not installed.
func LookupMermaidCLI() string {
	p, err := exec.LookPath(MermaidCLIName)
	if err != nil {
		return ""
	}
	return p
}

// CLIRenderer renders Mermaid blocks through mmdc, one process per block.
type CLIRenderer struct {
	path   string
	runner Runner
}

var _ Renderer = (*CLIRenderer)(nil)

// NewCLIRenderer returns a renderer invoking the mmdc executable at path.
// A nil runner uses ExecRunner.
func NewCLIRenderer(path string, runner Runner) *CLIRenderer {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &CLIRenderer{path: path, runner: runner}
}

// Render implements Renderer. WaveDrom blocks return ErrUnsupported.
func (r *CLIRenderer) Render(ctx context.Context, blocks []Block, opts MermaidOptions, format Format) []Result {
	results := make([]Result, len(blocks))
	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Err: err}
			continue
		}
		if b.Kind != Mermaid {
			results[i] = Result{Err: ErrUnsupported}
			continue
		}
		data, err := r.renderOne(ctx, b, opts, format)
		results[i] = Result{Data: data, Err: err}
	}
	return results
}

func (r *CLIRenderer) renderOne(ctx context.Context, b Block, opts MermaidOptions, format Format) ([]byte, error) {
	dir, err := os.MkdirTemp("", "mxe-mermaid-")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp dir: %v", ErrMermaidCLI, err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	ext, background := "svg", "transparent"
	if format == PNG {
		ext, background = "png", "white"
	}
	input := filepath.Join(dir, "input.mmd")
	output := filepath.Join(dir, "output."+ext)
	config := filepath.Join(dir, "config.json")

	if err := os.WriteFile(input, []byte(b.Source), 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMermaidCLI, err)
	}
	if err := os.WriteFile(config, cliConfig(opts), 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMermaidCLI, err)
	}

	args := []string{"-i", input, "-o", output, "-c", config, "-b", background, "--quiet"}
	if os.Getenv("CI") == "true" || browser.NoSandbox(os.Getenv(browser.EnvNoSandbox)) {
		puppeteer := filepath.Join(dir, "puppeteer.json")
		if err := os.WriteFile(puppeteer, []byte(`{"args":["--no-sandbox"]}`), 0o600); err == nil {
			args = append(args, "-p", puppeteer)
		}
	}

	stderr, err := r.runner.Run(ctx, r.path, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrMermaidCLI, err, strings.TrimSpace(string(stderr)))
	}

	data, err := os.ReadFile(output) // #nosec G304 -- path inside our temp dir
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrMermaidCLI, err)
	}
	return data, nil
}

// cliConfig builds mmdc's --configFile contents.
func cliConfig(opts MermaidOptions) []byte {
	cfg := map[string]any{"theme": opts.theme()}
	if opts.HandDraw {
		cfg["look"] = "handDrawn"
		cfg["handDrawnSeed"] = 42
	}
	if strings.EqualFold(opts.Layout, "elk") {
		cfg["layout"] = "elk"
		cfg["flowchart"] = map[string]any{"defaultRenderer": "elk"}
	}
	data, _ := json.Marshal(cfg)
	return data
}
