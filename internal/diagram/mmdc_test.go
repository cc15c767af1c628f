package diagram

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

// fakeRunner writes a canned file at the -o path, or fails.
type fakeRunner struct {
	output []byte
	stderr string
	err    error
	args   []string
	config string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.args = args
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "-o":
			if f.err == nil {
				_ = os.WriteFile(args[i+1], f.output, 0o600)
			}
		case "-c":
			data, _ := os.ReadFile(args[i+1])
			f.config = string(data)
		}
	}
	return []byte(f.stderr), f.err
}

// ---------------------------------------------------------------------------
// TestCLIRenderer_Render
// ---------------------------------------------------------------------------

func TestCLIRenderer_Render(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: []byte("<svg>ok</svg>")}
	r := NewCLIRenderer("mmdc", runner)

	results := r.Render(context.Background(),
		[]Block{{Kind: Mermaid, Source: "graph LR"}, {Kind: WaveDrom, Source: "{}"}},
		MermaidOptions{Theme: "dark", HandDraw: true, Layout: "elk"}, SVG)

	if results[0].Err != nil || string(results[0].Data) != "<svg>ok</svg>" {
		t.Errorf("mermaid result = %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrUnsupported) {
		t.Errorf("wavedrom err = %v, want ErrUnsupported", results[1].Err)
	}
	for _, want := range []string{`"theme":"dark"`, `"look":"handDrawn"`, `"defaultRenderer":"elk"`} {
		if !strings.Contains(runner.config, want) {
			t.Errorf("config %s missing %s", runner.config, want)
		}
	}
	joined := strings.Join(runner.args, " ")
	if !strings.Contains(joined, "-b transparent") || !strings.Contains(joined, "output.svg") {
		t.Errorf("args = %v", runner.args)
	}
}

func TestCLIRenderer_PNG(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: []byte("png")}
	results := NewCLIRenderer("mmdc", runner).Render(context.Background(), []Block{{Kind: Mermaid}}, MermaidOptions{}, PNG)
	if results[0].Err != nil {
		t.Fatalf("Render() error = %v", results[0].Err)
	}
	joined := strings.Join(runner.args, " ")
	if !strings.Contains(joined, "output.png") || !strings.Contains(joined, "-b white") {
		t.Errorf("args = %v", runner.args)
	}
}

func TestCLIRenderer_FailureIncludesStderr(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: "Parse error on line 2\n"}
	results := NewCLIRenderer("mmdc", runner).Render(context.Background(), []Block{{Kind: Mermaid}}, MermaidOptions{}, SVG)

	err := results[0].Err
	if !errors.Is(err, ErrMermaidCLI) {
		t.Fatalf("err = %v, want ErrMermaidCLI", err)
	}
	if !strings.Contains(err.Error(), "Parse error on line 2") {
		t.Errorf("err %q does not include stderr", err)
	}
}

func TestCLIRenderer_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	results := NewCLIRenderer("mmdc", runner).Render(ctx, []Block{{Kind: Mermaid}}, MermaidOptions{}, SVG)
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", results[0].Err)
	}
	if runner.args != nil {
		t.Error("runner invoked after cancellation")
	}
}
