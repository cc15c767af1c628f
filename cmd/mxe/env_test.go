package main

// Notes:
// - newLogger is checked through its output, not zap internals.
// - converterPool is exercised with a real mxe.ConverterPool; acquiring a
//   converter does not start a browser, so no Chrome is needed.

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alnah/go-mxe"
)

func TestNewLogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		quiet     bool
		verbose   bool
		wantDebug bool
		wantWarn  bool
	}{
		{name: "default", wantWarn: true},
		{name: "verbose", verbose: true, wantDebug: true, wantWarn: true},
		{name: "quiet", quiet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := newLogger(&buf, tt.quiet, tt.verbose)
			logger.Debug("debug line")
			logger.Warn("warn line")
			logger.Error("error line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "WARN"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.wantWarn)
			}
			if !strings.Contains(out, "ERROR") {
				t.Error("error not logged")
			}
		})
	}
}

func TestDefaultEnv(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()
	if env.Stdout == nil || env.Stderr == nil || env.Getenv == nil || env.Environ == nil || env.Now == nil {
		t.Fatal("DefaultEnv() left a field nil")
	}

	pool := env.NewPool(2)
	if pool.Size() != 2 {
		t.Errorf("Size() = %d, want 2", pool.Size())
	}
	if err := pool.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if env.NewDownloader(nil) == nil {
		t.Error("NewDownloader() = nil")
	}
}

// otherConverter is a Converter that is not *mxe.Converter.
type otherConverter struct{}

func (otherConverter) Export(context.Context, mxe.Input, mxe.Format) (*mxe.Result, error) {
	return &mxe.Result{}, nil
}

func TestConverterPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool := &converterPool{pool: mxe.NewConverterPool(1)}
	defer func() { _ = pool.Close() }()

	conv, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	pool.Release(conv)
	pool.Release(otherConverter{}) // ignored

	again, err := pool.Acquire()
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	if again != conv {
		t.Error("Acquire() did not reuse the released converter")
	}
	pool.Release(again)
}
