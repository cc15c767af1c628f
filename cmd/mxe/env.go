package main

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/download"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string

	// NewPool builds the converter pool for a convert run.
	NewPool func(size int, opts ...mxe.Option) Pool
	// NewDownloader builds the article downloader.
	NewDownloader func(logger *zap.Logger) Downloader
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
		NewPool: func(size int, opts ...mxe.Option) Pool {
			return &converterPool{pool: mxe.NewConverterPool(size, opts...)}
		},
		NewDownloader: func(logger *zap.Logger) Downloader {
			return download.New(download.WithLogger(logger))
		},
	}
}

// newLogger builds the console logger used for diagnostics. Results go to
// Stdout; the logger only carries warnings and debug detail.
func newLogger(w io.Writer, quiet, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	switch {
	case verbose:
		level = zapcore.DebugLevel
	case quiet:
		level = zapcore.ErrorLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
