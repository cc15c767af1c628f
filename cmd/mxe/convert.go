package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/config"
	"github.com/alnah/go-mxe/internal/diagram"
	"github.com/alnah/go-mxe/internal/hints"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// runConvertCmd parses flags and runs a conversion.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	defer func() { _ = logger.Sync() }()

	return runConvert(ctx, positional, flags, env, logger)
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positional []string, flags *convertFlags, env *Environment, logger *zap.Logger) error {
	if len(positional) == 0 {
		return ErrNoInput
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	warnUnknownEnvVars(env.Environ(), logger)
	cfg, err := loadConfig(flags, env)
	if err != nil {
		return err
	}

	format, err := mxe.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	jobs, err := discoverInputs(positional, cfg.Output, format)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, strings.Join(positional, ", "))
	}
	if format == mxe.FormatClipboard && len(jobs) != 1 {
		return fmt.Errorf("%w: got %d", ErrClipboardMultiple, len(jobs))
	}

	tmpl, err := buildInputTemplate(flags, cfg)
	if err != nil {
		return err
	}
	opts, err := converterOptions(cfg, logger)
	if err != nil {
		return err
	}

	size := min(mxe.ResolvePoolSize(cfg.Workers), len(jobs))
	pool := env.NewPool(size, opts...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing converters", zap.Error(err))
		}
	}()

	b := &batch{
		pool:       pool,
		format:     format,
		input:      tmpl,
		downloader: env.NewDownloader(logger),
		logger:     logger,
	}

	if flags.watch {
		return runWatch(ctx, b, jobs, flags.common, env)
	}

	results := b.run(ctx, jobs)
	if failed := printResults(results, flags.common.quiet, flags.common.verbose, env); failed > 0 {
		return fmt.Errorf("%d conversion(s) failed: %w", failed, firstError(results))
	}
	return nil
}

// loadConfig resolves the config file and applies env and flag overrides.
// Precedence: flags > env > config file > defaults.
func loadConfig(flags *convertFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)

	name := flags.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildInputTemplate creates the per-document Input shared by the batch.
// Markdown, SourceDir and Title are filled in per job.
func buildInputTemplate(flags *convertFlags, cfg *config.Config) (mxe.Input, error) {
	in := mxe.Input{
		Page: &mxe.PageSettings{
			Size:        cfg.Page.Size,
			Orientation: cfg.Page.Orientation,
			Margin:      cfg.Page.Margin,
			PageNumbers: cfg.Page.PageNumbers,
		},
		Diagrams: &mxe.Diagrams{
			Mode:     diagram.Mode(cfg.Diagrams.Mode),
			Theme:    cfg.Diagrams.Mermaid.Theme,
			HandDraw: cfg.Diagrams.Mermaid.HandDraw,
			Layout:   cfg.Diagrams.Mermaid.Layout,
		},
	}

	if cfg.Fonts.Body != "" || cfg.Fonts.Code != "" {
		in.Fonts = &mxe.Fonts{Body: cfg.Fonts.Body, Code: cfg.Fonts.Code}
	}

	if cfg.TOC.Enabled {
		in.TOC = &mxe.TOC{
			Title:    cfg.TOC.Title,
			MinDepth: cfg.TOC.MinDepth,
			MaxDepth: cfg.TOC.MaxDepth,
		}
	}

	if flags.css != "" {
		content, err := os.ReadFile(flags.css) // #nosec G304 -- user-provided path
		if err != nil {
			return mxe.Input{}, fmt.Errorf("%w: %v", ErrReadCSS, err)
		}
		in.CSS = string(content)
	}

	return in, nil
}

// converterOptions maps config to converter options.
func converterOptions(cfg *config.Config, logger *zap.Logger) ([]mxe.Option, error) {
	opts := []mxe.Option{
		mxe.WithLogger(logger),
		mxe.WithMermaidCLI(cfg.Diagrams.MermaidCLI),
	}
	if cfg.Style != "" {
		opts = append(opts, mxe.WithStyle(cfg.Style))
	}
	if cfg.AssetPath != "" {
		opts = append(opts, mxe.WithAssetPath(cfg.AssetPath))
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: timeout %q: %v", config.ErrInvalidValue, cfg.Timeout, err)
		}
		opts = append(opts, mxe.WithTimeout(d))
	}
	return opts, nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mxe.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mxe.MaxPoolSize)
	}
	return nil
}
