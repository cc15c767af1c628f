package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/download"
)

// ErrConverterInit marks jobs that never ran because no converter could start.
var ErrConverterInit = errors.New("failed to initialize converter")

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Text       []byte // terminal output, printed in input order
	Err        error
	Duration   time.Duration
}

// batch carries what every job of a run shares.
type batch struct {
	pool       Pool
	format     mxe.Format
	input      mxe.Input
	downloader Downloader
	logger     *zap.Logger
}

// run processes jobs concurrently over the pool. Results keep job order.
func (b *batch) run(ctx context.Context, jobs []job) []ConversionResult {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(b.pool.Size(), len(jobs))
	results := make([]ConversionResult, len(jobs))
	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := b.pool.Acquire()
			if err != nil {
				// Another worker may still drain the queue; mark only what we take.
				for idx := range queue {
					results[idx] = ConversionResult{
						InputPath: jobs[idx].InputPath,
						Err:       fmt.Errorf("%w: %w", ErrConverterInit, err),
					}
				}
				return
			}
			defer b.pool.Release(conv)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{InputPath: jobs[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = b.convert(ctx, conv, jobs[idx])
			}
		}()
	}

	wg.Wait()
	return results
}

// convert processes a single job and returns the result.
func (b *batch) convert(ctx context.Context, conv Converter, j job) ConversionResult {
	start := time.Now()
	result := ConversionResult{InputPath: j.InputPath, OutputPath: j.OutputPath}
	done := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	in := b.input
	if j.URL {
		if err := b.loadArticle(ctx, j, &in); err != nil {
			return done(err)
		}
	} else {
		content, err := os.ReadFile(j.InputPath) // #nosec G304 -- discovered path
		if err != nil {
			return done(fmt.Errorf("%w: %v", ErrReadMarkdown, err))
		}
		in.Markdown = string(content)
		in.SourceDir = filepath.Dir(j.InputPath)
	}

	b.logger.Debug("converting", zap.String("input", j.InputPath), zap.String("format", string(b.format)))
	res, err := conv.Export(ctx, in, b.format)
	if err != nil {
		return done(err)
	}

	switch {
	case b.format == mxe.FormatTerminal:
		result.Text = res.Text
	case b.format.WritesFile():
		if err := writeOutput(j.OutputPath, res.Bytes()); err != nil {
			return done(err)
		}
	}
	return done(nil)
}

// loadArticle downloads the job's URL into its article directory, saves the
// Markdown there and points in at it.
func (b *batch) loadArticle(ctx context.Context, j job, in *mxe.Input) error {
	dir := j.ArticleDir
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: %v", download.ErrWrite, err)
	}
	article, err := b.downloader.Download(ctx, j.InputPath, dir)
	if err != nil {
		return err
	}

	mdPath := filepath.Join(dir, filepath.Base(dir)+".md")
	// #nosec G306 -- markdown is meant to be readable
	if err := os.WriteFile(mdPath, []byte(article.Markdown), filePermissions); err != nil {
		return fmt.Errorf("%w: %v", download.ErrWrite, err)
	}
	b.logger.Debug("article saved", zap.String("path", mdPath), zap.Int("images", len(article.Images)))

	in.Markdown = article.Markdown
	in.SourceDir = dir
	in.Title = article.Title
	return nil
}

// writeOutput creates the parent directory and writes data to path.
func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating output directory: %v", ErrWriteOutput, err)
	}
	// #nosec G306 -- exported documents are meant to be readable
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// firstError returns the first failure in job order.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs conversion results and returns the failure count.
// Terminal renderings go to Stdout even in quiet mode.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if r.Text != nil {
			_, _ = env.Stdout.Write(r.Text)
			continue
		}

		if quiet {
			continue
		}

		switch {
		case r.OutputPath == "":
			fmt.Fprintf(env.Stdout, "Copied %s to clipboard\n", r.InputPath)
		case verbose:
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 && results[0].Text == nil {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
