package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mxe/internal/download"
)

// newDownloadFlagSet registers the download flags.
func newDownloadFlagSet(outputDir *string, common *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.StringVarP(outputDir, "output", "o", ".", "output directory")
	fs.BoolVarP(&common.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&common.verbose, "verbose", "v", false, "show debug logs")
	return fs
}

// runDownload saves a web article as Markdown with its images.
func runDownload(ctx context.Context, args []string, env *Environment) error {
	var (
		outputDir string
		common    commonFlags
	)
	fs := newDownloadFlagSet(&outputDir, &common)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() { printDownloadUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() != 1 {
		printDownloadUsage(env.Stderr)
		return fmt.Errorf("%w: download takes exactly one URL", ErrUsage)
	}
	rawURL := fs.Arg(0)

	logger := newLogger(env.Stderr, common.quiet, common.verbose)
	defer func() { _ = logger.Sync() }()

	article, err := env.NewDownloader(logger).Download(ctx, rawURL, outputDir)
	if err != nil {
		return err
	}

	mdPath := filepath.Join(outputDir, download.MarkdownFilename(rawURL))
	// #nosec G306 -- markdown is meant to be readable
	if err := os.WriteFile(mdPath, []byte(article.Markdown), filePermissions); err != nil {
		return fmt.Errorf("%w: %v", download.ErrWrite, err)
	}

	if !common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s (%d image(s) in %s)\n",
			mdPath, len(article.Images), filepath.Join(outputDir, download.ImagesDir))
	}
	return nil
}
