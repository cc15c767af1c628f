package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/download"
	"github.com/alnah/go-mxe/internal/fileutil"
)

// job is a single document to export.
type job struct {
	InputPath  string // markdown file, or the URL for downloads
	OutputPath string // empty for clipboard and terminal
	URL        bool
	ArticleDir string // URL jobs: where the article and its images are saved
}

// discoverInputs expands files, directories and URLs into jobs.
func discoverInputs(inputs []string, outputDir string, format mxe.Format) ([]job, error) {
	var jobs []job
	for _, in := range inputs {
		if download.IsURL(in) {
			jobs = append(jobs, urlJob(in, outputDir, format))
			continue
		}
		found, err := discoverFiles(in, outputDir, format)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, found...)
	}
	return jobs, nil
}

// urlJob places the downloaded article in <output dir or .>/<name>/. The
// export goes into the output directory when set, else next to the article.
func urlJob(rawURL, outputDir string, format mxe.Format) job {
	name := download.SafeFilename(rawURL)
	articleDir := filepath.Join(outputDir, name)
	j := job{InputPath: rawURL, URL: true, ArticleDir: articleDir}
	if format.WritesFile() {
		dir := outputDir
		if dir == "" {
			dir = articleDir
		}
		j.OutputPath = filepath.Join(dir, name+format.Ext())
	}
	return j
}

// discoverFiles finds all markdown files under inputPath.
func discoverFiles(inputPath, outputDir string, format mxe.Format) ([]job, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !fileutil.IsMarkdown(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		return []job{{InputPath: inputPath, OutputPath: resolveOutputPath(inputPath, outputDir, "", format)}}, nil
	}

	var jobs []job
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !fileutil.IsMarkdown(path) {
			return nil
		}
		jobs = append(jobs, job{InputPath: path, OutputPath: resolveOutputPath(path, outputDir, inputPath, format)})
		return nil
	})
	return jobs, err
}

// resolveOutputPath determines the output path for a markdown file.
// Directory inputs keep their relative layout under outputDir.
func resolveOutputPath(inputPath, outputDir, baseInputDir string, format mxe.Format) string {
	if !format.WritesFile() {
		return ""
	}
	name := fileutil.TrimMarkdownExt(inputPath) + format.Ext()

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), name)
	}

	if baseInputDir != "" {
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(outputDir, filepath.Dir(rel), name)
		}
	}

	return filepath.Join(outputDir, name)
}
