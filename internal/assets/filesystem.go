package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alnah/go-mxe/internal/fileutil"
)

// stylesDir is the subdirectory of an asset path holding <name>.css files.
const stylesDir = "styles"

// FilesystemLoader serves user styles from <dir>/styles, as set by
// --asset-path or assetPath in the config file.
type FilesystemLoader struct {
	dir string // absolute, symlinks resolved
}

// NewFilesystemLoader returns ErrInvalidBasePath unless dir is a readable
// directory.
func NewFilesystemLoader(dir string) (*FilesystemLoader, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	if !fileutil.DirExists(abs) {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, abs)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemLoader{dir: abs}, nil
}

// LoadStyle reads <dir>/styles/<name>.css. A symlink pointing outside dir
// yields ErrPathTraversal.
func (l *FilesystemLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	path := filepath.Join(l.dir, stylesDir, name+".css")
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		if !fileutil.IsPathUnder(resolved, l.dir) {
			return "", fmt.Errorf("%w: style %q resolves outside %s", ErrPathTraversal, name, l.dir)
		}
		path = resolved
	}

	css, err := os.ReadFile(path) // #nosec G304 -- contained in l.dir
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q in %s", ErrStyleNotFound, name, l.dir)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(css), nil
}

// ListStyles lists <dir>/styles/*.css. No styles directory means no styles.
func (l *FilesystemLoader) ListStyles() ([]string, error) {
	if !fileutil.DirExists(filepath.Join(l.dir, stylesDir)) {
		return nil, nil
	}
	return listCSS(os.DirFS(l.dir), stylesDir)
}

var _ AssetLoader = (*FilesystemLoader)(nil)
