// Package config loads and validates mxe configuration files.
// Files may be YAML (.yaml, .yml) or TOML (.toml); both use the same keys.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mxe/internal/fileutil"
	"github.com/alnah/go-mxe/internal/fonts"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength        = 4096
	MaxNameLength        = 64 // style, font, theme names
	MaxTOCTitleLength    = 100
	MaxPageSizeLength    = 10 // "letter", "a4", "legal"
	MaxOrientationLength = 10 // "portrait", "landscape"
)

// Allowed enum values. The root package re-validates at conversion time;
// checking here reports the offending key and file.
var (
	validFormats      = []string{"pdf", "docx", "html", "clipboard", "terminal"}
	validPageSizes    = []string{"a4", "letter", "legal"}
	validOrientations = []string{"portrait", "landscape"}
	validDiagramModes = []string{"render", "script", "off"}
	validThemes       = []string{"default", "neutral", "dark", "forest", "base"}
	validLayouts      = []string{"dagre", "elk"}
)

// Config holds all configuration for document conversion.
type Config struct {
	Format    string         `yaml:"format" toml:"format"`
	Style     string         `yaml:"style" toml:"style"`
	AssetPath string         `yaml:"assetPath" toml:"assetPath"`
	Output    string         `yaml:"output" toml:"output"`   // output directory; empty = next to the source
	Timeout   string         `yaml:"timeout" toml:"timeout"` // Go duration, e.g. "45s"
	Workers   int            `yaml:"workers" toml:"workers"`
	Fonts     FontsConfig    `yaml:"fonts" toml:"fonts"`
	TOC       TOCConfig      `yaml:"toc" toml:"toc"`
	Page      PageConfig     `yaml:"page" toml:"page"`
	Diagrams  DiagramsConfig `yaml:"diagrams" toml:"diagrams"`
}

// FontsConfig selects catalog fonts by identifier.
type FontsConfig struct {
	Body string `yaml:"body" toml:"body"`
	Code string `yaml:"code" toml:"code"`
}

// TOCConfig defines table of contents options.
type TOCConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Title    string `yaml:"title" toml:"title"`
	MinDepth int    `yaml:"minDepth" toml:"minDepth"` // 1-6, default 1
	MaxDepth int    `yaml:"maxDepth" toml:"maxDepth"` // 1-6, default 3
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size" toml:"size"`
	Orientation string  `yaml:"orientation" toml:"orientation"`
	Margin      float64 `yaml:"margin" toml:"margin"`           // inches, 0 = default
	PageNumbers *bool   `yaml:"pageNumbers" toml:"pageNumbers"` // nil = on
}

// DiagramsConfig defines diagram rendering options.
type DiagramsConfig struct {
	Mode       string        `yaml:"mode" toml:"mode"`
	MermaidCLI bool          `yaml:"mermaidCli" toml:"mermaidCli"`
	Mermaid    MermaidConfig `yaml:"mermaid" toml:"mermaid"`
}

// MermaidConfig holds Mermaid rendering options.
type MermaidConfig struct {
	Theme    string `yaml:"theme" toml:"theme"`
	HandDraw bool   `yaml:"handDraw" toml:"handDraw"`
	Layout   string `yaml:"layout" toml:"layout"`
}

// DefaultConfig returns an empty configuration: every field falls back to
// the converter defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// Validate checks field lengths and enumerated values.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"format", c.Format, MaxNameLength},
		{"style", c.Style, MaxPathLength},
		{"assetPath", c.AssetPath, MaxPathLength},
		{"output", c.Output, MaxPathLength},
		{"timeout", c.Timeout, MaxNameLength},
		{"fonts.body", c.Fonts.Body, MaxNameLength},
		{"fonts.code", c.Fonts.Code, MaxNameLength},
		{"toc.title", c.TOC.Title, MaxTOCTitleLength},
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"page.orientation", c.Page.Orientation, MaxOrientationLength},
		{"diagrams.mode", c.Diagrams.Mode, MaxNameLength},
		{"diagrams.mermaid.theme", c.Diagrams.Mermaid.Theme, MaxNameLength},
		{"diagrams.mermaid.layout", c.Diagrams.Mermaid.Layout, MaxNameLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	enums := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"format", c.Format, validFormats},
		{"page.size", c.Page.Size, validPageSizes},
		{"page.orientation", c.Page.Orientation, validOrientations},
		{"diagrams.mode", c.Diagrams.Mode, validDiagramModes},
		{"diagrams.mermaid.theme", c.Diagrams.Mermaid.Theme, validThemes},
		{"diagrams.mermaid.layout", c.Diagrams.Mermaid.Layout, validLayouts},
	}
	for _, e := range enums {
		if err := validateEnum(e.field, e.value, e.allowed); err != nil {
			return err
		}
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: timeout %q must be a positive duration", ErrInvalidValue, c.Timeout)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidValue, c.Workers)
	}

	for field, id := range map[string]string{"fonts.body": c.Fonts.Body, "fonts.code": c.Fonts.Code} {
		if id == "" {
			continue
		}
		if _, err := fonts.Lookup(id); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
	}

	if err := c.validateTOC(); err != nil {
		return err
	}

	if c.Page.Margin != 0 && (c.Page.Margin < 0.25 || c.Page.Margin > 3.0) {
		return fmt.Errorf("%w: page.margin must be between 0.25 and 3.0 inches, got %.2f", ErrInvalidValue, c.Page.Margin)
	}

	return nil
}

func (c *Config) validateTOC() error {
	minD, maxD := c.TOC.MinDepth, c.TOC.MaxDepth
	if minD != 0 && (minD < 1 || minD > 6) {
		return fmt.Errorf("%w: toc.minDepth must be between 1 and 6, got %d", ErrInvalidValue, minD)
	}
	if maxD != 0 && (maxD < 1 || maxD > 6) {
		return fmt.Errorf("%w: toc.maxDepth must be between 1 and 6, got %d", ErrInvalidValue, maxD)
	}
	if minD != 0 && maxD != 0 && minD > maxD {
		return fmt.Errorf("%w: toc.minDepth (%d) cannot exceed toc.maxDepth (%d)", ErrInvalidValue, minD, maxD)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateEnum accepts the empty string (meaning default) or one of allowed,
// compared case-insensitively.
func validateEnum(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q (must be one of %s)", ErrInvalidValue, field, value, strings.Join(allowed, ", "))
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's searched by name with SearchPaths.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := decoderFor(configPath)(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	return &cfg, nil
}

// configExtensions are tried in order for each search location.
var configExtensions = []string{".yaml", ".yml", ".toml"}

// SearchPaths lists, in lookup order, the files tried for a config name:
// the current directory first, then the user config directory.
func SearchPaths(name string) []string {
	paths := make([]string, 0, len(configExtensions)*2)
	for _, ext := range configExtensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range configExtensions {
			paths = append(paths, filepath.Join(dir, "mxe", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
