package main

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-mxe/internal/config"
)

// envPrefix marks the variables read by the CLI.
const envPrefix = "MXE_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring config files.
type envConfig struct {
	ConfigPath string // MXE_CONFIG: config file name or path
	Format     string // MXE_FORMAT: output format
	Style      string // MXE_STYLE: CSS style name or path
	OutputDir  string // MXE_OUTPUT_DIR: default output directory
	Timeout    string // MXE_TIMEOUT: per-document timeout
	Font       string // MXE_FONT: body font id
	Workers    int    // MXE_WORKERS: parallel workers
}

// knownEnvVars lists valid MXE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MXE_CONFIG":     true,
	"MXE_FORMAT":     true,
	"MXE_STYLE":      true,
	"MXE_OUTPUT_DIR": true,
	"MXE_TIMEOUT":    true,
	"MXE_FONT":       true,
	"MXE_WORKERS":    true,
	"MXE_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers are ignored; the timeout is validated with the config.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("MXE_CONFIG"),
		Format:     getenv("MXE_FORMAT"),
		Style:      getenv("MXE_STYLE"),
		OutputDir:  getenv("MXE_OUTPUT_DIR"),
		Timeout:    getenv("MXE_TIMEOUT"),
		Font:       getenv("MXE_FONT"),
	}
	if workers := getenv("MXE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	return cfg
}

// warnUnknownEnvVars logs a warning for each unrecognized MXE_* variable.
func warnUnknownEnvVars(environ []string, logger *zap.Logger) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			logger.Warn("unknown environment variable (typo?)", zap.String("name", name))
		}
	}
}

// applyEnvConfig overrides config file values with the variables that are set.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Format, env.Format)
	setString(&cfg.Style, env.Style)
	setString(&cfg.Output, env.OutputDir)
	setString(&cfg.Timeout, env.Timeout)
	setString(&cfg.Fonts.Body, env.Font)
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
}

// setString overwrites *dst when v is non-empty.
func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
