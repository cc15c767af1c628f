// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"runtime"
	"strings"

	"github.com/alnah/go-mxe/internal/browser"
	"github.com/alnah/go-mxe/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// goos is swapped in tests to exercise platform-specific hints.
var goos = runtime.GOOS

// InCI reports whether a known CI environment variable is set.
func InCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	if (InCI() || IsInContainer()) && !browser.NoSandbox(os.Getenv(browser.EnvNoSandbox)) {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents or many diagrams, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(slashed(p), "/mxe/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForUnknownFont lists valid font identifiers.
func ForUnknownFont(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("run 'mxe fonts'; available: " + strings.Join(available, ", "))
}

// ForMermaidCLI suggests installing the Mermaid CLI.
func ForMermaidCLI() string {
	return format("install it with 'npm install -g @mermaid-js/mermaid-cli' or drop --mermaid-cli")
}

// ForClipboard suggests the clipboard utility for the current platform.
func ForClipboard() string {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return format("install xclip, xsel or wl-clipboard")
	default:
		return format("use --format html to write a file instead")
	}
}

// ForNetwork returns hints for download failures.
func ForNetwork() string {
	return format("check the URL is reachable; pages that need JavaScript or login cannot be downloaded")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}

// slashed normalizes separators so the config-dir check works on Windows.
func slashed(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
