package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/browser"
	"github.com/alnah/go-mxe/internal/diagram"
	"github.com/alnah/go-mxe/internal/hints"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// versionTimeout bounds each "--version" probe.
const versionTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string        `json:"status"`
	Chrome    chromeInfo    `json:"chrome"`
	Mermaid   mermaidInfo   `json:"mermaid_cli"`
	Clipboard clipboardInfo `json:"clipboard"`
	Env       envInfo       `json:"environment"`
	System    systemInfo    `json:"system"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type mermaidInfo struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

type clipboardInfo struct {
	Available bool `json:"available"`
}

type envInfo struct {
	OS            string            `json:"os"`
	Arch          string            `json:"arch"`
	Container     bool              `json:"container"`
	ContainerHint string            `json:"container_hint,omitempty"`
	CI            bool              `json:"ci"`
	NoSandbox     string            `json:"rod_no_sandbox"`
	BrowserBin    string            `json:"rod_browser_bin"`
	Variables     map[string]string `json:"variables,omitempty"` // MXE_* as set
}

type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorProbes are the system lookups doctor performs; tests replace them.
type doctorProbes struct {
	lookChrome    func() (string, bool)
	chromeVersion func(ctx context.Context, path string) (string, error)
	lookMermaid   func() string
	clipboard     func() bool
	fileExists    func(path string) bool
	tempDir       func() string
}

func defaultProbes() doctorProbes {
	return doctorProbes{
		lookChrome: launcher.LookPath,
		chromeVersion: func(ctx context.Context, path string) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, versionTimeout)
			defer cancel()
			out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- located browser binary
			return strings.TrimSpace(string(out)), err
		},
		lookMermaid: diagram.LookupMermaidCLI,
		clipboard:   mxe.ClipboardAvailable,
		fileExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		tempDir: os.TempDir,
	}
}

func newDoctorFlagSet(jsonOutput *bool) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.BoolVar(jsonOutput, "json", false, "print machine-readable JSON")
	return fs
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	var jsonOutput bool
	fs := newDoctorFlagSet(&jsonOutput)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	result := runDoctor(ctx, env, defaultProbes())

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, env *Environment, p doctorProbes) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv(browser.EnvNoSandbox),
			BrowserBin: env.Getenv(browser.EnvBrowserBin),
		},
	}

	checkChrome(ctx, result, p)
	checkMermaid(result, p)
	checkClipboard(result, p)
	checkEnvironment(result, env, p)
	checkSystem(result, p)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkChrome detects Chrome/Chromium. PDF output and diagram rendering
// both need it, so a missing browser is an error.
func checkChrome(ctx context.Context, result *doctorResult, p doctorProbes) {
	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = p.lookChrome()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if !p.fileExists(chromePath) {
		result.Errors = append(result.Errors, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	version, err := p.chromeVersion(ctx, chromePath)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
	} else {
		result.Chrome.Version = version
	}

	result.Chrome.Sandbox = !browser.NoSandbox(result.Env.NoSandbox)
}

// checkMermaid looks for mmdc. It is optional: the browser renders Mermaid
// when it is missing.
func checkMermaid(result *doctorResult, p doctorProbes) {
	if path := p.lookMermaid(); path != "" {
		result.Mermaid = mermaidInfo{Found: true, Path: path}
	}
}

func checkClipboard(result *doctorResult, p doctorProbes) {
	result.Clipboard.Available = p.clipboard()
	if !result.Clipboard.Available {
		result.Warnings = append(result.Warnings, "No clipboard utility found; --format clipboard will fail")
	}
}

// checkEnvironment detects container and CI environments and lists MXE_* variables.
func checkEnvironment(result *doctorResult, env *Environment, p doctorProbes) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env.Getenv, p.fileExists)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && !browser.NoSandbox(result.Env.NoSandbox) {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}

	for _, kv := range env.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(name, envPrefix) {
			continue
		}
		if result.Env.Variables == nil {
			result.Env.Variables = make(map[string]string)
		}
		result.Env.Variables[name] = value
		if !knownEnvVars[name] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Unknown environment variable %s (typo?)", name))
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string, exists func(string) bool) (bool, string) {
	if getenv("MXE_CONTAINER") == "1" {
		return true, "MXE_CONTAINER=1"
	}
	if exists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable; diagram and
// browser steps write there.
func checkSystem(result *doctorResult, p doctorProbes) {
	tmpDir := p.tempDir()
	testFile := filepath.Join(tmpDir, "mxe-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mxe doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Diagrams")
	if r.Mermaid.Found {
		fmt.Fprintf(w, "  [OK] mermaid-cli: %s\n", r.Mermaid.Path)
	} else {
		fmt.Fprintln(w, "  [OK] mermaid-cli: not installed (browser rendering)"+hints.ForMermaidCLI())
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Clipboard")
	if r.Clipboard.Available {
		fmt.Fprintln(w, "  [OK] Available")
	} else {
		fmt.Fprintln(w, "  [WARN] Unavailable")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	names := make([]string, 0, len(r.Env.Variables))
	for name := range r.Env.Variables {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  [OK] %s=%s\n", name, r.Env.Variables[name])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: READY")
	case statusWarnings:
		fmt.Fprintln(w, "Status: READY (with warnings)")
	default:
		fmt.Fprintln(w, "Status: NOT READY")
	}
}
