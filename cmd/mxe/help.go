package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mxe [convert] <input...> [flags]")
	fmt.Fprintln(w, "       mxe <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert     Export markdown files, directories or web articles (default)")
	fmt.Fprintln(w, "  download    Save a web article as markdown with its images")
	fmt.Fprintln(w, "  fonts       List the available fonts")
	fmt.Fprintln(w, "  doctor      Check system requirements")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mxe help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mxe [convert] <input...> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export markdown to PDF, DOCX, HTML, the clipboard or the terminal.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, directory (searched recursively) or http(s) URL")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -f, --format <s>          pdf (default), docx, html, clipboard, terminal")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: next to the source)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (.yaml, .yml, .toml)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-document timeout (default 30s)")
	fmt.Fprintln(w, "      --watch               Re-convert inputs when they change")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "  -s, --style <s>           Style name or CSS file path")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory with custom styles/<name>.css")
	fmt.Fprintln(w, "      --css <path>          Extra CSS file applied last")
	fmt.Fprintln(w, "      --font <id>           Body font (see 'mxe fonts')")
	fmt.Fprintln(w, "      --code-font <id>      Code font (see 'mxe fonts')")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page (PDF):")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: a4, letter, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0.25-3.0)")
	fmt.Fprintln(w, "      --no-page-numbers     Hide the page number footer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Table of Contents:")
	fmt.Fprintln(w, "      --toc                 Insert a table of contents")
	fmt.Fprintln(w, "      --toc-title <s>       TOC heading text")
	fmt.Fprintln(w, "      --toc-min-depth <n>   Min heading depth (1-6)")
	fmt.Fprintln(w, "      --toc-max-depth <n>   Max heading depth (1-6)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --diagrams <s>        render (default), script (HTML only), off")
	fmt.Fprintln(w, "      --mermaid-theme <s>   default, neutral, dark, forest, base")
	fmt.Fprintln(w, "      --mermaid-layout <s>  dagre, elk")
	fmt.Fprintln(w, "      --hand-draw           Hand-drawn mermaid look")
	fmt.Fprintln(w, "      --mermaid-cli         Render mermaid with mmdc when installed")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MXE_CONFIG, MXE_FORMAT, MXE_STYLE, MXE_OUTPUT_DIR, MXE_TIMEOUT, MXE_FONT, MXE_WORKERS")
}

func printDownloadUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mxe download <url> [-o dir]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Save a web article as markdown. Images go to <dir>/images.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: current directory)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mxe doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, mermaid-cli, clipboard support and the environment.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "download":
		printDownloadUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "fonts":
		fmt.Fprintln(env.Stdout, "Usage: mxe fonts")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List font ids accepted by --font and --code-font.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mxe version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mxe help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return nil
}
