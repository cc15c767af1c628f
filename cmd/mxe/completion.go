package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mxe/internal/fonts"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = fmt.Errorf("%w: unsupported shell", ErrUsage)

var shells = []string{string(ShellBash), string(ShellZsh), string(ShellFish), string(ShellPowerShell)}

type flagType int

const (
	flagString flagType = iota
	flagBool
	flagNumber
	flagEnum
	flagFile
	flagDir
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string
	Short    string
	Type     flagType
	Desc     string
	Values   []string // flagEnum
	FileGlob string   // flagFile, comma-separated
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	Args        []string // fixed positional values
	FilePattern string   // positional file glob, comma-separated
}

// completionMeta holds the hints a FlagSet cannot express.
type completionMeta struct {
	Values   []string
	FileGlob string
	IsDir    bool
}

var flagCompletionMeta = map[string]completionMeta{
	"format":         {Values: []string{"pdf", "docx", "html", "clipboard", "terminal"}},
	"page-size":      {Values: []string{"a4", "letter", "legal"}},
	"orientation":    {Values: []string{"portrait", "landscape"}},
	"diagrams":       {Values: []string{"render", "script", "off"}},
	"mermaid-theme":  {Values: []string{"default", "neutral", "dark", "forest", "base"}},
	"mermaid-layout": {Values: []string{"dagre", "elk"}},
	"font":           {Values: fonts.IDs()},
	"code-font":      {Values: fonts.IDs()},

	"config": {FileGlob: "*.yaml,*.yml,*.toml"},
	"style":  {FileGlob: "*.css"},
	"css":    {FileGlob: "*.css"},

	"output":     {IsDir: true},
	"asset-path": {IsDir: true},
}

// extractFlags turns a FlagSet into flag definitions, enriched with
// flagCompletionMeta.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{Long: f.Name, Short: f.Shorthand, Desc: f.Usage}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "float64":
			fd.Type = flagNumber
		default:
			fd.Type = flagString
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type = flagEnum
				fd.Values = meta.Values
			case meta.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry. Flags come from the same
// FlagSets the commands parse with.
func getCommands() []commandDef {
	var (
		outputDir  string
		common     commonFlags
		jsonOutput bool
	)

	return []commandDef{
		{
			Name:        "convert",
			Desc:        "Export markdown files, directories or web articles",
			Flags:       extractFlags(newConvertFlagSet(&convertFlags{})),
			FilePattern: "*.md,*.markdown",
		},
		{
			Name:  "download",
			Desc:  "Save a web article as markdown with its images",
			Flags: extractFlags(newDownloadFlagSet(&outputDir, &common)),
		},
		{Name: "fonts", Desc: "List the available fonts"},
		{
			Name:  "doctor",
			Desc:  "Check system requirements",
			Flags: extractFlags(newDoctorFlagSet(&jsonOutput)),
		},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command", Args: commands},
		{Name: "completion", Desc: "Generate shell completion script", Args: shells},
	}
}

// GenerateCompletion writes a completion script for shell to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	cmds := getCommands()

	var script string
	switch shell {
	case ShellBash:
		script = bashScript(cmds)
	case ShellZsh:
		script = zshScript(cmds)
	case ShellFish:
		script = fishScript(cmds)
	case ShellPowerShell:
		script = powerShellScript(cmds)
	default:
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedShell, shell, strings.Join(shells, ", "))
	}

	_, err := io.WriteString(w, script)
	return err
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mxe completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate a completion script for bash, zsh, fish or powershell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w, "  Bash        eval \"$(mxe completion bash)\"          # ~/.bashrc")
	fmt.Fprintln(w, "  Zsh         eval \"$(mxe completion zsh)\"           # ~/.zshrc, after compinit")
	fmt.Fprintln(w, "  Fish        mxe completion fish > ~/.config/fish/completions/mxe.fish")
	fmt.Fprintln(w, "  PowerShell  mxe completion powershell | Out-String | Invoke-Expression")
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

func findCommand(cmds []commandDef, name string) commandDef {
	i := slices.IndexFunc(cmds, func(c commandDef) bool { return c.Name == name })
	return cmds[i]
}

// valueFlags returns every flag that takes a value, once per long name.
func valueFlags(cmds []commandDef) []flagDef {
	var out []flagDef
	seen := make(map[string]bool)
	for _, c := range cmds {
		for _, f := range c.Flags {
			if f.Type == flagBool || seen[f.Long] {
				continue
			}
			seen[f.Long] = true
			out = append(out, f)
		}
	}
	return out
}

// flagNames lists "--long" and "-s" spellings.
func flagNames(flags []flagDef) []string {
	var names []string
	for _, f := range flags {
		names = append(names, "--"+f.Long)
		if f.Short != "" {
			names = append(names, "-"+f.Short)
		}
	}
	return names
}

// globExts turns "*.yaml,*.yml" into [yaml yml].
func globExts(glob string) []string {
	var exts []string
	for _, g := range strings.Split(glob, ",") {
		exts = append(exts, strings.TrimPrefix(strings.TrimSpace(g), "*."))
	}
	return exts
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func bashFileGlob(glob string) string {
	return fmt.Sprintf(`COMPREPLY=($(compgen -f -X '!*.@(%s)' -- "${cur}") $(compgen -d -- "${cur}"))`,
		strings.Join(globExts(glob), "|"))
}

func bashWords(words []string) string {
	return fmt.Sprintf(`COMPREPLY=($(compgen -W "%s" -- "${cur}"))`, strings.Join(words, " "))
}

func bashArgs(c commandDef) string {
	switch {
	case len(c.Args) > 0:
		return bashWords(c.Args)
	case c.FilePattern != "":
		return bashFileGlob(c.FilePattern)
	default:
		return "COMPREPLY=()"
	}
}

func bashCommandCase(b *strings.Builder, pattern string, c commandDef) {
	fmt.Fprintf(b, "        %s)\n", pattern)
	b.WriteString("            if [[ ${cur} == -* ]]; then\n")
	fmt.Fprintf(b, "                %s\n", bashWords(flagNames(c.Flags)))
	b.WriteString("            else\n")
	fmt.Fprintf(b, "                %s\n", bashArgs(c))
	b.WriteString("            fi\n")
	b.WriteString("            ;;\n")
}

func bashScript(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("# bash completion for mxe\n")
	b.WriteString("shopt -s extglob\n\n")
	b.WriteString("_mxe_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")

	b.WriteString("    case \"${prev}\" in\n")
	for _, f := range valueFlags(cmds) {
		pattern := "--" + f.Long
		if f.Short != "" {
			pattern += "|-" + f.Short
		}
		var reply string
		switch f.Type {
		case flagEnum:
			reply = bashWords(f.Values)
		case flagFile:
			reply = bashFileGlob(f.FileGlob)
		case flagDir:
			reply = `COMPREPLY=($(compgen -d -- "${cur}"))`
		default:
			reply = "COMPREPLY=()"
		}
		fmt.Fprintf(&b, "        %s)\n            %s\n            return\n            ;;\n", pattern, reply)
	}
	b.WriteString("    esac\n\n")

	convert := findCommand(cmds, "convert")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 && ${cur} != -* ]]; then\n")
	fmt.Fprintf(&b, "        %s\n", bashWords(commandNames(cmds)))
	fmt.Fprintf(&b, "        COMPREPLY+=($(compgen -f -X '!*.@(%s)' -- \"${cur}\"))\n",
		strings.Join(globExts(convert.FilePattern), "|"))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		bashCommandCase(&b, c.Name, c)
	}
	bashCommandCase(&b, "*", convert)
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -F _mxe_completions mxe\n")

	return b.String()
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

var zshDescEscaper = strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`)

func zshFlagSpec(f flagDef) string {
	desc := zshDescEscaper.Replace(f.Desc)

	var action string
	switch f.Type {
	case flagBool:
	case flagEnum:
		action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
	case flagFile:
		action = fmt.Sprintf(`:file:_files -g "*.(%s)"`, strings.Join(globExts(f.FileGlob), "|"))
	case flagDir:
		action = ":directory:_files -/"
	case flagNumber:
		action = ":number: "
	default:
		action = ":value: "
	}

	if f.Short == "" {
		return fmt.Sprintf("'--%s[%s]%s'", f.Long, desc, action)
	}
	return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
}

func zshArguments(b *strings.Builder, indent string, c commandDef) {
	fmt.Fprintf(b, "%s_arguments -s", indent)
	for _, f := range c.Flags {
		fmt.Fprintf(b, " \\\n%s    %s", indent, zshFlagSpec(f))
	}
	switch {
	case len(c.Args) > 0:
		fmt.Fprintf(b, " \\\n%s    '1:%s:(%s)'", indent, c.Name, strings.Join(c.Args, " "))
	case c.FilePattern != "":
		fmt.Fprintf(b, " \\\n%s    '*:input:_files -g \"*.(%s)\"'", indent, strings.Join(globExts(c.FilePattern), "|"))
	}
	b.WriteString("\n")
}

func zshScript(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("#compdef mxe\n\n")
	b.WriteString("_mxe() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshDescEscaper.Replace(c.Desc))
	}
	b.WriteString("    )\n\n")

	convert := findCommand(cmds, "convert")
	b.WriteString("    if (( CURRENT == 2 )) && [[ ${words[CURRENT]} != -* ]]; then\n")
	b.WriteString("        _describe -t commands 'mxe command' commands\n")
	fmt.Fprintf(&b, "        _files -g \"*.(%s)\"\n", strings.Join(globExts(convert.FilePattern), "|"))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${words[2]}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            shift words\n")
		b.WriteString("            (( CURRENT-- ))\n")
		zshArguments(&b, "            ", c)
		b.WriteString("            ;;\n")
	}
	b.WriteString("        *)\n")
	zshArguments(&b, "            ", convert)
	b.WriteString("            ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _mxe mxe\n")

	return b.String()
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

var fishEscaper = strings.NewReplacer(`\`, `\\`, "'", `\'`)

func fishScript(cmds []commandDef) string {
	var b strings.Builder
	names := strings.Join(commandNames(cmds), " ")

	b.WriteString("# fish completion for mxe\n\n")
	b.WriteString("function __fish_mxe_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_mxe_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; or return 1\n")
	b.WriteString("    test \"$cmd[2]\" = \"$argv[1]\"; and return 0\n")
	fmt.Fprintf(&b, "    test \"$argv[1]\" = convert; and not contains -- $cmd[2] %s\n", names)
	b.WriteString("end\n\n")

	b.WriteString("complete -c mxe -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c mxe -n __fish_mxe_needs_command -a %s -d '%s'\n", c.Name, fishEscaper.Replace(c.Desc))
	}
	b.WriteString("\n")

	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_mxe_using_command %s'", c.Name)
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "complete -c mxe -n %s", cond)
			if f.Short != "" {
				fmt.Fprintf(&b, " -s %s", f.Short)
			}
			fmt.Fprintf(&b, " -l %s -d '%s'", f.Long, fishEscaper.Replace(f.Desc))
			switch f.Type {
			case flagBool:
			case flagEnum:
				fmt.Fprintf(&b, " -x -a '%s'", strings.Join(f.Values, " "))
			case flagFile:
				b.WriteString(" -r -F")
			case flagDir:
				b.WriteString(" -x -a '(__fish_complete_directories)'")
			default:
				b.WriteString(" -x")
			}
			b.WriteString("\n")
		}
		switch {
		case len(c.Args) > 0:
			fmt.Fprintf(&b, "complete -c mxe -n %s -a '%s'\n", cond, strings.Join(c.Args, " "))
		case c.FilePattern != "":
			fmt.Fprintf(&b, "complete -c mxe -n '__fish_mxe_needs_command; or __fish_mxe_using_command %s' -F\n", c.Name)
		}
	}

	return b.String()
}

// ---------------------------------------------------------------------------
// PowerShell
// ---------------------------------------------------------------------------

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func psList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = psQuote(s)
	}
	return "@(" + strings.Join(quoted, ", ") + ")"
}

func powerShellScript(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("# powershell completion for mxe\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName mxe -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")

	b.WriteString("    $commands = [ordered]@{\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s = %s\n", psQuote(c.Name), psQuote(c.Desc))
	}
	b.WriteString("    }\n")

	b.WriteString("    $flags = @{\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s = %s\n", psQuote(c.Name), psList(flagNames(c.Flags)))
	}
	b.WriteString("    }\n")

	b.WriteString("    $positional = @{\n")
	for _, c := range cmds {
		if len(c.Args) > 0 {
			fmt.Fprintf(&b, "        %s = %s\n", psQuote(c.Name), psList(c.Args))
		}
	}
	b.WriteString("    }\n")

	b.WriteString("    $values = @{\n")
	for _, f := range valueFlags(cmds) {
		if f.Type != flagEnum {
			continue
		}
		for _, name := range flagNames([]flagDef{f}) {
			fmt.Fprintf(&b, "        %s = %s\n", psQuote(name), psList(f.Values))
		}
	}
	b.WriteString("    }\n\n")

	b.WriteString(`    $elements = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })
    $position = $elements.Count
    if ($wordToComplete -ne '') { $position-- }
    $prev = $elements[$position - 1]

    $candidates = @()
    if ($values.ContainsKey($prev)) {
        $candidates = $values[$prev]
    } elseif ($position -eq 1 -and $wordToComplete -notlike '-*') {
        $candidates = @($commands.Keys)
    } else {
        $cmd = $elements[1]
        if (-not $commands.Contains($cmd)) { $cmd = 'convert' }
        if ($wordToComplete -like '-*') {
            $candidates = $flags[$cmd]
        } elseif ($positional.ContainsKey($cmd)) {
            $candidates = $positional[$cmd]
        }
    }

    $candidates | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
    }
}
`)

	return b.String()
}
