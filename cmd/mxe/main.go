package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if wantsVerbose(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := run(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// commands are the subcommand names; anything else is an implicit convert.
var commands = []string{"convert", "download", "fonts", "doctor", "version", "help", "completion"}

// run dispatches args to a command and returns the exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := "convert", args
	switch {
	case slices.Contains(commands, args[0]):
		cmd, rest = args[0], args[1:]
	case args[0] == "-h" || args[0] == "--help":
		cmd, rest = "help", nil
	}

	var err error
	switch cmd {
	case "version":
		fmt.Fprintf(env.Stdout, "mxe %s\n", Version)
	case "help":
		err = runHelp(rest, env)
	case "fonts":
		err = runFonts(env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "download":
		err = runDownload(ctx, rest, env)
	case "completion":
		err = runCompletion(rest, env)
	default:
		err = runConvertCmd(ctx, rest, env)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, err.Error()+hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// wantsVerbose reports whether -v or --verbose appears before "--".
func wantsVerbose(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}
