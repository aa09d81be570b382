package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xmd <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  augment    Add formatting toggles to a captured feed page")
	fmt.Fprintln(w, "  render     Format post text as HTML")
	fmt.Fprintln(w, "  capture    Snapshot a live feed with headless Chrome")
	fmt.Fprintln(w, "  doctor     Check browser and configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'xmd help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

// printAugmentUsage prints usage for the augment command.
func printAugmentUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xmd augment [snapshot.html] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Add a raw/formatted toggle to every post of a captured feed page.")
	fmt.Fprintln(w, "Reads stdin when no snapshot is given.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default: stdout)")
	fmt.Fprintln(w, "      --format-all          Press every toggle once")
	fmt.Fprintln(w, "      --stream              Replay posts one at a time, like infinite scroll")
	fmt.Fprintln(w, "      --stream-interval <d> Delay between streamed posts (default 50ms)")
	fmt.Fprintln(w, "      --debounce <d>        Mutation debounce (default 100ms)")
	fmt.Fprintln(w, "      --style <name>        Highlight style for code blocks")
	fmt.Fprintln(w, "      --no-style            Do not add the stylesheet")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xmd render [file] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Format markdown text as an HTML fragment. Reads stdin when no file is given.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default: stdout)")
	fmt.Fprintln(w, "      --page                Wrap the fragment in a standalone HTML page")
	fmt.Fprintln(w, "      --fallback            Print escaped text instead of failing")
	fmt.Fprintln(w, "      --style <name>        Highlight style for --page")
	fmt.Fprintln(w, "      --no-style            Omit the stylesheet from --page")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printCaptureUsage prints usage for the capture command.
func printCaptureUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xmd capture <url> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Open a feed in headless Chrome, wait for posts, scroll and save the page.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default: stdout)")
	fmt.Fprintln(w, "      --scrolls <n>         Viewport scrolls after load (default 5)")
	fmt.Fprintln(w, "      --cookies <file>      JSON cookie file for a logged-in session")
	fmt.Fprintln(w, "  -t, --timeout <d>         Bound for the whole capture (default 90s)")
	fmt.Fprintln(w, "      --augment             Augment the snapshot before writing it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN           Use an installed Chrome")
	fmt.Fprintln(w, "  ROD_NO_SANDBOX=1          Disable the sandbox (Docker/CI)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xmd doctor [--json] [-c config] [-v]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome discovery, the environment and the effective configuration.")
	fmt.Fprintln(w, "With -v the effective configuration is printed as YAML.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "augment":
		printAugmentUsage(env.Stdout)
	case "render":
		printRenderUsage(env.Stdout)
	case "capture":
		printCaptureUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: xmd version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: xmd help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
