package main

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// styleFlags controls the highlight stylesheet.
type styleFlags struct {
	style   string
	noStyle bool
}

// augmentFlags holds flags for the augment command.
type augmentFlags struct {
	common         commonFlags
	style          styleFlags
	output         string
	formatAll      bool
	stream         bool
	streamInterval time.Duration
	debounce       time.Duration
}

// renderFlags holds flags for the render command.
type renderFlags struct {
	common   commonFlags
	style    styleFlags
	output   string
	page     bool
	fallback bool
}

// captureFlags holds flags for the capture command.
type captureFlags struct {
	common  commonFlags
	output  string
	scrolls int
	cookies string
	timeout time.Duration
	augment bool
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addStyleFlags adds stylesheet flags to a FlagSet.
func addStyleFlags(fs *flag.FlagSet, f *styleFlags) {
	fs.StringVar(&f.style, "style", "", "highlight style for code blocks")
	fs.BoolVar(&f.noStyle, "no-style", false, "do not add the stylesheet")
}

func newFlagSet(name string, usage func(io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parseAugmentFlags parses augment command flags and returns positional args.
func parseAugmentFlags(args []string, stderr io.Writer) (*augmentFlags, []string, error) {
	f := &augmentFlags{}
	fs := newFlagSet("augment", printAugmentUsage, stderr)

	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fs.BoolVar(&f.formatAll, "format-all", false, "press every control once")
	fs.BoolVar(&f.stream, "stream", false, "replay posts one at a time through the watcher")
	fs.DurationVar(&f.streamInterval, "stream-interval", 50*time.Millisecond, "delay between streamed posts")
	fs.DurationVar(&f.debounce, "debounce", 0, "mutation debounce (overrides config)")
	addCommonFlags(fs, &f.common)
	addStyleFlags(fs, &f.style)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, stderr io.Writer) (*renderFlags, []string, error) {
	f := &renderFlags{}
	fs := newFlagSet("render", printRenderUsage, stderr)

	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fs.BoolVar(&f.page, "page", false, "wrap the fragment in a standalone HTML page")
	fs.BoolVar(&f.fallback, "fallback", false, "print escaped text instead of failing")
	addCommonFlags(fs, &f.common)
	addStyleFlags(fs, &f.style)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseCaptureFlags parses capture command flags and returns positional args.
func parseCaptureFlags(args []string, stderr io.Writer) (*captureFlags, []string, error) {
	f := &captureFlags{}
	fs := newFlagSet("capture", printCaptureUsage, stderr)

	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fs.IntVar(&f.scrolls, "scrolls", -1, "viewport scrolls after load (default from config)")
	fs.StringVar(&f.cookies, "cookies", "", "JSON cookie file for a logged-in session")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "bound for the whole capture (e.g. 90s)")
	fs.BoolVar(&f.augment, "augment", false, "augment the snapshot before writing it")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newFlagSet("doctor", printDoctorUsage, stderr)

	fs.BoolVar(&f.json, "json", false, "print the report as JSON")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	return f, nil
}
