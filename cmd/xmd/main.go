// Command xmd adds a raw/formatted toggle to the posts of captured feed
// pages, formats post text, and captures live feeds with headless Chrome.
package main

import (
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	undo, _ := maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))

	code := runMain(os.Args, DefaultEnv())
	undo()
	os.Exit(code)
}
