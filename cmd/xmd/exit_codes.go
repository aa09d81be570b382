package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	xmd "github.com/alnah/go-xmd"
	"github.com/alnah/go-xmd/internal/capture"
	"github.com/alnah/go-xmd/internal/config"
	"github.com/alnah/go-xmd/internal/fileutil"
	"github.com/alnah/go-xmd/internal/hints"
	"github.com/alnah/go-xmd/internal/logging"
	"github.com/alnah/go-xmd/internal/render"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage          = errors.New("invalid usage")
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoInput        = errors.New("no input specified")
	ErrReadInput      = errors.New("failed to read input")
	ErrWriteOutput    = errors.New("failed to write output")
	ErrInputTooLarge  = errors.New("input too large")
)

// Exit codes for the xmd CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// usageError wraps a flag parsing error. Help requests pass through.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, capture.ErrBrowserConnect) ||
		errors.Is(err, capture.ErrPageCreate) ||
		errors.Is(err, capture.ErrPageLoad) ||
		errors.Is(err, capture.ErrNoPosts) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, capture.ErrCookies) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrInputTooLarge) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, logging.ErrUnknownLevel) ||
		errors.Is(err, render.ErrUnknownStyle) ||
		errors.Is(err, render.ErrEmptyText) ||
		errors.Is(err, render.ErrInputTooLarge) ||
		errors.Is(err, capture.ErrInvalidURL) ||
		errors.Is(err, xmd.ErrInvalidConfig) ||
		errors.Is(err, xmd.ErrNoBody) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintContext carries what hintFor needs to know about the failed command.
type hintContext struct {
	command    string
	configName string
	cookies    bool
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, hc hintContext) string {
	switch {
	case errors.Is(err, capture.ErrBrowserConnect), errors.Is(err, capture.ErrPageCreate):
		return hints.ForBrowserConnect()
	case errors.Is(err, capture.ErrNoPosts):
		return hints.ForNoPosts(hc.cookies)
	case errors.Is(err, context.DeadlineExceeded) && hc.command == "capture":
		return hints.ForCaptureTimeout()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForRenderTimeout()
	case errors.Is(err, config.ErrConfigNotFound) && hc.configName != "" && !fileutil.IsFilePath(hc.configName):
		return hints.ForConfigNotFound(config.SearchPaths(hc.configName))
	case errors.Is(err, render.ErrUnknownStyle):
		return hints.ForStyleNotFound(render.Styles())
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutput()
	}
	return ""
}
