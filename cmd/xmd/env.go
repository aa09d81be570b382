package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alnah/go-xmd/internal/capture"
)

// snapshotter captures live pages. *capture.Capturer implements it.
type snapshotter interface {
	Capture(ctx context.Context, url string) (*capture.Result, error)
	Close() error
}

var _ snapshotter = (*capture.Capturer)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now         func() time.Time
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	NewCapturer func(opts capture.Options) (snapshotter, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewCapturer: func(opts capture.Options) (snapshotter, error) {
			return capture.New(opts)
		},
	}
}
