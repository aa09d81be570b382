package xmd

import (
	"errors"

	"github.com/alnah/go-xmd/internal/augment"
	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/loop"
)

// Sentinel errors for library operations.
var (
	ErrNilDocument    = errors.New("document cannot be nil")
	ErrAlreadyRunning = errors.New("extension is already running")
	ErrNotRunning     = errors.New("extension is not running")
	ErrInvalidConfig  = errors.New("invalid selector configuration")

	// Re-exported from internal packages so callers can match with errors.Is.
	ErrNoBody         = dom.ErrNoBody
	ErrUnknownControl = augment.ErrUnknownControl
	ErrStopped        = loop.ErrClosed
)
