package xmd

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/alnah/go-xmd/internal/augment"
	"github.com/alnah/go-xmd/internal/selectors"
	"github.com/alnah/go-xmd/internal/watcher"
)

// Option configures an Extension.
type Option func(*Extension)

// Engine formats a post's plain text into HTML.
type Engine = augment.Engine

// EngineFunc adapts a function to Engine.
type EngineFunc = augment.EngineFunc

// Selectors describes where posts and their parts live in the host page.
type Selectors = selectors.Config

// DefaultSelectors returns the selectors of the X.com feed.
func DefaultSelectors() Selectors {
	return selectors.Default()
}

const (
	// DefaultDebounce is the quiet period before a scan.
	DefaultDebounce = watcher.DefaultDelay
	// DefaultRenderTimeout bounds one formatting request.
	DefaultRenderTimeout = augment.DefaultRenderTimeout
)

type extensionConfig struct {
	engine        Engine
	logger        *slog.Logger
	clock         clock.Clock
	debounce      time.Duration
	renderTimeout time.Duration
	selectors     Selectors
}

// WithEngine replaces the default goldmark formatter.
func WithEngine(e Engine) Option {
	return func(x *Extension) {
		x.cfg.engine = e
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(x *Extension) {
		if l != nil {
			x.cfg.logger = l
		}
	}
}

// WithClock sets the clock driving the debounce timer. Tests pass a
// clock.Mock.
func WithClock(c clock.Clock) Option {
	return func(x *Extension) {
		if c != nil {
			x.cfg.clock = c
		}
	}
}

// WithDebounce sets the quiet period required before a scan.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithDebounce(d time.Duration) Option {
	if d <= 0 {
		panic("xmd: WithDebounce duration must be positive")
	}
	return func(x *Extension) {
		x.cfg.debounce = d
	}
}

// WithRenderTimeout bounds each formatting request.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithRenderTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("xmd: WithRenderTimeout duration must be positive")
	}
	return func(x *Extension) {
		x.cfg.renderTimeout = d
	}
}

// WithSelectors overrides the host page selectors. Blank fields keep their
// defaults.
func WithSelectors(s Selectors) Option {
	return func(x *Extension) {
		x.cfg.selectors = s.Merge(selectors.Default())
	}
}
