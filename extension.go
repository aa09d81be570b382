package xmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/net/html"

	"github.com/alnah/go-xmd/internal/augment"
	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/loop"
	"github.com/alnah/go-xmd/internal/render"
	"github.com/alnah/go-xmd/internal/scanner"
	"github.com/alnah/go-xmd/internal/selectors"
	"github.com/alnah/go-xmd/internal/toggle"
	"github.com/alnah/go-xmd/internal/watcher"
)

// Compile-time interface implementation checks.
var (
	_ Engine            = (*render.Renderer)(nil)
	_ scanner.Augmenter = (*augment.Augmentor)(nil)
)

// Document is a feed page being augmented.
type Document = dom.Document

// ParseDocument reads an HTML page.
func ParseDocument(r io.Reader) (*Document, error) {
	return dom.Parse(r)
}

// State is the display state of one post.
type State = toggle.State

// Toggle states.
const (
	StateRaw       = toggle.Raw
	StateLoading   = toggle.Loading
	StateFormatted = toggle.Formatted
	StateError     = toggle.Error
)

// ScanReport counts the outcomes of one scan.
type ScanReport = scanner.Report

// Stats are cumulative counters for one Extension.
type Stats struct {
	Scans              int // scans run, initial scan included
	Tracked            int // posts currently remembered as augmented
	Augmented          int // controls inserted
	Formatted          int // successful formatting requests
	Restored           int // returns to the original text
	RenderFailures     int
	IgnoredActivations int // presses while a request was in flight
	InFlight           int
}

// idlePoll is how often WaitIdle re-checks the loop.
const idlePoll = 5 * time.Millisecond

// Extension wires the watcher, scanner and augmentor around one document.
// Several Extensions may run side by side, each with its own document.
type Extension struct {
	cfg extensionConfig

	doc       *dom.Document
	loop      *loop.Loop
	sel       *selectors.Set
	augmentor *augment.Augmentor
	scanner   *scanner.Scanner
	watcher   *watcher.Watcher

	renderCtx     context.Context
	cancelRenders context.CancelFunc

	running atomic.Bool
	ready   chan struct{}
	scans   int
	last    ScanReport
}

// New creates an Extension for doc. Call Run to start it.
func New(doc *Document, opts ...Option) (*Extension, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if doc.Body() == nil {
		return nil, ErrNoBody
	}

	x := &Extension{
		cfg: extensionConfig{
			clock:         clock.New(),
			debounce:      DefaultDebounce,
			renderTimeout: DefaultRenderTimeout,
			selectors:     selectors.Default(),
		},
		doc:   doc,
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.cfg.logger == nil {
		x.cfg.logger = slog.New(slog.DiscardHandler)
	}
	if x.cfg.engine == nil {
		x.cfg.engine = render.New(render.WithLogger(x.cfg.logger))
	}

	sel, err := selectors.Compile(x.cfg.selectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	x.sel = sel

	logger := x.cfg.logger
	x.loop = loop.New(logger)
	x.renderCtx, x.cancelRenders = context.WithCancel(context.Background())

	x.augmentor = augment.New(doc, sel, x.cfg.engine, x.loop.Post,
		augment.WithLogger(logger),
		augment.WithRenderTimeout(x.cfg.renderTimeout),
		augment.WithContext(x.renderCtx),
	)
	x.scanner = scanner.New(doc, sel.Post, x.augmentor, logger)
	x.watcher = watcher.New(doc, sel, x.loop.Post, func() { x.scan() },
		watcher.WithClock(x.cfg.clock),
		watcher.WithDelay(x.cfg.debounce),
		watcher.WithLogger(logger),
	)
	return x, nil
}

// Run owns the document until ctx ends: it scans once, starts watching and
// processes events. It returns nil when ctx is canceled.
func (x *Extension) Run(ctx context.Context) error {
	if !x.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	x.doc.SetScheduler(x.loop.Post)
	x.loop.Post(x.start)

	err := x.loop.Run(ctx)

	// The loop has stopped; this goroutine is the only one left that may
	// touch the document.
	x.watcher.Stop()
	x.cancelRenders()
	x.doc.SetScheduler(nil)
	x.cfg.logger.Debug("extension stopped", "scans", x.scans)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (x *Extension) start() {
	r := x.scan()
	if err := x.watcher.Start(); err != nil {
		x.cfg.logger.Error("starting watcher", "error", err)
	}
	x.cfg.logger.Info("extension started", "posts", r.Found, "augmented", r.Augmented)
	close(x.ready)
}

func (x *Extension) scan() ScanReport {
	x.scans++
	r := x.scanner.Scan()
	x.last = r
	if r.Augmented > 0 {
		x.cfg.logger.Debug("scan augmented posts", "augmented", r.Augmented, "found", r.Found)
	}
	return r
}

// Ready is closed after the initial scan, once the watcher is active.
func (x *Extension) Ready() <-chan struct{} {
	return x.ready
}

// Done is closed when Run has returned.
func (x *Extension) Done() <-chan struct{} {
	return x.loop.Done()
}

// do runs fn on the loop.
func (x *Extension) do(ctx context.Context, fn func()) error {
	if !x.running.Load() {
		return ErrNotRunning
	}
	return x.loop.Do(ctx, fn)
}

// Scan visits every post immediately, bypassing the debounce.
func (x *Extension) Scan(ctx context.Context) (ScanReport, error) {
	var r ScanReport
	err := x.do(ctx, func() { r = x.scan() })
	return r, err
}

// LastScan returns the report of the most recent scan.
func (x *Extension) LastScan(ctx context.Context) (ScanReport, error) {
	var r ScanReport
	err := x.do(ctx, func() { r = x.last })
	return r, err
}

// Activate presses control. The call returns once the press is handled; a
// formatting request it starts completes later.
func (x *Extension) Activate(ctx context.Context, control *html.Node) error {
	var activateErr error
	if err := x.do(ctx, func() { activateErr = x.augmentor.Activate(control) }); err != nil {
		return err
	}
	return activateErr
}

// Controls returns every control in the document, in document order.
func (x *Extension) Controls(ctx context.Context) ([]*html.Node, error) {
	var controls []*html.Node
	err := x.do(ctx, func() {
		controls = dom.QueryAll(x.doc.Root(), x.sel.Control)
	})
	return controls, err
}

// State returns the toggle state of control.
func (x *Extension) State(ctx context.Context, control *html.Node) (State, error) {
	var (
		s        State
		stateErr error
	)
	if err := x.do(ctx, func() { s, stateErr = x.augmentor.State(control) }); err != nil {
		return StateRaw, err
	}
	return s, stateErr
}

// Update runs fn on the loop with the document, as the host page would
// mutate it. Mutations are observed like any other.
func (x *Extension) Update(ctx context.Context, fn func(doc *Document) error) error {
	var updateErr error
	if err := x.do(ctx, func() { updateErr = fn(x.doc) }); err != nil {
		return err
	}
	return updateErr
}

// Stats returns a snapshot of the counters.
func (x *Extension) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := x.do(ctx, func() { st = x.stats() })
	return st, err
}

func (x *Extension) stats() Stats {
	a := x.augmentor.Stats()
	return Stats{
		Scans:              x.scans,
		Tracked:            x.augmentor.Tracked(),
		Augmented:          a.Augmented,
		Formatted:          a.Formatted,
		Restored:           a.Restored,
		RenderFailures:     a.RenderFailures,
		IgnoredActivations: a.IgnoredActivations,
		InFlight:           a.InFlight,
	}
}

// WaitIdle blocks until no mutation delivery, scan or formatting request is
// pending.
func (x *Extension) WaitIdle(ctx context.Context) error {
	select {
	case <-x.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-x.Done():
		return ErrStopped
	}

	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()
	for {
		var idle bool
		if err := x.do(ctx, func() { idle = x.idle() }); err != nil {
			return err
		}
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (x *Extension) idle() bool {
	return !x.doc.Pending() && !x.watcher.Pending() && x.augmentor.Idle()
}

// Render writes the current document as HTML.
func (x *Extension) Render(ctx context.Context, w io.Writer) error {
	var renderErr error
	if err := x.do(ctx, func() { renderErr = x.doc.Render(w) }); err != nil {
		return err
	}
	return renderErr
}
