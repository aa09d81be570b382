// Package augment attaches toggle controls to posts and runs their state
// machines.
//
// An Augmentor is owned by one event loop: Augment, Activate and Stats must
// be called there. Formatting runs on its own goroutine and the result is
// scheduled back onto the loop.
package augment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/registry"
	"github.com/alnah/go-xmd/internal/selectors"
	"github.com/alnah/go-xmd/internal/toggle"
)

// DefaultRenderTimeout bounds one formatting request.
const DefaultRenderTimeout = 10 * time.Second

// Sentinel errors.
var (
	ErrUnknownControl = errors.New("augment: element is not a known control")
	ErrRegionGone     = errors.New("augment: text region no longer exists")
)

// Engine formats plain text into HTML markup.
type Engine interface {
	Render(ctx context.Context, text string) (string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, text string) (string, error)

// Render calls f.
func (f EngineFunc) Render(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Outcome is the result of augmenting one post.
type Outcome int

// Augment outcomes.
const (
	Augmented        Outcome = iota // control inserted
	AlreadyAugmented                // post seen before
	NoTextRegion                    // skipped, retried on a later scan
	NoActionBar                     // skipped, retried on a later scan
	ControlPresent                  // a control was already in the action bar
	Failed                          // insertion failed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Augmented:
		return "augmented"
	case AlreadyAugmented:
		return "already-augmented"
	case NoTextRegion:
		return "no-text-region"
	case NoActionBar:
		return "no-action-bar"
	case ControlPresent:
		return "control-present"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats are cumulative counters.
type Stats struct {
	Augmented          int
	Formatted          int
	Restored           int
	RenderFailures     int
	IgnoredActivations int
	InFlight           int
}

// Augmentor injects controls and dispatches activations.
type Augmentor struct {
	doc      *dom.Document
	sel      *selectors.Set
	engine   Engine
	schedule dom.Scheduler

	ctx     context.Context
	timeout time.Duration
	logger  *slog.Logger
	newID   func() string

	seen     *registry.Set[html.Node]
	controls *registry.Map[html.Node, *Controller]
	stats    Stats
}

// Option configures an Augmentor.
type Option func(*Augmentor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Augmentor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRenderTimeout bounds each formatting request. Values <= 0 keep the
// default.
func WithRenderTimeout(d time.Duration) Option {
	return func(a *Augmentor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithContext sets the parent context of formatting requests. Canceling it
// fails requests still in flight.
func WithContext(ctx context.Context) Option {
	return func(a *Augmentor) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// New creates an Augmentor. schedule must run tasks on the loop that owns doc.
func New(doc *dom.Document, sel *selectors.Set, engine Engine, schedule dom.Scheduler, opts ...Option) *Augmentor {
	a := &Augmentor{
		doc:      doc,
		sel:      sel,
		engine:   engine,
		schedule: schedule,
		ctx:      context.Background(),
		timeout:  DefaultRenderTimeout,
		logger:   slog.New(slog.DiscardHandler),
		newID:    uuid.NewString,
		seen:     registry.NewSet[html.Node](),
		controls: registry.NewMap[html.Node, *Controller](),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Augment inserts a control into post unless it was handled before. Posts
// missing a text region or an action bar are left unmarked so a later scan
// can retry them.
func (a *Augmentor) Augment(post *html.Node) Outcome {
	if a.seen.Has(post) {
		return AlreadyAugmented
	}

	region := dom.Query(post, a.sel.TextRegion)
	if region == nil {
		a.logger.Debug("post has no text region", "selector", a.sel.TextRegion.String())
		return NoTextRegion
	}
	bar := dom.Query(post, a.sel.ActionBar)
	if bar == nil {
		a.logger.Debug("post has no action bar", "selector", a.sel.ActionBar.String())
		return NoActionBar
	}
	if dom.Query(bar, a.sel.Control) != nil {
		// A control this augmentor did not build stays inert: no controller
		// is bound, so Activate reports ErrUnknownControl for it.
		a.seen.Add(post)
		return ControlPresent
	}

	a.seen.Add(post)

	id := a.newID()
	control := newControl(id)
	if err := a.doc.InsertBefore(bar, control, dom.FirstElementChild(bar)); err != nil {
		a.seen.Remove(post)
		a.logger.Warn("inserting control failed", "control", id, "error", err)
		return Failed
	}

	a.controls.Store(control, newController(a, id, region, control))
	a.stats.Augmented++
	return Augmented
}

// Activate dispatches a press of control.
func (a *Augmentor) Activate(control *html.Node) error {
	c, ok := a.controls.Load(control)
	if !ok {
		return ErrUnknownControl
	}
	c.activate()
	return nil
}

// Controller returns the controller bound to control.
func (a *Augmentor) Controller(control *html.Node) (*Controller, bool) {
	return a.controls.Load(control)
}

// State returns the toggle state of control.
func (a *Augmentor) State(control *html.Node) (toggle.State, error) {
	c, ok := a.controls.Load(control)
	if !ok {
		return toggle.Raw, ErrUnknownControl
	}
	return c.State(), nil
}

// Seen reports whether post is marked as handled.
func (a *Augmentor) Seen(post *html.Node) bool {
	return a.seen.Has(post)
}

// Tracked returns the number of live marked posts.
func (a *Augmentor) Tracked() int {
	return a.seen.Len()
}

// Stats returns the counters.
func (a *Augmentor) Stats() Stats {
	return a.stats
}

// Idle reports whether no formatting request is in flight.
func (a *Augmentor) Idle() bool {
	return a.stats.InFlight == 0
}
