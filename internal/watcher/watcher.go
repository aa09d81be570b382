// Package watcher turns document mutations into debounced scan requests.
package watcher

import (
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/net/html"

	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/selectors"
)

// DefaultDelay is the quiet period required before a scan runs.
const DefaultDelay = 100 * time.Millisecond

// ErrStarted is returned when Start is called twice.
var ErrStarted = errors.New("watcher: already started")

// Watcher observes the document body and schedules one scan per burst of
// relevant mutations. All methods must run on the document's loop.
type Watcher struct {
	doc      *dom.Document
	sel      *selectors.Set
	schedule dom.Scheduler
	scan     func()

	clock  clock.Clock
	delay  time.Duration
	logger *slog.Logger

	observer *dom.Observer
	timer    *clock.Timer
	gen      uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithClock sets the clock driving the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(w *Watcher) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithDelay sets the debounce delay. Values <= 0 keep the default.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a Watcher. schedule moves timer callbacks back onto the loop;
// scan is invoked there once a burst has settled.
func New(doc *dom.Document, sel *selectors.Set, schedule dom.Scheduler, scan func(), opts ...Option) *Watcher {
	w := &Watcher{
		doc:      doc,
		sel:      sel,
		schedule: schedule,
		scan:     scan,
		clock:    clock.New(),
		delay:    DefaultDelay,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start subscribes to node additions anywhere under the body.
func (w *Watcher) Start() error {
	if w.observer != nil {
		return ErrStarted
	}
	body := w.doc.Body()
	if body == nil {
		return dom.ErrNoBody
	}
	obs, err := w.doc.Observe(body, dom.ObserveOptions{ChildList: true, Subtree: true}, w.HandleMutations)
	if err != nil {
		return err
	}
	w.observer = obs
	return nil
}

// Stop disconnects the observer and cancels a pending scan.
func (w *Watcher) Stop() {
	if w.observer != nil {
		w.observer.Disconnect()
		w.observer = nil
	}
	w.cancel()
}

// Pending reports whether a scan is scheduled.
func (w *Watcher) Pending() bool {
	return w.timer != nil
}

// HandleMutations restarts the debounce timer if the batch added anything
// that may be a post.
func (w *Watcher) HandleMutations(records []dom.MutationRecord) {
	if !w.Relevant(records) {
		return
	}
	w.restart()
}

// Relevant reports whether any added element is a post candidate, contains
// one, or carries the marker attribute.
func (w *Watcher) Relevant(records []dom.MutationRecord) bool {
	for _, rec := range records {
		if rec.Type != dom.ChildList {
			continue
		}
		for _, n := range rec.AddedNodes {
			if w.relevantNode(n) {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) relevantNode(n *html.Node) bool {
	if !dom.IsElement(n) {
		return false
	}
	return w.sel.Candidate.Match(n) ||
		dom.Query(n, w.sel.Candidate) != nil ||
		w.sel.HasMarker(n)
}

func (w *Watcher) restart() {
	w.cancel()
	gen := w.gen
	w.timer = w.clock.AfterFunc(w.delay, func() {
		if !w.schedule(func() { w.fire(gen) }) {
			w.logger.Debug("scan dropped, loop closed")
		}
	})
}

// cancel stops the timer and invalidates a callback that already fired.
func (w *Watcher) cancel() {
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) fire(gen uint64) {
	if gen != w.gen {
		return
	}
	w.timer = nil
	w.scan()
}
