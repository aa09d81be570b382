// Package loop provides the single logical thread that owns the document.
//
// Tasks are queued from any goroutine and run one at a time, in order, on
// the goroutine that called Run. Timers and background work never touch the
// document directly; they post a task instead.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Sentinel errors for loop operations.
var (
	ErrClosed  = errors.New("loop: closed")
	ErrRunning = errors.New("loop: already running")
	ErrPanic   = errors.New("loop: task panicked")
)

// Loop is an unbounded FIFO of tasks drained by one goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	running atomic.Bool
	logger  *slog.Logger
}

// New creates a loop. A nil logger discards task panics' diagnostics.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues fn. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	var taskErr error

	ok := l.Post(func() {
		defer close(finished)
		defer func() {
			if r := recover(); r != nil {
				taskErr = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		fn()
	})
	if !ok {
		return ErrClosed
	}

	select {
	case <-finished:
		return taskErr
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// The task may have run just before shutdown.
		select {
		case <-finished:
			return taskErr
		default:
			return ErrClosed
		}
	}
}

// Run drains tasks until ctx ends. Queued tasks are dropped on exit and
// later posts are rejected. A loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.shutdown()

	for {
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn, ok := l.next()
			if !ok {
				break
			}
			l.run(fn)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// run executes one task. A panic is logged and the loop keeps going.
func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", r)
		}
	}()
	fn()
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
	close(l.done)
}
