// Package debounce delays calls to a function until a quiet period has
// elapsed since the last call, collapsing bursts of calls into one.
//
// The function is called with the argument of the most recent call. Several
// arguments can be carried by using a struct as the argument type.
//
// Example usage:
//
//	package main
//
//	import (
package debounce

import (
	"context"
	"log/slog"
	"sync"
	"time"

	bounce "github.com/romdo/go-debounce"
)

// DefaultDelay is the quiet period used when no delay is configured.
const DefaultDelay = 300 * time.Millisecond

// Logger defines the minimal logging interface used by Debouncer.
// It matches log/slog.Logger's LogAttrs method.
type Logger interface {
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
}

type noopLogger struct{}

func (noopLogger) LogAttrs(_ context.Context, _ slog.Level, _ string, _ ...slog.Attr) {}

type config struct {
	delay  time.Duration
	logger Logger
}

// Option configures a Debouncer.
type Option func(*config)

// WithDelay sets the quiet period. Negative values are treated as zero.
// Default is DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = max(d, 0)
	}
}

// WithLogger sets a Logger receiving debug records about scheduled, dropped
// and fired calls. Default discards everything.
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Debouncer wraps a function so that it runs once per quiet period.
// It is safe for concurrent use.
type Debouncer[T any] struct {
	fn     func(T)
	delay  time.Duration
	logger Logger

	trigger func()
	stop    func()

	mu      sync.Mutex
	arg     T
	pending bool
	// due is when the latest call may fire. A timer run that was already
	// waiting on mu when a newer Call arrived sees an earlier time and
	// leaves the call to the rescheduled timer.
	due time.Time
}

// New returns a Debouncer calling fn after the configured delay has elapsed
// without further calls.
func New[T any](fn func(T), opts ...Option) *Debouncer[T] {
	c := &config{
		delay:  DefaultDelay,
		logger: noopLogger{},
	}

	for _, opt := range opts {
		opt(c)
	}

	d := &Debouncer[T]{
		fn:     fn,
		delay:  c.delay,
		logger: c.logger,
	}
	d.trigger, d.stop = bounce.New(c.delay, d.fire)

	return d
}

// Func returns a function that debounces fn by delay. It is the plain
// functional form of New for callers that never need Cancel or Flush.
func Func[T any](fn func(T), delay time.Duration) func(T) {
	return New(fn, WithDelay(delay)).Call
}

// Call cancels any pending invocation and schedules a new one with arg after
// the delay.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.arg = arg
	d.pending = true
	d.due = time.Now().Add(d.delay)
	d.trigger()

	d.logger.LogAttrs(context.Background(), slog.LevelDebug, "debounced call scheduled",
		slog.Duration("delay", d.delay))
}

// Cancel drops the pending invocation, if any, and reports whether there was one.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending {
		return false
	}

	d.reset()
	d.logger.LogAttrs(context.Background(), slog.LevelDebug, "debounced call cancelled")

	return true
}

// Flush runs the pending invocation immediately on the calling goroutine and
// reports whether there was one.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}

	arg := d.arg
	d.reset()
	d.mu.Unlock()

	d.logger.LogAttrs(context.Background(), slog.LevelDebug, "debounced call flushed")
	d.fn(arg)

	return true
}

// Pending reports whether an invocation is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if !d.pending || time.Now().Before(d.due) {
		d.mu.Unlock()
		return
	}

	arg := d.arg
	d.pending = false
	var zero T
	d.arg = zero
	d.mu.Unlock()

	d.logger.LogAttrs(context.Background(), slog.LevelDebug, "debounced call fired")
	d.fn(arg)
}

// reset must be called with mu held.
func (d *Debouncer[T]) reset() {
	d.stop()
	d.pending = false
	var zero T
	d.arg = zero
}
