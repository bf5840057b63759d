// Package rerun schedules annotation passes: one pass after a warm-up delay,
// then one pass per burst of change signals once the burst has been quiet for
// the debounce window.
package rerun

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the coordinator's position in Idle -> Scheduled -> Running -> Idle.
type State int32

const (
	Idle State = iota
	Scheduled
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Defaults match the pacing of the host page's asynchronous list loading.
const (
	DefaultWarmup   = 1200 * time.Millisecond
	DefaultDebounce = 250 * time.Millisecond
)

// RunFunc performs one full pass. Errors are logged; they never stop the
// coordinator, the next signal simply runs again.
type RunFunc func(ctx context.Context, runID string) error

// Options configure a Coordinator.
type Options struct {
	Warmup   time.Duration
	Debounce time.Duration
	Logger   *slog.Logger
}

// Coordinator owns the warm-up and debounce timers. All passes run on the
// goroutine that called Serve, so they never overlap.
type Coordinator struct {
	run    RunFunc
	opts   Options
	state  atomic.Int32
	passes atomic.Int64
}

// New creates a coordinator. Zero durations fall back to the defaults.
func New(run RunFunc, opts Options) *Coordinator {
	if opts.Warmup <= 0 {
		opts.Warmup = DefaultWarmup
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{run: run, opts: opts}
}

// State returns the current state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Passes returns how many passes have completed.
func (c *Coordinator) Passes() int64 {
	return c.passes.Load()
}

// Serve runs until ctx is cancelled. The first pass fires after the warm-up
// delay; signals arriving during warm-up are absorbed by it. Afterwards each
// signal (re)arms the debounce timer, so a burst yields a single pass. A
// closed signals channel stops further scheduling but Serve keeps waiting
// for ctx.
func (c *Coordinator) Serve(ctx context.Context, signals <-chan struct{}) error {
	timer := time.NewTimer(c.opts.Warmup)
	defer timer.Stop()
	fire := timer.C
	warming := true
	c.state.Store(int32(Scheduled))
	c.opts.Logger.Debug("rerun warm-up scheduled", "delay", c.opts.Warmup)

	for {
		select {
		case <-ctx.Done():
			c.state.Store(int32(Idle))
			return ctx.Err()

		case _, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			if warming {
				continue
			}
			timer.Reset(c.opts.Debounce)
			fire = timer.C
			c.state.Store(int32(Scheduled))

		case <-fire:
			fire = nil
			warming = false
			c.pass(ctx)
		}
	}
}

func (c *Coordinator) pass(ctx context.Context) {
	c.state.Store(int32(Running))
	defer c.state.Store(int32(Idle))

	runID := uuid.NewString()
	start := time.Now()
	if err := c.run(ctx, runID); err != nil {
		c.opts.Logger.Warn("rerun pass failed", "run", runID, "error", err)
	} else {
		c.opts.Logger.Debug("rerun pass complete", "run", runID, "duration", time.Since(start))
	}
	c.passes.Add(1)
}

// Trigger is a dataless, coalescing signal source. Any number of Fire calls
// between two receives collapse into one pending signal.
type Trigger struct {
	ch chan struct{}
}

// NewTrigger creates a Trigger.
func NewTrigger() *Trigger {
	return &Trigger{ch: make(chan struct{}, 1)}
}

// Fire records a signal without blocking.
func (t *Trigger) Fire() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

// C is the channel to pass to Serve.
func (t *Trigger) C() <-chan struct{} {
	return t.ch
}
