package rerun

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	times []time.Time
	ids   []string
	done  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 100)}
}

func (r *recorder) run(_ context.Context, id string) error {
	r.mu.Lock()
	r.times = append(r.times, time.Now())
	r.ids = append(r.ids, id)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.times)
}

func waitPass(t *testing.T, r *recorder, timeout time.Duration) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for pass")
	}
}

func serve(t *testing.T, c *Coordinator, signals <-chan struct{}) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Serve(ctx, signals) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)
	})
	return cancel
}

func TestCoordinator_WarmupPass(t *testing.T) {
	rec := newRecorder()
	c := New(rec.run, Options{Warmup: 40 * time.Millisecond, Debounce: 10 * time.Millisecond})

	start := time.Now()
	serve(t, c, nil)

	waitPass(t, rec, time.Second)
	assert.GreaterOrEqual(t, rec.times[0].Sub(start), 40*time.Millisecond)
	assert.NotEmpty(t, rec.ids[0])

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, rec.count(), "no signal, no second pass")
	assert.Equal(t, Idle, c.State())
}

func TestCoordinator_SignalsDuringWarmupAbsorbed(t *testing.T) {
	rec := newRecorder()
	c := New(rec.run, Options{Warmup: 50 * time.Millisecond, Debounce: 10 * time.Millisecond})
	trig := NewTrigger()
	serve(t, c, trig.C())

	for i := 0; i < 5; i++ {
		trig.Fire()
		time.Sleep(5 * time.Millisecond)
	}
	waitPass(t, rec, time.Second)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestCoordinator_DebounceCollapsesBurst(t *testing.T) {
	rec := newRecorder()
	c := New(rec.run, Options{Warmup: 10 * time.Millisecond, Debounce: 40 * time.Millisecond})
	trig := NewTrigger()
	serve(t, c, trig.C())
	waitPass(t, rec, time.Second)

	var last time.Time
	for i := 0; i < 6; i++ {
		trig.Fire()
		last = time.Now()
		time.Sleep(10 * time.Millisecond)
	}

	waitPass(t, rec, time.Second)
	rec.mu.Lock()
	second := rec.times[1]
	rec.mu.Unlock()
	assert.GreaterOrEqual(t, second.Sub(last), 40*time.Millisecond, "pass fires only after the burst went quiet")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 2, rec.count(), "one pass per burst")
	assert.EqualValues(t, 2, c.Passes())
}

func TestCoordinator_SeparateBurstsRunSeparately(t *testing.T) {
	rec := newRecorder()
	c := New(rec.run, Options{Warmup: 10 * time.Millisecond, Debounce: 15 * time.Millisecond})
	trig := NewTrigger()
	serve(t, c, trig.C())
	waitPass(t, rec, time.Second)

	trig.Fire()
	waitPass(t, rec, time.Second)
	trig.Fire()
	waitPass(t, rec, time.Second)

	assert.Equal(t, 3, rec.count())
}

func TestCoordinator_PassesNeverOverlap(t *testing.T) {
	var mu sync.Mutex
	active, maxActive, passes := 0, 0, 0
	run := func(context.Context, string) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		active--
		passes++
		mu.Unlock()
		return nil
	}
	c := New(run, Options{Warmup: 5 * time.Millisecond, Debounce: 5 * time.Millisecond})
	trig := NewTrigger()
	serve(t, c, trig.C())

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		trig.Fire()
		time.Sleep(2 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxActive)
	assert.GreaterOrEqual(t, passes, 1)
}

func TestCoordinator_RunErrorDoesNotStop(t *testing.T) {
	calls := make(chan struct{}, 10)
	run := func(context.Context, string) error {
		calls <- struct{}{}
		return errors.New("boom")
	}
	c := New(run, Options{Warmup: 5 * time.Millisecond, Debounce: 5 * time.Millisecond})
	trig := NewTrigger()
	serve(t, c, trig.C())

	<-calls
	trig.Fire()
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("coordinator stopped after a failed pass")
	}
}

func TestCoordinator_ClosedSignals(t *testing.T) {
	rec := newRecorder()
	c := New(rec.run, Options{Warmup: 5 * time.Millisecond})
	signals := make(chan struct{})
	close(signals)
	serve(t, c, signals)

	waitPass(t, rec, time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestCoordinator_CancelBeforeWarmup(t *testing.T) {
	rec := newRecorder()
	c := New(rec.run, Options{Warmup: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Serve(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, Idle, c.State())
}

func TestNew_Defaults(t *testing.T) {
	c := New(func(context.Context, string) error { return nil }, Options{})
	assert.Equal(t, DefaultWarmup, c.opts.Warmup)
	assert.Equal(t, DefaultDebounce, c.opts.Debounce)
	assert.NotNil(t, c.opts.Logger)
}

func TestTrigger_Coalesces(t *testing.T) {
	trig := NewTrigger()
	for i := 0; i < 10; i++ {
		trig.Fire()
	}
	<-trig.C()
	select {
	case <-trig.C():
		t.Fatal("expected a single pending signal")
	default:
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "scheduled", Scheduled.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "unknown", State(9).String())
}
