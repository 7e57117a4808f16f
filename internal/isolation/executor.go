package isolation

import (
	"context"
	"sync"
	"time"

	"autowin/internal/platform"

	"github.com/rs/zerolog"
)

// Task is one unit of automation work, invoked with a context carrying the
// isolation Env. A caller-supplied stop check surfaces as context
// cancellation; the executor never swallows it.
type Task func(ctx context.Context) (any, error)

// Result is the outcome of an isolated run.
type Result struct {
	Success bool
	// Reason explains a non-dispatched or failed run.
	Reason string
	// Payload is whatever the task body returned.
	Payload any
}

// Executor wraps task invocations so each runs against exactly one window.
// Multiple executors run concurrently, one per bound window; they share the
// state cache but never each other's foreground handling.
type Executor struct {
	backend    platform.Backend
	log        zerolog.Logger
	cooldown   time.Duration
	settle     time.Duration
	foreground bool
	clock      func() time.Time
	sleep      func(time.Duration)

	mu            sync.Mutex
	lastActivated time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithForegroundActivation makes Preparing activate the target window and
// verify the activation took. Only single-window flows use this; parallel
// runs stay in background delivery.
func WithForegroundActivation() Option {
	return func(e *Executor) { e.foreground = true }
}

// WithClock injects the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Executor) { e.clock = clock }
}

// WithSleep injects the post-activation sleeper, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// New creates an Executor. cooldown rate-limits window activation.
func New(backend platform.Backend, cooldown time.Duration, log zerolog.Logger, opts ...Option) *Executor {
	e := &Executor{
		backend:  backend,
		log:      log.With().Str("component", "isolation").Logger(),
		cooldown: cooldown,
		settle:   100 * time.Millisecond,
		clock:    time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the task pinned to the given window:
// Validating -> Preparing -> Dispatching -> Verifying -> Done.
// Validation failure means the task is never dispatched and Run returns a
// negative Result with the reason. A task error propagates to the caller
// after cleanup; cleanup runs exactly once on every exit path, panics
// included.
func (e *Executor) Run(ctx context.Context, h platform.Handle, task Task) (Result, error) {
	log := e.log.With().Uint32("handle", uint32(h)).Logger()

	// Validating.
	if !e.backend.IsLive(h) {
		log.Warn().Msg("validation failed: window handle is not live")
		return Result{Success: false, Reason: "window handle is not live"}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{Success: false, Reason: "cancelled before dispatch"}, err
	}

	// The pre-dispatch foreground is what Verifying restores to.
	preForeground, err := e.backend.Foreground()
	if err != nil {
		log.Debug().Err(err).Msg("could not read pre-dispatch foreground")
		preForeground = platform.None
	}

	// Preparing.
	if minimized, err := e.backend.IsMinimized(h); err == nil && minimized {
		if err := e.backend.Restore(h); err != nil {
			log.Warn().Err(err).Msg("failed to restore minimized window")
		}
	}
	if e.foreground {
		e.activate(h, log)
	}

	// Dispatching: pin the target and force background delivery so nested
	// code paths never activate windows on their own.
	taskCtx := NewContext(ctx, Env{
		Target:      h,
		Delivery:    DeliveryBackground,
		MultiWindow: true,
	})

	var payload any
	var taskErr error
	func() {
		defer e.verify(h, preForeground, log)
		log.Debug().Msg("dispatching task")
		payload, taskErr = task(taskCtx)
	}()

	if taskErr != nil {
		log.Error().Err(taskErr).
			Uint32("pre_foreground", uint32(preForeground)).
			Bool("foreground_mode", e.foreground).
			Msg("task body failed")
		return Result{Success: false, Reason: taskErr.Error(), Payload: payload}, taskErr
	}

	log.Debug().Msg("task completed")
	return Result{Success: true, Payload: payload}, nil
}

// activate brings the target to the foreground and verifies it took,
// rate-limited so rapid successive runs do not thrash the window manager.
func (e *Executor) activate(h platform.Handle, log zerolog.Logger) {
	e.mu.Lock()
	since := e.clock().Sub(e.lastActivated)
	if since < e.cooldown {
		e.mu.Unlock()
		log.Debug().Dur("since_last", since).Msg("activation skipped by cooldown")
		return
	}
	e.lastActivated = e.clock()
	e.mu.Unlock()

	if err := e.backend.SetForeground(h); err != nil {
		log.Warn().Err(err).Msg("activation request failed")
		return
	}
	e.sleep(e.settle)

	if fore, err := e.backend.Foreground(); err == nil && fore != h {
		log.Warn().Uint32("foreground", uint32(fore)).
			Msg("activation did not take; continuing in background delivery")
	}
}

// verify re-reads the OS foreground after the task. If this task's window
// unexpectedly took the foreground away from whoever held it before
// dispatch, the prior foreground is restored. Best-effort: a real user or
// another process can race this, which is mitigated, not escalated.
func (e *Executor) verify(h, preForeground platform.Handle, log zerolog.Logger) {
	if e.foreground {
		// Foreground mode owns the activation; nothing to undo.
		return
	}

	fore, err := e.backend.Foreground()
	if err != nil {
		log.Debug().Err(err).Msg("could not read foreground for verification")
		return
	}
	if fore != h || preForeground == h || preForeground == platform.None {
		return
	}

	log.Warn().
		Uint32("stolen_from", uint32(preForeground)).
		Msg("window took foreground during background run, restoring prior foreground")
	if err := e.backend.SetForeground(preForeground); err != nil {
		log.Warn().Err(err).Msg("failed to restore prior foreground")
		return
	}
	e.sleep(e.settle)
}
