// Package resize adjusts a window's client area to an exact pixel size,
// including the parent/child dance embedded render surfaces require.
package resize

import (
	"errors"
	"fmt"
	"time"

	"autowin/internal/config"
	"autowin/internal/platform"
	"autowin/internal/winstate"

	"github.com/rs/zerolog"
)

// ErrNotResizable marks a window without a resizable border. Recognized
// render-surface classes are exempt: their host sizes them programmatically.
var ErrNotResizable = errors.New("window is not resizable")

// ErrResizeFailed marks exhaustion of every resize primitive.
var ErrResizeFailed = errors.New("all resize primitives failed")

// Result reports the outcome of a client-area resize.
type Result struct {
	// Width/Height are the final measured client size.
	Width  int
	Height int
	// Residual is the largest per-axis deviation from the target.
	Residual int
	// Warning is set when the residual exceeded tolerance but the
	// operation still reported success.
	Warning string
}

// Resizer resizes client areas through the platform backend. Not safe for
// concurrent use against the same handle; callers serialize bind/resize
// operations through the UI-driven path.
type Resizer struct {
	backend platform.Backend
	cache   *winstate.Cache
	cfg     *config.Config
	log     zerolog.Logger
	sleep   func(time.Duration)
}

// Option configures a Resizer.
type Option func(*Resizer)

// WithSleep injects the settle-delay sleeper, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Resizer) { r.sleep = sleep }
}

// New creates a Resizer.
func New(backend platform.Backend, cache *winstate.Cache, cfg *config.Config, log zerolog.Logger, opts ...Option) *Resizer {
	r := &Resizer{
		backend: backend,
		cache:   cache,
		cfg:     cfg,
		log:     log.With().Str("component", "resize").Logger(),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClientArea resizes the window so its client area equals the target size.
// For an embedded render surface the resize acts on the outer frame while
// measuring the child. Success means the final measured size is within
// tolerance; a larger residual still reports success with a warning so a
// few stray pixels never abort a whole automation run.
func (r *Resizer) ClientArea(h platform.Handle, targetW, targetH int) (Result, error) {
	if targetW <= 0 || targetH <= 0 {
		return Result{}, fmt.Errorf("invalid target size %dx%d", targetW, targetH)
	}

	st, err := r.cache.Get(h, true)
	if err != nil {
		return Result{}, err
	}

	class, _ := r.backend.Class(h)
	embedded := r.cfg.IsSurfaceClass(class)

	if !embedded {
		resizable, err := r.backend.Resizable(h)
		if err == nil && !resizable {
			return Result{}, fmt.Errorf("window %q: %w", st.Title, ErrNotResizable)
		}
	}

	// Embedded surfaces are children of a separately sized outer frame;
	// the frame is what accepts size requests.
	resizeTarget := h
	if embedded {
		if frame := r.outerFrame(h); frame != platform.None {
			resizeTarget = frame
		}
	}

	w, hgt, err := r.pass(resizeTarget, h, targetW, targetH)
	if err != nil {
		return Result{}, err
	}

	residual := maxDelta(targetW-w, targetH-hgt)
	if residual > r.cfg.ResizeTolerancePx && r.cfg.FineTune {
		r.log.Debug().
			Uint32("handle", uint32(h)).
			Int("residual", residual).
			Msg("residual above tolerance, applying fine-tune pass")
		if w2, h2, err := r.pass(resizeTarget, h, targetW, targetH); err == nil {
			w, hgt = w2, h2
			residual = maxDelta(targetW-w, targetH-hgt)
		}
	}

	// The window just changed under the cache; resample immediately.
	if _, err := r.cache.ForceRefresh(h); err != nil {
		return Result{}, err
	}

	result := Result{Width: w, Height: hgt, Residual: residual}
	if residual > r.cfg.ResizeTolerancePx {
		result.Warning = fmt.Sprintf("client area settled at %dx%d, %dpx off target %dx%d",
			w, hgt, residual, targetW, targetH)
		r.log.Warn().
			Uint32("handle", uint32(h)).
			Str("warning", result.Warning).
			Msg("resize finished outside tolerance")
	} else {
		r.log.Info().
			Uint32("handle", uint32(h)).
			Int("width", w).
			Int("height", hgt).
			Msg("client area resized")
	}
	return result, nil
}

// pass issues one resize: measure the child, apply the needed pixel delta
// to the resize target's overall size, wait for the host to settle, then
// re-measure.
func (r *Resizer) pass(resizeTarget, measured platform.Handle, targetW, targetH int) (int, int, error) {
	client, err := r.backend.ClientRect(measured)
	if err != nil {
		return 0, 0, winstate.ErrHandleInvalid
	}
	frame, err := r.backend.WindowRect(resizeTarget)
	if err != nil {
		return 0, 0, winstate.ErrHandleInvalid
	}

	requestW := frame.Width + (targetW - client.Width)
	requestH := frame.Height + (targetH - client.Height)

	if err := r.applyChain(resizeTarget, requestW, requestH); err != nil {
		return 0, 0, err
	}

	r.sleep(r.cfg.SettleDelay())

	after, err := r.backend.ClientRect(measured)
	if err != nil {
		return 0, 0, winstate.ErrHandleInvalid
	}
	return after.Width, after.Height, nil
}

// applyChain walks the primitive fallbacks: position/size call, alternate
// primitive, then a direct resize message.
func (r *Resizer) applyChain(h platform.Handle, width, height int) error {
	err := r.backend.SetOverallSize(h, width, height)
	if err == nil {
		return nil
	}
	r.log.Debug().Uint32("handle", uint32(h)).Err(err).
		Msg("primary resize primitive failed, trying alternate")

	err = r.backend.SetOverallSizeDirect(h, width, height)
	if err == nil {
		return nil
	}
	r.log.Debug().Uint32("handle", uint32(h)).Err(err).
		Msg("alternate resize primitive failed, sending resize message")

	if err = r.backend.SendResize(h, width, height); err != nil {
		return fmt.Errorf("%w: %v", ErrResizeFailed, err)
	}
	return nil
}

// outerFrame walks up to the top-level ancestor of an embedded surface.
func (r *Resizer) outerFrame(h platform.Handle) platform.Handle {
	frame := platform.None
	current := h
	for depth := 0; depth < 32; depth++ {
		parent, err := r.backend.Parent(current)
		if err != nil || parent == platform.None {
			break
		}
		frame = parent
		current = parent
	}
	return frame
}

func maxDelta(dw, dh int) int {
	if dw < 0 {
		dw = -dw
	}
	if dh < 0 {
		dh = -dh
	}
	if dw > dh {
		return dw
	}
	return dh
}
