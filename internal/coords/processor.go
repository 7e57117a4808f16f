package coords

import (
	"autowin/internal/platform"
	"autowin/internal/winstate"

	"github.com/rs/zerolog"
)

// Processor resolves origin-tagged coordinates to final physical pixels for
// injection or capture. The origin dispatch is what makes DPI adjustment
// idempotent: origins already expressing physical pixels never enter the
// scaling path, so there is no double-correction logic to get wrong.
type Processor struct {
	cache   *winstate.Cache
	backend platform.Backend
	log     zerolog.Logger
}

// NewProcessor creates a Processor over the shared cache and backend.
func NewProcessor(cache *winstate.Cache, backend platform.Backend, log zerolog.Logger) *Processor {
	return &Processor{
		cache:   cache,
		backend: backend,
		log:     log.With().Str("component", "processor").Logger(),
	}
}

// ResolveForInjection resolves a tagged coordinate to the physical pixels an
// injector needs. Foreground mode additionally translates client-relative
// pixels to screen-absolute ones, since the OS cursor works in screen space.
func (p *Processor) ResolveForInjection(c Coordinate, origin Origin, h platform.Handle, mode ExecutionMode) (Physical, error) {
	st, err := p.cache.Get(h, false)
	if err != nil {
		// Fail open: an unscaled best guess beats aborting the run.
		p.log.Warn().Uint32("handle", uint32(h)).Err(err).
			Str("origin", origin.String()).
			Msg("window state unavailable, injecting coordinate as-is")
		return Physical(c), err
	}

	phys := p.convert(c, origin, st)

	if mode == ModeForeground {
		pt, err := p.backend.ClientToScreen(h, platform.Point{X: phys.X, Y: phys.Y})
		if err != nil {
			// Manual rect-delta fallback: the cached client rect origin is
			// already in screen pixels.
			pt = platform.Point{X: st.ClientRect.X + phys.X, Y: st.ClientRect.Y + phys.Y}
		}
		phys.X, phys.Y = pt.X, pt.Y
	}

	p.log.Debug().
		Str("window", st.Title).
		Uint32("handle", uint32(h)).
		Int("client_w", st.ClientWidth).
		Int("client_h", st.ClientHeight).
		Int("dpi", st.DPI).
		Float64("scale", st.ScaleFactor).
		Str("origin", origin.String()).
		Str("mode", mode.String()).
		Ints("before", []int{c.X, c.Y}).
		Ints("after", []int{phys.X, phys.Y}).
		Msg("resolved coordinate for injection")

	return phys, nil
}

// ResolveRegionForCapture resolves a tagged region to the physical client
// pixels a capture routine reads. No screen translation applies; capture
// operates on the window surface.
func (p *Processor) ResolveRegionForCapture(region Coordinate, origin Origin, h platform.Handle) (Physical, error) {
	st, err := p.cache.Get(h, false)
	if err != nil {
		p.log.Warn().Uint32("handle", uint32(h)).Err(err).
			Str("origin", origin.String()).
			Msg("window state unavailable, capturing region as-is")
		return Physical(region), err
	}

	phys := p.convert(region, origin, st)

	p.log.Debug().
		Str("window", st.Title).
		Uint32("handle", uint32(h)).
		Int("dpi", st.DPI).
		Str("origin", origin.String()).
		Ints("before", []int{region.X, region.Y, region.Width, region.Height}).
		Ints("after", []int{phys.X, phys.Y, phys.Width, phys.Height}).
		Msg("resolved region for capture")

	return phys, nil
}

// convert is the origin dispatch step. Physical origins pass through
// unchanged; toolkit-logical origins scale by the live DPI factor.
func (p *Processor) convert(c Coordinate, origin Origin, st *winstate.State) Physical {
	if origin.Physical() {
		return Physical(c)
	}

	return Physical{
		X:      int(float64(c.X) * st.ScaleFactor),
		Y:      int(float64(c.Y) * st.ScaleFactor),
		Width:  int(float64(c.Width) * st.ScaleFactor),
		Height: int(float64(c.Height) * st.ScaleFactor),
	}
}
