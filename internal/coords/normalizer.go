package coords

import (
	"autowin/internal/config"
	"autowin/internal/platform"
	"autowin/internal/winstate"

	"github.com/rs/zerolog"
)

// Normalizer converts between the reference space and a window's live
// physical pixels. Both directions fail open: when window state is
// unavailable the input passes through unchanged with a logged warning,
// because a best-guess coordinate beats aborting a whole automation run.
type Normalizer struct {
	cache *winstate.Cache
	cfg   *config.Config
	log   zerolog.Logger
}

// NewNormalizer creates a Normalizer over the shared state cache.
func NewNormalizer(cache *winstate.Cache, cfg *config.Config, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		cache: cache,
		cfg:   cfg,
		log:   log.With().Str("component", "normalizer").Logger(),
	}
}

// ToReference converts live physical pixels into the reference space.
//
// The truncating conversion round-trips with FromReference within 1px as
// long as the effective client size (client pixels times scale factor) is
// at least half the reference size per axis. A smaller client has fewer
// physical pixels than reference pixels can express, so reference values
// collapse onto the same physical pixel and drift further on the way back.
func (n *Normalizer) ToReference(c Physical, h platform.Handle) Reference {
	st, err := n.cache.Get(h, false)
	if err != nil || st.ClientWidth <= 0 || st.ClientHeight <= 0 {
		n.warnIdentity("to-reference", h, err)
		return Reference(c)
	}

	// Multiply before dividing: pre-rounding the ratio costs an extra
	// pixel on exact multiples.
	scaleX := func(v int) int {
		return int(float64(v) * float64(n.cfg.ReferenceWidth) * n.cfg.ReferenceScale() /
			(float64(st.ClientWidth) * st.ScaleFactor))
	}
	scaleY := func(v int) int {
		return int(float64(v) * float64(n.cfg.ReferenceHeight) * n.cfg.ReferenceScale() /
			(float64(st.ClientHeight) * st.ScaleFactor))
	}

	return Reference{
		X:      scaleX(c.X),
		Y:      scaleY(c.Y),
		Width:  scaleX(c.Width),
		Height: scaleY(c.Height),
	}
}

// FromReference converts reference-space coordinates into the window's live
// physical pixels, the exact inverse ratio of ToReference.
func (n *Normalizer) FromReference(c Reference, h platform.Handle) Physical {
	st, err := n.cache.Get(h, false)
	if err != nil || st.ClientWidth <= 0 || st.ClientHeight <= 0 {
		n.warnIdentity("from-reference", h, err)
		return Physical(c)
	}

	scaleX := func(v int) int {
		return int(float64(v) * float64(st.ClientWidth) * st.ScaleFactor /
			(float64(n.cfg.ReferenceWidth) * n.cfg.ReferenceScale()))
	}
	scaleY := func(v int) int {
		return int(float64(v) * float64(st.ClientHeight) * st.ScaleFactor /
			(float64(n.cfg.ReferenceHeight) * n.cfg.ReferenceScale()))
	}

	return Physical{
		X:      scaleX(c.X),
		Y:      scaleY(c.Y),
		Width:  scaleX(c.Width),
		Height: scaleY(c.Height),
	}
}

func (n *Normalizer) warnIdentity(direction string, h platform.Handle, err error) {
	n.log.Warn().
		Str("direction", direction).
		Uint32("handle", uint32(h)).
		Err(err).
		Msg("window state unavailable, passing coordinate through unchanged")
}
