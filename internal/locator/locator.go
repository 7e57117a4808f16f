// Package locator resolves window titles and patterns to live handles,
// including the two-phase descent into embedded render surfaces.
package locator

import (
	"errors"
	"regexp"
	"strings"

	"autowin/internal/config"
	"autowin/internal/platform"

	"github.com/rs/zerolog"
)

// ErrNotFound marks a lookup that matched no live window. Callers decide
// whether to prompt the user; nothing is thrown.
var ErrNotFound = errors.New("no matching window found")

// decoratedTitle strips a persisted binding decoration like "Name [mumu]"
// down to the plain title used for lookup.
var decoratedTitle = regexp.MustCompile(`\s*\[[^\]]+\]\s*$`)

// Locator finds windows by title or pattern through the platform backend.
type Locator struct {
	backend platform.Backend
	cfg     *config.Config
	log     zerolog.Logger
}

// New creates a Locator.
func New(backend platform.Backend, cfg *config.Config, log zerolog.Logger) *Locator {
	return &Locator{
		backend: backend,
		cfg:     cfg,
		log:     log.With().Str("component", "locator").Logger(),
	}
}

// StripDecoration removes a trailing "[kind]" suffix from a binding title.
func StripDecoration(title string) string {
	return strings.TrimSpace(decoratedTitle.ReplaceAllString(title, ""))
}

// Locate resolves a title or substring pattern to a window handle. With a
// known render-surface kind the two-phase strategy applies: exact top-level
// title lookup first, then a descent into child trees for a recognizable
// render surface. The surface handle wins over the outer frame; a frame
// with no identifiable surface is returned as-is.
func (l *Locator) Locate(titleOrPattern, kind string) (platform.Handle, error) {
	title := StripDecoration(titleOrPattern)

	frame, err := l.findFrame(title)
	if err != nil {
		return platform.None, err
	}

	surface, ok := l.cfg.SurfaceKind(kind)
	if !ok {
		return frame, nil
	}

	if h, found := l.findSurface(frame, surface); found {
		l.log.Debug().
			Str("title", title).
			Str("kind", kind).
			Uint32("frame", uint32(frame)).
			Uint32("surface", uint32(h)).
			Msg("resolved render surface")
		return h, nil
	}

	l.log.Debug().
		Str("title", title).
		Str("kind", kind).
		Uint32("frame", uint32(frame)).
		Msg("no render surface found, falling back to frame")
	return frame, nil
}

// LocateAll returns every matching surface handle for bulk binding,
// excluding handles already bound so two bindings never share an instance.
func (l *Locator) LocateAll(titleOrPattern, kind string, bound map[platform.Handle]bool) ([]platform.Handle, error) {
	title := StripDecoration(titleOrPattern)

	windows, err := l.backend.EnumerateTopLevel()
	if err != nil {
		return nil, err
	}

	surface, hasKind := l.cfg.SurfaceKind(kind)

	var handles []platform.Handle
	for _, w := range windows {
		if !strings.Contains(w.Title, title) {
			continue
		}

		h := w.Handle
		if hasKind {
			if s, found := l.findSurface(w.Handle, surface); found {
				h = s
			}
		}
		if bound[h] {
			continue
		}
		handles = append(handles, h)
	}

	if len(handles) == 0 {
		return nil, ErrNotFound
	}
	return handles, nil
}

// findFrame does the phase-one lookup: exact title match over top-level
// windows, then a substring pass.
func (l *Locator) findFrame(title string) (platform.Handle, error) {
	windows, err := l.backend.EnumerateTopLevel()
	if err != nil {
		return platform.None, err
	}

	for _, w := range windows {
		if w.Title == title {
			return w.Handle, nil
		}
	}
	for _, w := range windows {
		if title != "" && strings.Contains(w.Title, title) {
			return w.Handle, nil
		}
	}
	return platform.None, ErrNotFound
}

// findSurface descends the child tree under frame looking for a window of a
// recognized render-surface class. The minimum-size heuristic rejects the
// small preview thumbnails some front-ends keep alongside the real surface.
func (l *Locator) findSurface(frame platform.Handle, surface config.SurfaceClass) (platform.Handle, bool) {
	children, err := l.backend.EnumerateChildren(frame)
	if err != nil {
		return platform.None, false
	}

	for _, ch := range children {
		if l.matchSurface(ch, surface) {
			return ch.Handle, true
		}
		if h, found := l.findSurface(ch.Handle, surface); found {
			return h, true
		}
	}
	return platform.None, false
}

func (l *Locator) matchSurface(w platform.WindowInfo, surface config.SurfaceClass) bool {
	matched := false
	for _, class := range surface.Classes {
		if w.Class == class {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	rect, err := l.backend.ClientRect(w.Handle)
	if err != nil {
		return false
	}
	return rect.Width >= surface.MinWidth && rect.Height >= surface.MinHeight
}
