// Package winstate caches per-window geometry and DPI snapshots and watches
// for DPI changes across all tracked windows.
package winstate

import (
	"errors"
	"time"

	"autowin/internal/platform"
)

// ErrHandleInvalid marks a window that is closed or never existed. This is
// an expected steady state, not a fault; callers branch on it with
// errors.Is rather than treating it as fatal.
var ErrHandleInvalid = errors.New("window handle is not valid")

// BaselineDPI is the 96dpi scale baseline shared by every conversion.
const BaselineDPI = 96

// State is an immutable snapshot of one window's geometry and DPI. A
// refresh produces a new State; existing snapshots are never mutated, so a
// caller holding one can keep using it consistently.
type State struct {
	Handle       platform.Handle
	Title        string
	ClientWidth  int
	ClientHeight int
	DPI          int
	ScaleFactor  float64
	WindowRect   platform.Rect
	ClientRect   platform.Rect
	CapturedAt   time.Time
}

// BorderWidth returns the total horizontal non-client border thickness.
func (s *State) BorderWidth() int {
	return s.WindowRect.Width - s.ClientRect.Width
}

// BorderHeight returns the total vertical non-client border thickness.
func (s *State) BorderHeight() int {
	return s.WindowRect.Height - s.ClientRect.Height
}

// Fresh reports whether the snapshot is within ttl of now.
func (s *State) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CapturedAt) <= ttl
}
