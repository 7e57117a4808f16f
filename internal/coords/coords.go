// Package coords converts automation coordinates between the canonical
// reference space and a window's live physical pixels.
package coords

// Coordinate is a raw x/y/width/height as authored or captured, before any
// conversion. Its meaning depends on the Origin it travels with.
type Coordinate struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Reference is a coordinate in the canonical reference space (default
// 1280x720 at 96dpi). Reference values are what gets persisted.
type Reference struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Physical is a coordinate in a specific window's live pixels. It is only
// valid paired with the window state it was derived from and is never
// persisted.
type Physical struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Origin tags how a coordinate was produced, which determines the
// conversion path. Origins that already express physical pixels must not be
// re-scaled.
type Origin int

const (
	// OriginScreenSelection is an on-screen selection captured against the
	// live window; already physical pixels.
	OriginScreenSelection Origin = iota
	// OriginImageMatch is an image-matcher result; already physical pixels.
	OriginImageMatch
	// OriginManualEntry was typed into the editor in toolkit-logical
	// pixels and scales by the window's live DPI factor.
	OriginManualEntry
)

func (o Origin) String() string {
	switch o {
	case OriginScreenSelection:
		return "screen-selection"
	case OriginImageMatch:
		return "image-match"
	case OriginManualEntry:
		return "manual-entry"
	default:
		return "unknown"
	}
}

// Physical reports whether coordinates from this origin already express
// physical pixels.
func (o Origin) Physical() bool {
	switch o {
	case OriginScreenSelection, OriginImageMatch:
		return true
	default:
		return false
	}
}

// ExecutionMode selects how resolved coordinates will be consumed.
type ExecutionMode int

const (
	// ModeBackground delivers input directly to the window regardless of
	// focus; client-relative pixels suffice.
	ModeBackground ExecutionMode = iota
	// ModeForeground injects through the OS cursor, which needs
	// screen-absolute pixels.
	ModeForeground
)

func (m ExecutionMode) String() string {
	if m == ModeForeground {
		return "foreground"
	}
	return "background"
}
