package platform

// Handle is a platform-neutral window identifier. Handles are owned by the
// windowing system and can become invalid at any time; every operation that
// takes one must tolerate staleness.
type Handle uint32

// None is the zero handle, returned when no window matched.
const None Handle = 0

// Point is a position in pixels. Whether it is client-relative or
// screen-absolute depends on the operation that produced it.
type Point struct {
	X int
	Y int
}

// Rect describes a rectangular region in pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// WindowInfo contains metadata for an enumerated window.
type WindowInfo struct {
	Handle Handle
	Title  string
	Class  string
}

// Backend abstracts window-system operations across platforms. Only
// implementations of this interface touch OS windowing primitives; all
// coordinate math and caching above it is platform-independent.
type Backend interface {
	// EnumerateTopLevel lists top-level application windows.
	EnumerateTopLevel() ([]WindowInfo, error)
	// EnumerateChildren lists direct children of a window. Callers descend
	// recursively when probing for embedded render surfaces.
	EnumerateChildren(h Handle) ([]WindowInfo, error)

	Title(h Handle) (string, error)
	Class(h Handle) (string, error)

	// WindowRect returns the overall window rectangle in screen pixels,
	// including decorations.
	WindowRect(h Handle) (Rect, error)
	// ClientRect returns the drawable interior rectangle in screen pixels,
	// excluding decorations.
	ClientRect(h Handle) (Rect, error)
	// Parent returns the parent window, or None for a top-level window.
	Parent(h Handle) (Handle, error)

	// SetOverallSize resizes the overall window. Position and z-order are
	// left alone; the window is not activated.
	SetOverallSize(h Handle, width, height int) error
	// SetOverallSizeDirect is the alternate resize primitive, used when
	// SetOverallSize fails.
	SetOverallSizeDirect(h Handle, width, height int) error
	// SendResize delivers a resize request as a window message, the last
	// fallback in the resize chain.
	SendResize(h Handle, width, height int) error

	// ClientToScreen translates a client-relative point to screen pixels.
	ClientToScreen(h Handle, p Point) (Point, error)

	Foreground() (Handle, error)
	SetForeground(h Handle) error

	IsLive(h Handle) bool
	IsMinimized(h Handle) (bool, error)
	// Restore brings a minimized window back without raising it above
	// other windows.
	Restore(h Handle) error
	// Resizable reports whether the window carries a resizable border.
	Resizable(h Handle) (bool, error)

	// DPIForWindow returns the effective DPI of the monitor the window
	// occupies. Implementations return an error rather than guessing.
	DPIForWindow(h Handle) (int, error)
	// SystemDPI returns the primary-display DPI.
	SystemDPI() (int, error)
}
