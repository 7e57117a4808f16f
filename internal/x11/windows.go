package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Rect is a window rectangle in root-window (screen) pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// ListClients returns the EWMH client list: every managed top-level window.
func (c *Connection) ListClients() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// QueryChildren returns the direct children of a window in stacking order.
func (c *Connection) QueryChildren(windowID xproto.Window) ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query tree for %d: %w", windowID, err)
	}
	return tree.Children, nil
}

// QueryParent returns the parent of a window. For a window reparented under
// a WM frame this is the frame, not the root.
func (c *Connection) QueryParent(windowID xproto.Window) (xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query tree for %d: %w", windowID, err)
	}
	if tree.Parent == tree.Root {
		return 0, nil
	}
	return tree.Parent, nil
}

// WindowTitle returns the window title, preferring _NET_WM_NAME over WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}

	return ""
}

// WindowClass returns the WM_CLASS class name.
func (c *Connection) WindowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// ClientRect returns the window's own geometry translated to root
// coordinates. In X11 terms this is the drawable interior, excluding any WM
// frame decorations.
func (c *Connection) ClientRect(windowID xproto.Window) (Rect, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Rect{}, fmt.Errorf("failed to get geometry for %d: %w", windowID, err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return Rect{}, fmt.Errorf("failed to translate coordinates for %d: %w", windowID, err)
	}

	return Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// WindowRect returns the overall window rectangle including frame
// decorations, derived from the client rect expanded by _NET_FRAME_EXTENTS.
func (c *Connection) WindowRect(windowID xproto.Window) (Rect, error) {
	client, err := c.ClientRect(windowID)
	if err != nil {
		return Rect{}, err
	}

	left, right, top, bottom := c.FrameExtents(windowID)
	return Rect{
		X:      client.X - left,
		Y:      client.Y - top,
		Width:  client.Width + left + right,
		Height: client.Height + top + bottom,
	}, nil
}

// FrameExtents returns the window decoration sizes, zeros when unavailable.
func (c *Connection) FrameExtents(windowID xproto.Window) (left, right, top, bottom int) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		return 0, 0, 0, 0
	}
	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom)
}

// ResizeWindow resizes a window in place via EWMH _NET_MOVERESIZE_WINDOW,
// keeping its current position and stacking order.
func (c *Connection) ResizeWindow(windowID xproto.Window, width, height int) error {
	client, err := c.ClientRect(windowID)
	if err != nil {
		return err
	}

	return ewmh.MoveresizeWindow(c.XUtil, windowID, client.X, client.Y, width, height)
}

// ResizeWindowDirect resizes a window by configuring it directly, bypassing
// the window manager. Used when the EWMH request is ignored.
func (c *Connection) ResizeWindowDirect(windowID xproto.Window, width, height int) error {
	win := xwindow.New(c.XUtil, windowID)
	win.Resize(width, height)
	return nil
}

// SendResizeMessage delivers a ConfigureNotify-style resize request as a raw
// client message to the root window. Last-resort path for windows whose
// host process resizes them itself.
// We build the message manually because the xgbutil ewmh helpers panic on
// this library version (uint vs int type assertion).
func (c *Connection) SendResizeMessage(windowID xproto.Window, width, height int) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_MOVERESIZE_WINDOW")), "_NET_MOVERESIZE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_MOVERESIZE_WINDOW: %w", err)
	}

	// Gravity static, width+height bits set, source indication 2 (pager).
	const flags = 10<<0 | 1<<10 | 1<<11 | 2<<12
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{flags, 0, 0, uint32(width), uint32(height)}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// GetActiveWindow returns the currently focused top-level window.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// Sends a client message to the root window per EWMH spec. Built manually
// (same reason as SendResizeMessage).
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// IsLive reports whether the window still exists on the server.
func (c *Connection) IsLive(windowID xproto.Window) bool {
	if windowID == 0 {
		return false
	}
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	return err == nil
}

// IsMinimized reports whether the window carries _NET_WM_STATE_HIDDEN.
func (c *Connection) IsMinimized(windowID xproto.Window) (bool, error) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false, fmt.Errorf("failed to get window state for %d: %w", windowID, err)
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return true, nil
		}
	}
	return false, nil
}

// Restore maps a minimized window back onto the screen without forcing it
// to the top of the stacking order.
func (c *Connection) Restore(windowID xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// IsResizable inspects WM_NORMAL_HINTS: a window whose min and max sizes are
// pinned to the same value has no resizable border.
func (c *Connection) IsResizable(windowID xproto.Window) (bool, error) {
	hints, err := icccm.WmNormalHintsGet(c.XUtil, windowID)
	if err != nil {
		// No size hints set; assume resizable.
		return true, nil
	}

	const flagMinSize, flagMaxSize = 16, 32
	hasMin := hints.Flags&flagMinSize != 0
	hasMax := hints.Flags&flagMaxSize != 0
	if hasMin && hasMax &&
		hints.MinWidth == hints.MaxWidth && hints.MinHeight == hints.MaxHeight {
		return false, nil
	}
	return true, nil
}
