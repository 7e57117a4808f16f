//go:build linux

package platform

import (
	"fmt"

	"autowin/internal/x11"

	"github.com/BurntSushi/xgb/xproto"
)

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EnumerateTopLevel lists all managed top-level windows with title and class.
func (b *LinuxBackend) EnumerateTopLevel() ([]WindowInfo, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ListClients()
	if err != nil {
		return nil, err
	}

	windows := make([]WindowInfo, 0, len(clients))
	for _, windowID := range clients {
		windows = append(windows, WindowInfo{
			Handle: Handle(windowID),
			Title:  conn.WindowTitle(windowID),
			Class:  conn.WindowClass(windowID),
		})
	}
	return windows, nil
}

// EnumerateChildren lists the direct children of a window.
func (b *LinuxBackend) EnumerateChildren(h Handle) ([]WindowInfo, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	children, err := conn.QueryChildren(xproto.Window(h))
	if err != nil {
		return nil, err
	}

	windows := make([]WindowInfo, 0, len(children))
	for _, windowID := range children {
		windows = append(windows, WindowInfo{
			Handle: Handle(windowID),
			Title:  conn.WindowTitle(windowID),
			Class:  conn.WindowClass(windowID),
		})
	}
	return windows, nil
}

func (b *LinuxBackend) Title(h Handle) (string, error) {
	conn, err := b.connection()
	if err != nil {
		return "", err
	}
	return conn.WindowTitle(xproto.Window(h)), nil
}

func (b *LinuxBackend) Class(h Handle) (string, error) {
	conn, err := b.connection()
	if err != nil {
		return "", err
	}
	return conn.WindowClass(xproto.Window(h)), nil
}

func (b *LinuxBackend) WindowRect(h Handle) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}
	r, err := conn.WindowRect(xproto.Window(h))
	if err != nil {
		return Rect{}, err
	}
	return Rect(r), nil
}

func (b *LinuxBackend) ClientRect(h Handle) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}
	r, err := conn.ClientRect(xproto.Window(h))
	if err != nil {
		return Rect{}, err
	}
	return Rect(r), nil
}

func (b *LinuxBackend) Parent(h Handle) (Handle, error) {
	conn, err := b.connection()
	if err != nil {
		return None, err
	}
	parent, err := conn.QueryParent(xproto.Window(h))
	if err != nil {
		return None, err
	}
	return Handle(parent), nil
}

// SetOverallSize resizes via EWMH, converting the overall target to the
// client size the request protocol expects.
func (b *LinuxBackend) SetOverallSize(h Handle, width, height int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	cw, ch := b.overallToClient(h, width, height)
	return conn.ResizeWindow(xproto.Window(h), cw, ch)
}

// SetOverallSizeDirect resizes by configuring the window directly.
func (b *LinuxBackend) SetOverallSizeDirect(h Handle, width, height int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	cw, ch := b.overallToClient(h, width, height)
	return conn.ResizeWindowDirect(xproto.Window(h), cw, ch)
}

// SendResize delivers the resize request as a raw client message.
func (b *LinuxBackend) SendResize(h Handle, width, height int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	cw, ch := b.overallToClient(h, width, height)
	return conn.SendResizeMessage(xproto.Window(h), cw, ch)
}

func (b *LinuxBackend) ClientToScreen(h Handle, p Point) (Point, error) {
	client, err := b.ClientRect(h)
	if err != nil {
		return Point{}, err
	}
	return Point{X: client.X + p.X, Y: client.Y + p.Y}, nil
}

func (b *LinuxBackend) Foreground() (Handle, error) {
	conn, err := b.connection()
	if err != nil {
		return None, err
	}
	active, err := conn.GetActiveWindow()
	if err != nil {
		return None, err
	}
	return Handle(active), nil
}

func (b *LinuxBackend) SetForeground(h Handle) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.FocusWindow(xproto.Window(h))
}

func (b *LinuxBackend) IsLive(h Handle) bool {
	conn, err := b.connection()
	if err != nil {
		return false
	}
	return conn.IsLive(xproto.Window(h))
}

func (b *LinuxBackend) IsMinimized(h Handle) (bool, error) {
	conn, err := b.connection()
	if err != nil {
		return false, err
	}
	return conn.IsMinimized(xproto.Window(h))
}

func (b *LinuxBackend) Restore(h Handle) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.Restore(xproto.Window(h))
}

func (b *LinuxBackend) Resizable(h Handle) (bool, error) {
	conn, err := b.connection()
	if err != nil {
		return false, err
	}
	return conn.IsResizable(xproto.Window(h))
}

func (b *LinuxBackend) DPIForWindow(h Handle) (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	return conn.DPIForWindow(xproto.Window(h))
}

func (b *LinuxBackend) SystemDPI() (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	return conn.SystemDPI()
}

// overallToClient converts an overall (decorated) size target to the client
// size the X11 resize requests operate on, using the current frame extents.
func (b *LinuxBackend) overallToClient(h Handle, width, height int) (int, int) {
	window, werr := b.WindowRect(h)
	client, cerr := b.ClientRect(h)
	if werr != nil || cerr != nil {
		return width, height
	}
	cw := width - (window.Width - client.Width)
	ch := height - (window.Height - client.Height)
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	return cw, ch
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
