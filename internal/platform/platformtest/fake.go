// Package platformtest provides a scripted in-memory Backend for tests.
package platformtest

import (
	"fmt"
	"sort"
	"sync"

	"autowin/internal/platform"
)

// Window is the scripted state for one fake window.
type Window struct {
	Title     string
	Class     string
	Parent    platform.Handle
	Children  []platform.Handle
	Client    platform.Rect
	Frame     platform.Rect
	Resizable bool
	Minimized bool
	DPI       int
}

// Fake is an in-memory Backend implementation. All mutators are safe for
// concurrent use so monitor/executor goroutines can run against it.
type Fake struct {
	mu         sync.Mutex
	windows    map[platform.Handle]*Window
	foreground platform.Handle
	systemDPI  int

	// Failure switches for exercising fallback paths.
	FailPrimaryResize  bool
	FailDirectResize   bool
	FailWindowDPI      bool
	FailSystemDPI      bool
	FailClientRect     map[platform.Handle]bool
	FailClientToScreen bool
	FailSetForeground  bool

	// ResizeSlackW/H are added to every honored resize request, modelling a
	// host that only approximately honors sizes. When ResizeSlackOnce is
	// set the slack applies to the first request only.
	ResizeSlackW    int
	ResizeSlackH    int
	ResizeSlackOnce bool

	// Call records for assertions.
	ForegroundSets []platform.Handle
	ResizeCalls    []string
	RestoreCalls   []platform.Handle
}

var _ platform.Backend = (*Fake)(nil)

// New returns an empty Fake with system DPI 96.
func New() *Fake {
	return &Fake{
		windows:        make(map[platform.Handle]*Window),
		systemDPI:      96,
		FailClientRect: make(map[platform.Handle]bool),
	}
}

// AddWindow registers a window. A zero Frame defaults to the client rect.
func (f *Fake) AddWindow(h platform.Handle, w Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.Frame == (platform.Rect{}) {
		w.Frame = w.Client
	}
	if w.DPI == 0 {
		w.DPI = 96
	}
	cp := w
	f.windows[h] = &cp
	if w.Parent != platform.None {
		if p, ok := f.windows[w.Parent]; ok {
			p.Children = append(p.Children, h)
		}
	}
}

// RemoveWindow makes a handle dead.
func (f *Fake) RemoveWindow(h platform.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.windows, h)
}

// SetDPI changes the DPI reported for a window.
func (f *Fake) SetDPI(h platform.Handle, dpi int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[h]; ok {
		w.DPI = dpi
	}
}

// SetForegroundWindow seeds the current foreground without recording a call.
func (f *Fake) SetForegroundWindow(h platform.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foreground = h
}

// SetSystemDPI seeds the system DPI.
func (f *Fake) SetSystemDPI(dpi int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systemDPI = dpi
}

// Lookup returns a copy of the scripted window state.
func (f *Fake) Lookup(h platform.Handle) (Window, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

func (f *Fake) EnumerateTopLevel() ([]platform.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.WindowInfo
	for h, w := range f.windows {
		if w.Parent == platform.None {
			out = append(out, platform.WindowInfo{Handle: h, Title: w.Title, Class: w.Class})
		}
	}
	sortInfos(out)
	return out, nil
}

func (f *Fake) EnumerateChildren(h platform.Handle) ([]platform.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok {
		return nil, fmt.Errorf("fake: window %d does not exist", h)
	}
	out := make([]platform.WindowInfo, 0, len(w.Children))
	for _, ch := range w.Children {
		cw, ok := f.windows[ch]
		if !ok {
			continue
		}
		out = append(out, platform.WindowInfo{Handle: ch, Title: cw.Title, Class: cw.Class})
	}
	return out, nil
}

func (f *Fake) Title(h platform.Handle) (string, error) {
	w, err := f.window(h)
	if err != nil {
		return "", err
	}
	return w.Title, nil
}

func (f *Fake) Class(h platform.Handle) (string, error) {
	w, err := f.window(h)
	if err != nil {
		return "", err
	}
	return w.Class, nil
}

func (f *Fake) WindowRect(h platform.Handle) (platform.Rect, error) {
	w, err := f.window(h)
	if err != nil {
		return platform.Rect{}, err
	}
	return w.Frame, nil
}

func (f *Fake) ClientRect(h platform.Handle) (platform.Rect, error) {
	f.mu.Lock()
	fail := f.FailClientRect[h]
	f.mu.Unlock()
	if fail {
		return platform.Rect{}, fmt.Errorf("fake: client rect query failed for %d", h)
	}
	w, err := f.window(h)
	if err != nil {
		return platform.Rect{}, err
	}
	return w.Client, nil
}

func (f *Fake) Parent(h platform.Handle) (platform.Handle, error) {
	w, err := f.window(h)
	if err != nil {
		return platform.None, err
	}
	return w.Parent, nil
}

func (f *Fake) SetOverallSize(h platform.Handle, width, height int) error {
	f.record("primary")
	if f.FailPrimaryResize {
		return fmt.Errorf("fake: primary resize rejected")
	}
	return f.applyResize(h, width, height)
}

func (f *Fake) SetOverallSizeDirect(h platform.Handle, width, height int) error {
	f.record("direct")
	if f.FailDirectResize {
		return fmt.Errorf("fake: direct resize rejected")
	}
	return f.applyResize(h, width, height)
}

func (f *Fake) SendResize(h platform.Handle, width, height int) error {
	f.record("message")
	return f.applyResize(h, width, height)
}

func (f *Fake) ClientToScreen(h platform.Handle, p platform.Point) (platform.Point, error) {
	if f.FailClientToScreen {
		return platform.Point{}, fmt.Errorf("fake: client-to-screen translation failed")
	}
	w, err := f.window(h)
	if err != nil {
		return platform.Point{}, err
	}
	return platform.Point{X: w.Client.X + p.X, Y: w.Client.Y + p.Y}, nil
}

func (f *Fake) Foreground() (platform.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.foreground, nil
}

func (f *Fake) SetForeground(h platform.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ForegroundSets = append(f.ForegroundSets, h)
	if f.FailSetForeground {
		return fmt.Errorf("fake: set foreground rejected")
	}
	f.foreground = h
	return nil
}

func (f *Fake) IsLive(h platform.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.windows[h]
	return ok
}

func (f *Fake) IsMinimized(h platform.Handle) (bool, error) {
	w, err := f.window(h)
	if err != nil {
		return false, err
	}
	return w.Minimized, nil
}

func (f *Fake) Restore(h platform.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok {
		return fmt.Errorf("fake: window %d does not exist", h)
	}
	f.RestoreCalls = append(f.RestoreCalls, h)
	w.Minimized = false
	return nil
}

func (f *Fake) Resizable(h platform.Handle) (bool, error) {
	w, err := f.window(h)
	if err != nil {
		return false, err
	}
	return w.Resizable, nil
}

func (f *Fake) DPIForWindow(h platform.Handle) (int, error) {
	if f.FailWindowDPI {
		return 0, fmt.Errorf("fake: window dpi query failed")
	}
	w, err := f.window(h)
	if err != nil {
		return 0, err
	}
	return w.DPI, nil
}

func (f *Fake) SystemDPI() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSystemDPI {
		return 0, fmt.Errorf("fake: system dpi query failed")
	}
	return f.systemDPI, nil
}

// applyResize grows/shrinks the frame toward the requested overall size with
// the configured slack, and propagates the same pixel delta into every
// descendant, the way emulator frames size their embedded render surfaces.
func (f *Fake) applyResize(h platform.Handle, width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok {
		return fmt.Errorf("fake: window %d does not exist", h)
	}

	dw := width - w.Frame.Width + f.ResizeSlackW
	dh := height - w.Frame.Height + f.ResizeSlackH
	if f.ResizeSlackOnce {
		f.ResizeSlackW, f.ResizeSlackH = 0, 0
	}

	f.grow(h, dw, dh)
	return nil
}

func (f *Fake) grow(h platform.Handle, dw, dh int) {
	w, ok := f.windows[h]
	if !ok {
		return
	}
	w.Frame.Width += dw
	w.Frame.Height += dh
	w.Client.Width += dw
	w.Client.Height += dh
	for _, ch := range w.Children {
		f.grow(ch, dw, dh)
	}
}

func (f *Fake) window(h platform.Handle) (Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok {
		return Window{}, fmt.Errorf("fake: window %d does not exist", h)
	}
	return *w, nil
}

func (f *Fake) record(primitive string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResizeCalls = append(f.ResizeCalls, primitive)
}

func sortInfos(infos []platform.WindowInfo) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Handle < infos[j].Handle
	})
}
