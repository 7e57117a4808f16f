package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	WidthMM int
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		widthMM := 0
		if len(crtcInfo.Outputs) > 0 {
			outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
			if err == nil {
				outputName = string(outputInfo.Name)
				widthMM = int(outputInfo.MmWidth)
			}
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Name:    outputName,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			WidthMM: widthMM,
		})
	}

	return monitors, nil
}

// DPIForWindow returns the effective DPI of the monitor containing the
// window's center, derived from the RandR physical width. Errors out rather
// than guessing so callers can fall through to the next DPI source.
func (c *Connection) DPIForWindow(windowID xproto.Window) (int, error) {
	rect, err := c.ClientRect(windowID)
	if err != nil {
		return 0, err
	}

	monitors, err := c.GetMonitors()
	if err != nil {
		return 0, err
	}

	cx := rect.X + rect.Width/2
	cy := rect.Y + rect.Height/2
	for _, m := range monitors {
		if cx >= m.X && cx < m.X+m.Width && cy >= m.Y && cy < m.Y+m.Height {
			return monitorDPI(m)
		}
	}
	if len(monitors) > 0 {
		// Off-screen window; use the primary monitor.
		return monitorDPI(monitors[0])
	}

	return 0, fmt.Errorf("no monitor found for window %d", windowID)
}

// SystemDPI derives the DPI of the default screen from its reported
// physical width.
func (c *Connection) SystemDPI() (int, error) {
	screen := c.XUtil.Screen()
	if screen.WidthInMillimeters == 0 {
		return 0, fmt.Errorf("screen reports zero physical width")
	}
	dpi := int(float64(screen.WidthInPixels) * 25.4 / float64(screen.WidthInMillimeters))
	if dpi <= 0 {
		return 0, fmt.Errorf("invalid computed dpi %d", dpi)
	}
	return dpi, nil
}

func monitorDPI(m Monitor) (int, error) {
	if m.WidthMM == 0 {
		return 0, fmt.Errorf("monitor %s reports zero physical width", m.Name)
	}
	dpi := int(float64(m.Width) * 25.4 / float64(m.WidthMM))
	if dpi <= 0 {
		return 0, fmt.Errorf("invalid computed dpi %d for monitor %s", dpi, m.Name)
	}
	return dpi, nil
}
