package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor represents a physical display
type Monitor struct {
	ID     uint32
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// WatchOutputs initializes RandR and asks for screen-change notifications on
// the root window.
func (c *Connection) WatchOutputs() error {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return fmt.Errorf("randr init failed: %w", err)
	}
	err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, randr.NotifyMaskScreenChange).Check()
	if err != nil {
		return fmt.Errorf("failed to select randr input: %w", err)
	}
	return nil
}

// GetMonitors enumerates active outputs in CRTC order. RandR is tried first,
// then Xinerama, then the root window geometry as a single monitor.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if monitors, err := c.randrMonitors(); err == nil && len(monitors) > 0 {
		return monitors, nil
	}
	if monitors, err := c.xineramaMonitors(); err == nil && len(monitors) > 0 {
		return monitors, nil
	}

	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return []Monitor{{
		ID:     1,
		Name:   "screen",
		Width:  int(rootGeom.Width),
		Height: int(rootGeom.Height),
	}}, nil
}

func (c *Connection) randrMonitors() ([]Monitor, error) {
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

		output := crtcInfo.Outputs[0]
		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), output, resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     uint32(output),
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	return monitors, nil
}

func (c *Connection) xineramaMonitors() ([]Monitor, error) {
	if err := xinerama.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("xinerama init failed: %w", err)
	}
	reply, err := xinerama.QueryScreens(c.XUtil.Conn()).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query xinerama screens: %w", err)
	}

	monitors := make([]Monitor, 0, len(reply.ScreenInfo))
	for i, s := range reply.ScreenInfo {
		monitors = append(monitors, Monitor{
			// Xinerama has no output ids; offset by one so zero stays "unknown".
			ID:     uint32(i + 1),
			Name:   fmt.Sprintf("Xinerama%d", i),
			X:      int(s.XOrg),
			Y:      int(s.YOrg),
			Width:  int(s.Width),
			Height: int(s.Height),
		})
	}
	return monitors, nil
}
