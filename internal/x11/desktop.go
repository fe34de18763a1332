package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// GetCurrentDesktop returns the current virtual desktop number (0-indexed).
func (c *Connection) GetCurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// MoveToCurrentDesktop asks the window manager to move a window onto the
// current virtual desktop. Sticky windows are left alone.
func (c *Connection) MoveToCurrentDesktop(windowID xproto.Window) error {
	current, err := c.GetCurrentDesktop()
	if err != nil {
		return err
	}

	desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
	if err == nil && (desktop == 0xFFFFFFFF || int(desktop) == current) {
		return nil
	}
	if err := ewmh.WmDesktopReq(c.XUtil, windowID, uint(current)); err != nil {
		return fmt.Errorf("failed to move window to desktop %d: %w", current, err)
	}
	return nil
}
