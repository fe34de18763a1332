package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// Use EWMH MoveResize for better WM compatibility
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// GetActiveWindow returns the window holding _NET_ACTIVE_WINDOW.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// IconifyWindow asks the window manager to iconify a window via
// WM_CHANGE_STATE.
func (c *Connection) IconifyWindow(windowID xproto.Window) error {
	atom, err := xprop.Atm(c.XUtil, "WM_CHANGE_STATE")
	if err != nil {
		return fmt.Errorf("failed to intern WM_CHANGE_STATE: %w", err)
	}

	const iconicState = 3
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{iconicState, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// ActivateWindow maps a window and requests focus for it through
// _NET_ACTIVE_WINDOW.
func (c *Connection) ActivateWindow(windowID xproto.Window) error {
	if err := xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check(); err != nil {
		return fmt.Errorf("failed to map window: %w", err)
	}
	if err := ewmh.ActiveWindowReq(c.XUtil, windowID); err != nil {
		return fmt.Errorf("failed to activate window: %w", err)
	}
	return nil
}

// IsWindowVisible reports whether a window is mapped and not hidden by the
// window manager.
func (c *Connection) IsWindowVisible(windowID xproto.Window) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to get window attributes: %w", err)
	}
	if attrs.MapState != xproto.MapStateViewable {
		return false, nil
	}

	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		// No _NET_WM_STATE means nothing hides it.
		return true, nil
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return false, nil
		}
	}
	return true, nil
}

// WatchActiveWindow calls fn with the new active window whenever the root
// window's _NET_ACTIVE_WINDOW changes. Callbacks run on the event loop.
func (c *Connection) WatchActiveWindow(fn func(active xproto.Window)) error {
	root := xwindow.New(c.XUtil, c.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("failed to listen on root window: %w", err)
	}

	activeAtom, err := xprop.Atm(c.XUtil, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if ev.Atom != activeAtom {
			return
		}
		active, err := ewmh.ActiveWindowGet(xu)
		if err != nil {
			return
		}
		fn(active)
	}).Connect(c.XUtil, c.Root)
	return nil
}
