//go:build linux

package platform

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/sparknova/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend drives the launcher window over X11.
type LinuxBackend struct {
	conn   *x11.Connection
	window xproto.Window
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a backend for window on an existing connection.
func NewLinuxBackend(conn *x11.Connection, window WindowID) *LinuxBackend {
	return &LinuxBackend{conn: conn, window: xproto.Window(window)}
}

// NewLinuxBackendFromDisplay opens a connection to display ("" for $DISPLAY)
// and resolves the launcher window from $WINDOWID, falling back to the
// window that is active right now.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	window, err := resolveMainWindow(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &LinuxBackend{conn: conn, window: xproto.Window(window)}, nil
}

func resolveMainWindow(conn *x11.Connection) (WindowID, error) {
	if raw := strings.TrimSpace(os.Getenv("WINDOWID")); raw != "" {
		id, err := strconv.ParseUint(raw, 0, 32)
		if err == nil && id != 0 {
			return WindowID(id), nil
		}
	}
	active, err := conn.GetActiveWindow()
	if err != nil || active == 0 {
		return 0, fmt.Errorf("%w: no $WINDOWID and no active window", ErrNoMainWindow)
	}
	return WindowID(active), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// StopEventLoop makes a running EventLoop return.
func (b *LinuxBackend) StopEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// MainWindow returns the launcher window.
func (b *LinuxBackend) MainWindow() WindowID {
	return WindowID(b.window)
}

// ShowWindow moves the launcher onto the current desktop, maps it and asks
// the window manager to focus it.
func (b *LinuxBackend) ShowWindow() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	// Desktop support is optional in EWMH.
	_ = conn.MoveToCurrentDesktop(b.window)
	return conn.ActivateWindow(b.window)
}

// HideWindow iconifies the launcher via WM_CHANGE_STATE.
func (b *LinuxBackend) HideWindow() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.IconifyWindow(b.window)
}

func (b *LinuxBackend) IsVisible() (bool, error) {
	conn, err := b.connection()
	if err != nil {
		return false, err
	}
	return conn.IsWindowVisible(b.window)
}

func (b *LinuxBackend) IsFocused() (bool, error) {
	conn, err := b.connection()
	if err != nil {
		return false, err
	}
	active, err := conn.GetActiveWindow()
	if err != nil {
		return false, err
	}
	return active == b.window, nil
}

// ActiveDisplay returns the currently active display.
func (b *LinuxBackend) ActiveDisplay() (Display, error) {
	conn, err := b.connection()
	if err != nil {
		return Display{}, err
	}

	active, err := conn.GetActiveMonitor()
	if err != nil {
		return Display{}, err
	}

	return Display{
		ID:   active.ID,
		Name: active.Name,
		Bounds: Rect{
			X:      active.X,
			Y:      active.Y,
			Width:  active.Width,
			Height: active.Height,
		},
	}, nil
}

// MoveResize moves and resizes the launcher window.
func (b *LinuxBackend) MoveResize(bounds Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveResizeWindow(b.window, bounds.X, bounds.Y, bounds.Width, bounds.Height)
}

// WatchFocus calls fn whenever the launcher gains or loses focus. Callbacks
// run on the event loop goroutine.
func (b *LinuxBackend) WatchFocus(fn func(focused bool)) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	focused := false
	return conn.WatchActiveWindow(func(active xproto.Window) {
		now := active == b.window
		if now == focused {
			return
		}
		focused = now
		fn(now)
	})
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	if b.window == 0 {
		return nil, ErrNoMainWindow
	}
	return b.conn, nil
}
