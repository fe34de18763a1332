package platform

import "errors"

var (
	// ErrNoDisplay is returned when no window system is available.
	ErrNoDisplay = errors.New("no display available")
	// ErrNoMainWindow is returned when the launcher window could not be resolved.
	ErrNoMainWindow = errors.New("launcher window not resolved")
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Display describes a physical display.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
}

// Backend controls the launcher's main window on a window system.
type Backend interface {
	ShowWindow() error
	HideWindow() error
	IsVisible() (bool, error)
	IsFocused() (bool, error)
	ActiveDisplay() (Display, error)
	MoveResize(bounds Rect) error
}

// NullBackend is used when no window system is reachable. Every operation
// fails with ErrNoDisplay.
type NullBackend struct{}

var _ Backend = NullBackend{}

func (NullBackend) ShowWindow() error               { return ErrNoDisplay }
func (NullBackend) HideWindow() error               { return ErrNoDisplay }
func (NullBackend) IsVisible() (bool, error)        { return false, ErrNoDisplay }
func (NullBackend) IsFocused() (bool, error)        { return false, ErrNoDisplay }
func (NullBackend) ActiveDisplay() (Display, error) { return Display{}, ErrNoDisplay }
func (NullBackend) MoveResize(Rect) error           { return ErrNoDisplay }
