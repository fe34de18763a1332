package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/sparknova/internal/events"
	"github.com/1broseidon/sparknova/internal/logging"
)

// Emitter publishes named platform events.
type Emitter interface {
	Emit(name string) bool
}

// SizeConfig sizes the launcher relative to the active display.
type SizeConfig struct {
	WidthRatio float64
	MinWidth   int
	MaxWidth   int
	Height     int
}

// LauncherSize returns the launcher bounds for a display: width is a ratio of
// the display width clamped to [MinWidth, MaxWidth], height is fixed, and the
// window is centered. Neither dimension exceeds the display.
func LauncherSize(display Rect, cfg SizeConfig) Rect {
	width := int(float64(display.Width) * cfg.WidthRatio)
	if width < cfg.MinWidth {
		width = cfg.MinWidth
	}
	if cfg.MaxWidth > 0 && width > cfg.MaxWidth {
		width = cfg.MaxWidth
	}
	width = min(width, display.Width)
	height := min(cfg.Height, display.Height)

	return Rect{
		X:      display.X + (display.Width-width)/2,
		Y:      display.Y + (display.Height-height)/2,
		Width:  width,
		Height: height,
	}
}

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	Backend Backend
	Events  Emitter
	Logger  *slog.Logger
	Size    SizeConfig
	// BlurHideDelay ignores focus loss for this long after the window was shown.
	BlurHideDelay time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller applies launcher window policy on top of a Backend: sizing on
// show, hiding on focus loss, and announcing visibility changes as events.
type Controller struct {
	backend Backend
	events  Emitter
	logger  *slog.Logger
	size    SizeConfig
	blur    time.Duration
	now     func() time.Time

	mu          sync.Mutex
	lastShown   time.Time
	lastDisplay Rect
	sized       bool
}

// NewController creates a Controller. A nil backend behaves like NullBackend.
func NewController(cfg ControllerConfig) *Controller {
	c := &Controller{
		backend: cfg.Backend,
		events:  cfg.Events,
		logger:  cfg.Logger,
		size:    cfg.Size,
		blur:    cfg.BlurHideDelay,
		now:     cfg.Now,
	}
	if c.backend == nil {
		c.backend = NullBackend{}
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Show shows the launcher, resizes it if the active display changed, and
// asks the UI to focus its input.
func (c *Controller) Show(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.backend.ShowWindow(); err != nil {
		return fmt.Errorf("failed to show window: %w", err)
	}

	c.mu.Lock()
	c.lastShown = c.now()
	c.mu.Unlock()

	c.ensureSize()
	c.emit(events.ActivateInput)
	c.emit(events.FocusInput)
	return nil
}

// HideMainWindow hides the launcher and announces it.
func (c *Controller) HideMainWindow(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.backend.HideWindow(); err != nil {
		return fmt.Errorf("failed to hide window: %w", err)
	}
	c.emit(events.WindowHidden)
	return nil
}

// Toggle hides the launcher when it is visible and focused, and shows it
// otherwise.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.Visible() && c.Focused() {
		return c.HideMainWindow(ctx)
	}
	return c.Show(ctx)
}

// HandleFocusLost hides a visible launcher unless it was shown less than
// BlurHideDelay ago.
func (c *Controller) HandleFocusLost(ctx context.Context) {
	if !c.Visible() {
		return
	}

	c.mu.Lock()
	since := c.now().Sub(c.lastShown)
	c.mu.Unlock()
	if since < c.blur {
		c.logger.Debug("ignoring focus loss right after show", "since", since)
		return
	}

	if err := c.HideMainWindow(ctx); err != nil {
		c.logger.Warn("failed to hide window on focus loss", "error", err)
	}
}

// HandleFocusGained re-checks the window size and asks the UI to focus its
// search input.
func (c *Controller) HandleFocusGained(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	c.ensureSize()
	c.emit(events.FocusSearchInput)
	c.emit(events.FocusInput)
}

// Visible reports whether the launcher window is shown. Errors count as hidden.
func (c *Controller) Visible() bool {
	visible, err := c.backend.IsVisible()
	if err != nil {
		c.logger.Debug("visibility check failed", "error", err)
		return false
	}
	return visible
}

// Focused reports whether the launcher window has focus. Errors count as
// unfocused.
func (c *Controller) Focused() bool {
	focused, err := c.backend.IsFocused()
	if err != nil {
		c.logger.Debug("focus check failed", "error", err)
		return false
	}
	return focused
}

func (c *Controller) ensureSize() {
	display, err := c.backend.ActiveDisplay()
	if err != nil {
		c.logger.Debug("cannot determine active display", "error", err)
		return
	}

	c.mu.Lock()
	unchanged := c.sized && c.lastDisplay == display.Bounds
	c.mu.Unlock()
	if unchanged {
		return
	}

	bounds := LauncherSize(display.Bounds, c.size)
	if err := c.backend.MoveResize(bounds); err != nil {
		c.logger.Warn("failed to resize window", "display", display.Name, "error", err)
		return
	}

	c.mu.Lock()
	c.lastDisplay = display.Bounds
	c.sized = true
	c.mu.Unlock()
	c.logger.Debug("resized launcher", "display", display.Name, "width", bounds.Width, "height", bounds.Height)
}

func (c *Controller) emit(name string) {
	if c.events != nil {
		c.events.Emit(name)
	}
}
