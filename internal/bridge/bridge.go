// Package bridge ties the launcher's search input to asynchronous platform
// events: focus requests arriving from the window layer and the request to
// hide the main window.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/sparknova/internal/events"
	"github.com/1broseidon/sparknova/internal/logging"
)

// DefaultAutoFocusDelay is how long after Attach the input is focused.
const DefaultAutoFocusDelay = 150 * time.Millisecond

var errNoEventSource = errors.New("no event source configured")

// Focuser is the UI element that receives keyboard focus.
type Focuser interface {
	Focus()
}

// EventSource delivers named platform events.
type EventSource interface {
	Subscribe(ctx context.Context, name string, handler func(name string)) (unsubscribe func(), err error)
}

// WindowController hides the launcher's main window.
type WindowController interface {
	HideMainWindow(ctx context.Context) error
}

// Scheduler runs fn after the UI has finished its next update cycle.
type Scheduler func(fn func())

// Immediate is a Scheduler that runs fn on the calling goroutine.
func Immediate(fn func()) { fn() }

// State is the bridge's subscription state.
type State int

const (
	Unbound State = iota
	Subscribing
	Bound
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Subscribing:
		return "subscribing"
	case Bound:
		return "bound"
	default:
		return "unknown"
	}
}

// Config configures a Bridge.
type Config struct {
	Events    EventSource
	Window    WindowController
	Scheduler Scheduler
	Logger    *slog.Logger
	// AutoFocusDelay defaults to DefaultAutoFocusDelay when zero.
	AutoFocusDelay time.Duration
}

// Bridge owns the focus-request subscription for one mounted input.
type Bridge struct {
	events    EventSource
	window    WindowController
	schedule  Scheduler
	logger    *slog.Logger
	autoDelay time.Duration

	mu     sync.Mutex
	state  State
	target Focuser
	unsub  func()
	timer  *time.Timer
	// gen invalidates a subscription that completes after Detach.
	gen uint64
}

// New creates an unbound Bridge.
func New(cfg Config) *Bridge {
	b := &Bridge{
		events:    cfg.Events,
		window:    cfg.Window,
		schedule:  cfg.Scheduler,
		logger:    cfg.Logger,
		autoDelay: cfg.AutoFocusDelay,
	}
	if b.schedule == nil {
		b.schedule = Immediate
	}
	if b.logger == nil {
		b.logger = logging.Discard()
	}
	if b.autoDelay <= 0 {
		b.autoDelay = DefaultAutoFocusDelay
	}
	return b
}

// State returns the current subscription state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// AutoFocusDelay returns the effective auto-focus delay.
func (b *Bridge) AutoFocusDelay() time.Duration {
	return b.autoDelay
}

// FocusInput focuses the attached input after the next UI update. Without an
// attached input it does nothing.
func (b *Bridge) FocusInput() {
	b.schedule(func() {
		b.mu.Lock()
		target := b.target
		b.mu.Unlock()
		if target != nil {
			target.Focus()
		}
	})
}

// HideWindow asks the platform to hide the main window. Failures are logged.
func (b *Bridge) HideWindow(ctx context.Context) {
	if b.window == nil {
		b.logger.Warn("hide window: no window controller")
		return
	}
	if err := b.window.HideMainWindow(ctx); err != nil {
		b.logger.Warn("failed to hide window", "error", err)
	}
}

// Attach binds target, subscribes to focus requests and schedules the initial
// auto-focus. A failed subscription is logged and leaves the bridge usable
// without event-driven focus. Attaching while already attached replaces the
// previous binding.
func (b *Bridge) Attach(ctx context.Context, target Focuser) {
	b.Detach()

	b.mu.Lock()
	b.target = target
	b.state = Subscribing
	gen := b.gen
	b.mu.Unlock()

	var (
		unsub func()
		err   error
	)
	if b.events == nil {
		err = errNoEventSource
	} else {
		unsub, err = b.events.Subscribe(ctx, events.FocusInput, func(string) { b.FocusInput() })
	}

	b.mu.Lock()
	if gen != b.gen {
		// Detached while subscribing.
		b.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		return
	}
	if err != nil {
		b.state = Unbound
		b.logger.Warn("failed to subscribe to focus events", "event", events.FocusInput, "error", err)
	} else {
		b.state = Bound
		b.unsub = unsub
	}
	b.timer = time.AfterFunc(b.autoDelay, b.FocusInput)
	b.mu.Unlock()
}

// Detach clears the target, cancels a pending auto-focus and releases the
// subscription. Calling it again is a no-op.
func (b *Bridge) Detach() {
	b.mu.Lock()
	b.gen++
	b.target = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	unsub := b.unsub
	b.unsub = nil
	b.state = Unbound
	b.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
