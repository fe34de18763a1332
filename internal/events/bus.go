package events

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/1broseidon/sparknova/internal/logging"
)

// Event names exchanged between the platform layer and the launcher UI.
const (
	// FocusInput asks the launcher to focus its search input.
	FocusInput = "spark_focus_input"
	// ActivateInput is emitted when the window is shown.
	ActivateInput = "activate-input"
	// FocusSearchInput is emitted when the window regains focus.
	FocusSearchInput = "focus-search-input"
	// WindowHidden is emitted after the window was hidden.
	WindowHidden = "window-hidden"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("event bus closed")

const queueSize = 256

// Handler handles a named event.
type Handler = func(name string)

// Bus is an in-process named-event channel. Handlers run on their own
// goroutine so a slow or panicking handler never blocks Emit.
type Bus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]map[uint64]Handler
	nextID   uint64
	closed   bool

	queue chan string
	quit  chan struct{}
	wg    sync.WaitGroup
}

// NewBus creates a bus and starts its dispatcher. A nil logger discards.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = logging.Discard()
	}
	b := &Bus{
		logger:   logger,
		handlers: make(map[string]map[uint64]Handler),
		queue:    make(chan string, queueSize),
		quit:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Subscribe registers handler for name. The returned function removes it;
// calling it more than once is a no-op.
func (b *Bus) Subscribe(ctx context.Context, name string, handler Handler) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, errors.New("nil event handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	id := b.nextID
	b.nextID++
	if b.handlers[name] == nil {
		b.handlers[name] = make(map[uint64]Handler)
	}
	b.handlers[name][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[name], id)
			if len(b.handlers[name]) == 0 {
				delete(b.handlers, name)
			}
		})
	}, nil
}

// Emit queues name for delivery to its current subscribers. It reports false
// when the event was dropped because the bus is closed or its queue is full.
func (b *Bus) Emit(name string) bool {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return false
	}

	select {
	case b.queue <- name:
		return true
	default:
		b.logger.Warn("event queue full, dropping event", "event", name)
		return false
	}
}

// Subscribers returns the number of handlers registered for name.
func (b *Bus) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// Close stops the dispatcher. Queued events are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.handlers = make(map[string]map[uint64]Handler)
	b.mu.Unlock()

	close(b.quit)
	b.wg.Wait()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case name := <-b.queue:
			b.mu.RLock()
			hs := make([]Handler, 0, len(b.handlers[name]))
			for _, h := range b.handlers[name] {
				hs = append(hs, h)
			}
			b.mu.RUnlock()

			for _, h := range hs {
				go b.deliver(h, name)
			}
		case <-b.quit:
			for {
				select {
				case <-b.queue:
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(h Handler, name string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic", "event", name, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	h(name)
}
