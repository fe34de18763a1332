// Package tui is the launcher window's interface: a search input, the result
// list and the query history, rendered with bubbletea.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/sparknova/internal/bridge"
	"github.com/1broseidon/sparknova/internal/logging"
	"github.com/1broseidon/sparknova/internal/search"
)

// Opener launches a selected result.
type Opener interface {
	Open(ctx context.Context, item search.Item) error
}

// Options configures the launcher UI.
type Options struct {
	Store    *search.Store
	Bridge   *bridge.Bridge
	Launcher Opener
	// Scheduler is the one handed to the bridge; Run binds it to the program.
	Scheduler *Scheduler
	// Debounce delays a search after the last keystroke.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Scheduler defers bridge callbacks to the UI loop. Before a program is bound
// it runs callbacks immediately.
type Scheduler struct {
	mu sync.Mutex
	p  *tea.Program
}

// NewScheduler returns an unbound Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule implements bridge.Scheduler.
func (s *Scheduler) Schedule(fn func()) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p == nil {
		fn()
		return
	}
	// Send blocks until the loop reads it; never block the caller's goroutine
	// on a busy or exiting program.
	go p.Send(runMsg{fn: fn})
}

func (s *Scheduler) bind(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

// Run shows the launcher until the user quits or ctx is canceled. The bridge
// is attached when the UI starts and detached when it exits.
func Run(ctx context.Context, opts Options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("launcher requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	if opts.Store == nil || opts.Bridge == nil {
		return fmt.Errorf("launcher requires a store and a bridge")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	m := newModel(ctx, opts)
	defer m.close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Scheduler != nil {
		opts.Scheduler.bind(p)
		defer opts.Scheduler.bind(nil)
	}
	defer opts.Bridge.Detach()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("launcher ui failed: %w", err)
	}
	return nil
}
