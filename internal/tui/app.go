package tui

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/sparknova/internal/bridge"
	"github.com/1broseidon/sparknova/internal/search"
)

type (
	// runMsg carries a bridge callback onto the UI loop.
	runMsg struct{ fn func() }
	// changedMsg reports that the store state changed.
	changedMsg struct{}
	// searchMsg fires when the debounce for keystroke seq expires.
	searchMsg struct{ seq int }
	// launchedMsg reports the outcome of opening a result.
	launchedMsg struct {
		title string
		err   error
	}
)

// inputTarget is the bridge's focus target. Focus requests are recorded and
// applied to the text input on the next update.
type inputTarget struct {
	requested atomic.Bool
}

func (t *inputTarget) Focus() { t.requested.Store(true) }

// model is the root bubbletea model for the launcher.
type model struct {
	ctx      context.Context
	store    *search.Store
	bridge   *bridge.Bridge
	launcher Opener
	logger   *slog.Logger
	debounce time.Duration

	target      *inputTarget
	changed     chan struct{}
	unsubscribe func()

	input    textinput.Model
	state    search.State
	selected int
	seq      int
	status   string
	lastErr  string

	width  int
	height int
}

func newModel(ctx context.Context, opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "Search apps, files, commands"
	ti.Prompt = "❯ "
	ti.CharLimit = 256

	m := model{
		ctx:      ctx,
		store:    opts.Store,
		bridge:   opts.Bridge,
		launcher: opts.Launcher,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		target:   &inputTarget{},
		changed:  make(chan struct{}, 1),
		input:    ti,
		state:    opts.Store.Snapshot(),
	}
	m.input.SetValue(m.state.Query)

	changed := m.changed
	m.unsubscribe = opts.Store.Subscribe(func(search.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	return m
}

func (m model) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// waitForChange delivers the next store change notification.
func (m model) waitForChange() tea.Cmd {
	changed := m.changed
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-changed:
			return changedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// Init implements tea.Model. It attaches the bridge, which focuses the input
// after the auto-focus delay.
func (m model) Init() tea.Cmd {
	b, ctx, target := m.bridge, m.ctx, m.target
	attach := func() tea.Msg {
		b.Attach(ctx, target)
		return nil
	}
	return tea.Batch(attach, m.waitForChange(), textinput.Blink)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case runMsg:
		msg.fn()

	case changedMsg:
		m.applyState(m.store.Snapshot())
		cmds = append(cmds, m.waitForChange())

	case searchMsg:
		if msg.seq == m.seq {
			cmds = append(cmds, m.searchCmd())
		}

	case launchedMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		} else {
			m.lastErr = ""
			m.status = "opened " + msg.title
			m.input.Reset()
			m.selected = 0
			m.seq++
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)

	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if !handled {
			prev := m.input.Value()
			var icmd tea.Cmd
			m.input, icmd = m.input.Update(msg)
			cmds = append(cmds, icmd)
			if m.input.Value() != prev {
				cmds = append(cmds, m.queryChanged())
			}
		}
	}

	if m.target.requested.Swap(false) {
		cmds = append(cmds, m.input.Focus())
	}
	return m, tea.Batch(cmds...)
}

// handleKey processes launcher shortcuts. It reports false for keys the text
// input should receive.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true

	case "up", "ctrl+p":
		m.moveSelection(-1)
		return nil, true

	case "down", "ctrl+n":
		m.moveSelection(1)
		return nil, true

	case "enter":
		if m.showingHistory() {
			return m.recallHistory(), true
		}
		return m.launchSelected(), true

	case "tab":
		if m.showingHistory() {
			return m.recallHistory(), true
		}
		return nil, true

	case "esc":
		if m.input.Value() != "" {
			m.input.Reset()
			m.store.ClearQuery()
			m.seq++
			m.selected = 0
			return nil, true
		}
		return m.hideCmd(), true

	case "ctrl+d":
		m.store.ClearHistory()
		m.status = "history cleared"
		return nil, true
	}
	return nil, false
}

func (m *model) queryChanged() tea.Cmd {
	value := m.input.Value()
	m.store.SetQuery(value)
	m.selected = 0
	m.seq++
	seq := m.seq
	if strings.TrimSpace(value) == "" {
		return m.searchCmd()
	}
	return tea.Tick(m.debounce, func(time.Time) tea.Msg { return searchMsg{seq: seq} })
}

func (m model) searchCmd() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		store.Search(ctx, "")
		return nil
	}
}

func (m model) hideCmd() tea.Cmd {
	b, ctx := m.bridge, m.ctx
	return func() tea.Msg {
		b.HideWindow(ctx)
		return nil
	}
}

func (m *model) recallHistory() tea.Cmd {
	entries := m.state.History
	if m.selected < 0 || m.selected >= len(entries) {
		return nil
	}
	m.input.SetValue(entries[m.selected])
	m.input.CursorEnd()
	m.store.SetQuery(entries[m.selected])
	m.selected = 0
	m.seq++
	return m.searchCmd()
}

func (m *model) launchSelected() tea.Cmd {
	results := m.state.Results
	if m.selected < 0 || m.selected >= len(results) || m.launcher == nil {
		return nil
	}
	item := results[m.selected]
	query := m.input.Value()
	store, launcher, b, ctx := m.store, m.launcher, m.bridge, m.ctx

	return func() tea.Msg {
		store.AddToHistory(query)
		err := launcher.Open(ctx, item)
		if err == nil {
			store.ClearQuery()
			b.HideWindow(ctx)
		}
		return launchedMsg{title: item.Title, err: err}
	}
}

func (m *model) applyState(st search.State) {
	m.state = st
	if st.Query != m.input.Value() && !m.input.Focused() {
		m.input.SetValue(st.Query)
	}
	if n := m.listLen(); m.selected >= n {
		m.selected = max(n-1, 0)
	}
}

func (m model) showingHistory() bool {
	return strings.TrimSpace(m.input.Value()) == ""
}

func (m model) listLen() int {
	if m.showingHistory() {
		return len(m.state.History)
	}
	return len(m.state.Results)
}

func (m *model) moveSelection(delta int) {
	n := m.listLen()
	if n == 0 {
		m.selected = 0
		return
	}
	m.selected = (m.selected + delta + n) % n
}
