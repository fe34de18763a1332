package platform

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/1broseidon/sparknova/internal/events"
)

type fakeBackend struct {
	visible bool
	focused bool
	display Display
	showErr error
	hideErr error
	shows   int
	hides   int
	resizes []Rect
}

func (f *fakeBackend) ShowWindow() error {
	if f.showErr != nil {
		return f.showErr
	}
	f.shows++
	f.visible = true
	f.focused = true
	return nil
}

func (f *fakeBackend) HideWindow() error {
	if f.hideErr != nil {
		return f.hideErr
	}
	f.hides++
	f.visible = false
	f.focused = false
	return nil
}

func (f *fakeBackend) IsVisible() (bool, error)        { return f.visible, nil }
func (f *fakeBackend) IsFocused() (bool, error)        { return f.focused, nil }
func (f *fakeBackend) ActiveDisplay() (Display, error) { return f.display, nil }

func (f *fakeBackend) MoveResize(r Rect) error {
	f.resizes = append(f.resizes, r)
	return nil
}

type recordingEmitter struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingEmitter) Emit(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	return true
}

func (r *recordingEmitter) emitted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var defaultSize = SizeConfig{WidthRatio: 0.75, MinWidth: 400, MaxWidth: 960, Height: 420}

func newTestController(b Backend, em Emitter, clock *fakeClock) *Controller {
	return NewController(ControllerConfig{
		Backend:       b,
		Events:        em,
		Size:          defaultSize,
		BlurHideDelay: 3 * time.Second,
		Now:           clock.now,
	})
}

func TestLauncherSize(t *testing.T) {
	tests := []struct {
		name    string
		display Rect
		want    Rect
	}{
		{"clamped to max", Rect{Width: 1920, Height: 1080}, Rect{X: 480, Y: 330, Width: 960, Height: 420}},
		{"ratio in range", Rect{Width: 1000, Height: 800}, Rect{X: 125, Y: 190, Width: 750, Height: 420}},
		{"clamped to min", Rect{Width: 500, Height: 600}, Rect{X: 50, Y: 90, Width: 400, Height: 420}},
		{"offset display", Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}, Rect{X: 1920 + 800, Y: 510, Width: 960, Height: 420}},
		{"never larger than display", Rect{Width: 300, Height: 200}, Rect{X: 0, Y: 0, Width: 300, Height: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, LauncherSize(tt.display, defaultSize))
		})
	}
}

func TestShow_ResizesOnlyWhenDisplayChanges(t *testing.T) {
	b := &fakeBackend{display: Display{Name: "eDP-1", Bounds: Rect{Width: 1920, Height: 1080}}}
	em := &recordingEmitter{}
	c := newTestController(b, em, &fakeClock{t: time.Unix(0, 0)})

	require.NoError(t, c.Show(context.Background()))
	require.NoError(t, c.Show(context.Background()))
	require.Len(t, b.resizes, 1)

	b.display = Display{Name: "HDMI-1", Bounds: Rect{X: 1920, Width: 1280, Height: 1024}}
	require.NoError(t, c.Show(context.Background()))
	require.Len(t, b.resizes, 2)
	require.Equal(t, 960, b.resizes[1].Width)

	require.Equal(t, []string{
		events.ActivateInput, events.FocusInput,
		events.ActivateInput, events.FocusInput,
		events.ActivateInput, events.FocusInput,
	}, em.emitted())
}

func TestShow_BackendFailure(t *testing.T) {
	em := &recordingEmitter{}
	c := newTestController(NullBackend{}, em, &fakeClock{})

	err := c.Show(context.Background())
	require.ErrorIs(t, err, ErrNoDisplay)
	require.Empty(t, em.emitted())
}

func TestHideMainWindow_EmitsWindowHidden(t *testing.T) {
	b := &fakeBackend{visible: true}
	em := &recordingEmitter{}
	c := newTestController(b, em, &fakeClock{})

	require.NoError(t, c.HideMainWindow(context.Background()))
	require.Equal(t, 1, b.hides)
	require.Equal(t, []string{events.WindowHidden}, em.emitted())

	b.hideErr = errors.New("bad window")
	require.Error(t, c.HideMainWindow(context.Background()))
	require.Len(t, em.emitted(), 1)
}

func TestToggle(t *testing.T) {
	b := &fakeBackend{}
	c := newTestController(b, nil, &fakeClock{})

	require.NoError(t, c.Toggle(context.Background()))
	require.Equal(t, 1, b.shows)

	require.NoError(t, c.Toggle(context.Background()))
	require.Equal(t, 1, b.hides)

	// Visible but behind another window: bring it forward.
	b.visible, b.focused = true, false
	require.NoError(t, c.Toggle(context.Background()))
	require.Equal(t, 2, b.shows)
	require.Equal(t, 1, b.hides)
}

func TestHandleFocusLost_RespectsBlurDelay(t *testing.T) {
	b := &fakeBackend{}
	clock := &fakeClock{t: time.Unix(100, 0)}
	c := newTestController(b, nil, clock)
	require.NoError(t, c.Show(context.Background()))

	clock.advance(time.Second)
	c.HandleFocusLost(context.Background())
	require.Zero(t, b.hides, "focus loss right after show is ignored")

	clock.advance(3 * time.Second)
	c.HandleFocusLost(context.Background())
	require.Equal(t, 1, b.hides)

	c.HandleFocusLost(context.Background())
	require.Equal(t, 1, b.hides, "hidden window is not hidden again")
}

func TestHandleFocusGained_EmitsFocusEvents(t *testing.T) {
	b := &fakeBackend{display: Display{Bounds: Rect{Width: 800, Height: 600}}}
	em := &recordingEmitter{}
	c := newTestController(b, em, &fakeClock{})

	c.HandleFocusGained(context.Background())
	require.Equal(t, []string{events.FocusSearchInput, events.FocusInput}, em.emitted())
	require.Len(t, b.resizes, 1)
}

func TestNullBackend(t *testing.T) {
	var b Backend = NullBackend{}
	require.ErrorIs(t, b.ShowWindow(), ErrNoDisplay)
	require.ErrorIs(t, b.HideWindow(), ErrNoDisplay)
	_, err := b.IsVisible()
	require.ErrorIs(t, err, ErrNoDisplay)
	require.ErrorIs(t, b.MoveResize(Rect{}), ErrNoDisplay)

	c := NewController(ControllerConfig{})
	require.False(t, c.Visible())
	require.ErrorIs(t, c.HideMainWindow(context.Background()), ErrNoDisplay)
}
