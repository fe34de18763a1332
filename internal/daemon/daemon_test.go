package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/events"
	"github.com/1broseidon/sparknova/internal/ipc"
	"github.com/1broseidon/sparknova/internal/kvstore"
	"github.com/1broseidon/sparknova/internal/platform"
	"github.com/1broseidon/sparknova/internal/search"
)

type fakeBackend struct {
	mu      sync.Mutex
	visible bool
	focused bool
	shows   int
	hides   int
}

func (f *fakeBackend) ShowWindow() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shows++
	f.visible = true
	f.focused = true
	return nil
}

func (f *fakeBackend) HideWindow() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hides++
	f.visible = false
	f.focused = false
	return nil
}

func (f *fakeBackend) IsVisible() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible, nil
}

func (f *fakeBackend) IsFocused() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused, nil
}

func (f *fakeBackend) ActiveDisplay() (platform.Display, error) {
	return platform.Display{Name: "test", Bounds: platform.Rect{Width: 1920, Height: 1080}}, nil
}

func (f *fakeBackend) MoveResize(platform.Rect) error { return nil }

func (f *fakeBackend) counts() (shows, hides int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shows, f.hides
}

// testConfig indexes only a temp directory holding a few files.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "report.md", "todo.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	cfg := config.DefaultConfig()
	cfg.Hotkey = ""
	cfg.Sources = config.SourcesConfig{
		Files:           config.FilesSource{Dirs: []string{dir}, MaxDepth: 1},
		RefreshInterval: time.Hour,
	}
	return cfg
}

func TestOpenCore_SearchRecordsHistory(t *testing.T) {
	ctx := context.Background()
	core, err := OpenCore(ctx, CoreOptions{Config: testConfig(t), KV: kvstore.NewMemory()})
	require.NoError(t, err)
	defer core.Close()

	require.NoError(t, core.Refresh(ctx))
	require.Equal(t, 3, core.Catalog().Len())

	items, err := core.Search(ctx, "notes")
	require.NoError(t, err)
	require.NotEmpty(t, items)
	require.Equal(t, "notes.txt", items[0].Title)

	history, err := core.History(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"notes"}, history)

	require.NoError(t, core.ClearHistory(ctx))
	history, _ = core.History(ctx)
	require.Empty(t, history)
}

func TestOpenCore_PersistsHistoryInStateDatabase(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.StatePathRaw = filepath.Join(t.TempDir(), "state.db")

	core, err := OpenCore(ctx, CoreOptions{Config: cfg})
	require.NoError(t, err)
	require.NoError(t, core.Refresh(ctx))
	_, err = core.Search(ctx, "report")
	require.NoError(t, err)
	require.NoError(t, core.Close())

	reopened, err := OpenCore(ctx, CoreOptions{Config: cfg})
	require.NoError(t, err)
	defer reopened.Close()

	history, err := reopened.History(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"report"}, history)
}

func TestOpenCore_RequiresConfig(t *testing.T) {
	_, err := OpenCore(context.Background(), CoreOptions{})
	require.Error(t, err)
}

func TestOpenCore_CanceledSearch(t *testing.T) {
	core, err := OpenCore(context.Background(), CoreOptions{Config: testConfig(t), KV: kvstore.NewMemory()})
	require.NoError(t, err)
	defer core.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = core.Search(ctx, "notes")
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpenCore_SearchFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	notes := search.Item{ID: "n", Title: "notes.txt", Type: search.TypeFile}
	errBackend := errors.New("index unavailable")
	matcher := search.MatcherFunc(func(_ context.Context, q string) ([]search.Item, error) {
		if q == "broken" {
			return nil, errBackend
		}
		return []search.Item{notes}, nil
	})

	core, err := OpenCore(ctx, CoreOptions{Config: testConfig(t), KV: kvstore.NewMemory(), Matcher: matcher})
	require.NoError(t, err)
	defer core.Close()

	items, err := core.Search(ctx, "notes")
	require.NoError(t, err)
	require.Equal(t, []search.Item{notes}, items)

	items, err = core.Search(ctx, "broken")
	require.ErrorIs(t, err, errBackend)
	require.Nil(t, items, "previous results must not be reported for the failed query")

	require.Equal(t, []search.Item{notes}, core.Store().Results())
	history, _ := core.History(ctx)
	require.Equal(t, []string{"notes"}, history)
}

type flakyRefresher struct {
	calls atomic.Int32
	panic bool
}

func (f *flakyRefresher) Refresh(context.Context) error {
	n := f.calls.Add(1)
	if f.panic && n == 1 {
		panic("boom")
	}
	return errors.New("source unavailable")
}

func TestRefresher_RecoversAndKeepsTicking(t *testing.T) {
	target := &flakyRefresher{panic: true}
	r := NewRefresher(RefresherConfig{Interval: 5 * time.Millisecond}, target)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestRefresher_RefreshNow(t *testing.T) {
	target := &flakyRefresher{}
	r := NewRefresher(RefresherConfig{}, target)
	r.RefreshNow(context.Background())
	require.Equal(t, int32(1), target.calls.Load())
}

func startService(t *testing.T) (*Service, *fakeBackend, string) {
	t.Helper()
	backend := &fakeBackend{}
	socket := filepath.Join(t.TempDir(), "s.sock")

	svc, err := New(context.Background(), Options{
		Config:     testConfig(t),
		KV:         kvstore.NewMemory(),
		Backend:    backend,
		SocketPath: socket,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() { require.NoError(t, svc.Close()) })

	require.Eventually(t, func() bool { return svc.Core().Catalog().Len() == 3 }, 2*time.Second, 10*time.Millisecond)
	return svc, backend, socket
}

func TestService_WindowCommandsOverIPC(t *testing.T) {
	_, backend, socket := startService(t)
	client := ipc.NewClientWithSocket(socket)

	require.NoError(t, client.Ping())
	require.NoError(t, client.Toggle())
	shows, hides := backend.counts()
	require.Equal(t, 1, shows)
	require.Equal(t, 0, hides)

	// Visible and focused: toggle hides.
	require.NoError(t, client.Toggle())
	_, hides = backend.counts()
	require.Equal(t, 1, hides)

	require.NoError(t, client.Show())
	require.NoError(t, client.Hide())
	shows, hides = backend.counts()
	require.Equal(t, 2, shows)
	require.Equal(t, 2, hides)
}

func TestService_SearchHistoryAndStatusOverIPC(t *testing.T) {
	_, _, socket := startService(t)
	client := ipc.NewClientWithSocket(socket)

	data, err := client.Search("todo")
	require.NoError(t, err)
	require.Equal(t, "todo", data.Query)
	require.NotEmpty(t, data.Results)
	require.Equal(t, "todo.txt", data.Results[0].Title)

	history, err := client.History()
	require.NoError(t, err)
	require.Equal(t, []string{"todo"}, history)

	status, err := client.GetStatus()
	require.NoError(t, err)
	require.Equal(t, 1, status.HistoryLength)
	require.Equal(t, 3, status.CatalogSize)
	require.Equal(t, len(data.Results), status.ResultCount)
	require.False(t, status.Visible)

	require.NoError(t, client.ClearHistory())
	history, err = client.History()
	require.NoError(t, err)
	require.Empty(t, history)
}

type focusCounter struct {
	n atomic.Int32
}

func (f *focusCounter) Focus() { f.n.Add(1) }

func TestService_FocusReachesAttachedInput(t *testing.T) {
	svc, _, socket := startService(t)

	target := &focusCounter{}
	svc.Bridge().Attach(context.Background(), target)
	defer svc.Bridge().Detach()

	// Wait out the auto-focus so only the requested focus is counted.
	require.Eventually(t, func() bool { return target.n.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, ipc.NewClientWithSocket(socket).Focus())
	require.Eventually(t, func() bool { return target.n.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, svc.Events().Subscribers(events.FocusInput))
}

func TestService_BridgeHideWindow(t *testing.T) {
	svc, backend, _ := startService(t)
	ctx := context.Background()

	require.NoError(t, svc.Show(ctx))
	svc.Bridge().HideWindow(ctx)
	_, hides := backend.counts()
	require.Equal(t, 1, hides)
}

func TestService_CloseIsIdempotent(t *testing.T) {
	svc, err := New(context.Background(), Options{
		Config:     testConfig(t),
		KV:         kvstore.NewMemory(),
		Backend:    platform.NullBackend{},
		SocketPath: filepath.Join(t.TempDir(), "s.sock"),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())

	// Without a display the window commands fail.
	require.ErrorIs(t, svc.Show(context.Background()), platform.ErrNoDisplay)
}
