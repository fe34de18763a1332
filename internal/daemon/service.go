package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/sparknova/internal/bridge"
	"github.com/1broseidon/sparknova/internal/catalog"
	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/events"
	"github.com/1broseidon/sparknova/internal/hotkeys"
	"github.com/1broseidon/sparknova/internal/ipc"
	"github.com/1broseidon/sparknova/internal/logging"
	"github.com/1broseidon/sparknova/internal/platform"
	"github.com/1broseidon/sparknova/internal/search"
)

// focusWatcher is implemented by backends that report focus changes.
type focusWatcher interface {
	WatchFocus(fn func(focused bool)) error
}

// eventLooper is implemented by backends that need their events pumped.
type eventLooper interface {
	EventLoop()
	StopEventLoop()
}

type disconnecter interface {
	Disconnect()
}

// Options configures a Service.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// KV overrides the SQLite state database.
	KV kv
	// Backend overrides the display connection named by Config.Display.
	Backend platform.Backend
	// Scheduler defers bridge focus calls onto the UI loop.
	Scheduler bridge.Scheduler
	// SocketPath overrides the IPC socket location.
	SocketPath string
}

// Service is the running launcher. It implements ipc.Handler.
type Service struct {
	cfg    *config.Config
	logger *slog.Logger
	core   *Core

	bus        *events.Bus
	backend    platform.Backend
	controller *platform.Controller
	bridge     *bridge.Bridge
	refresher  *Refresher
	socketPath string
	ipc        *ipc.Server
	started    time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ ipc.Handler = (*Service)(nil)

// New builds the service without starting any background work.
func New(ctx context.Context, opts Options) (*Service, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("service requires a config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	core, err := OpenCore(ctx, CoreOptions{Config: cfg, Logger: logger, KV: opts.KV})
	if err != nil {
		return nil, err
	}

	backend := opts.Backend
	if backend == nil {
		backend = openBackend(cfg, logger)
	}

	bus := events.NewBus(logger.With("component", "events"))
	controller := platform.NewController(platform.ControllerConfig{
		Backend: backend,
		Events:  bus,
		Logger:  logger.With("component", "window"),
		Size: platform.SizeConfig{
			WidthRatio: cfg.Window.WidthRatio,
			MinWidth:   cfg.Window.MinWidth,
			MaxWidth:   cfg.Window.MaxWidth,
			Height:     cfg.Window.Height,
		},
		BlurHideDelay: cfg.BlurHideDelay,
	})

	s := &Service{
		cfg:        cfg,
		logger:     logger,
		core:       core,
		bus:        bus,
		backend:    backend,
		controller: controller,
		bridge: bridge.New(bridge.Config{
			Events:         bus,
			Window:         controller,
			Scheduler:      opts.Scheduler,
			Logger:         logger.With("component", "bridge"),
			AutoFocusDelay: cfg.AutoFocusDelay,
		}),
		refresher: NewRefresher(RefresherConfig{
			Interval: cfg.Sources.RefreshInterval,
			Logger:   logger.With("component", "refresher"),
		}, core.Catalog()),
		socketPath: opts.SocketPath,
	}
	return s, nil
}

// Start loads the catalog in the background and starts the file watcher,
// the refresher, focus tracking, the global hotkey and the IPC server.
// Everything stops when ctx is canceled or Close is called.
func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = time.Now()

	server, err := ipc.NewServer(s.socketPath, s, s.logger.With("component", "ipc"))
	if err != nil {
		cancel()
		return err
	}
	if err := server.Start(runCtx); err != nil {
		cancel()
		return err
	}
	s.ipc = server

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refresher.RefreshNow(runCtx)
		s.refresher.Run(runCtx)
	}()

	if dirs := s.core.appDirs; len(dirs) > 0 {
		watcher := catalog.NewWatcher(catalog.WatcherConfig{
			Dirs:        dirs,
			Target:      s.core.Catalog(),
			Logger:      s.logger.With("component", "watcher"),
			MinInterval: time.Second,
		})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := watcher.Run(runCtx); err != nil {
				s.logger.Warn("application watcher stopped", "error", err)
			}
		}()
	}

	if fw, ok := s.backend.(focusWatcher); ok {
		err := fw.WatchFocus(func(focused bool) {
			if focused {
				s.controller.HandleFocusGained(runCtx)
			} else {
				s.controller.HandleFocusLost(runCtx)
			}
		})
		if err != nil {
			s.logger.Warn("focus tracking unavailable", "error", err)
		}
	}

	if s.cfg.Hotkey != "" {
		handler := hotkeys.NewHandler(s.backend, s.controller, s.logger.With("component", "hotkeys"))
		if err := handler.RegisterToggle(runCtx, s.cfg.Hotkey); err != nil {
			s.logger.Warn("global hotkey unavailable", "hotkey", s.cfg.Hotkey, "error", err)
		}
	}

	if loop, ok := s.backend.(eventLooper); ok {
		go loop.EventLoop()
	}

	s.logger.Info("launcher started", "socket", server.SocketPath(), "hotkey", s.cfg.Hotkey)
	return nil
}

// Close stops background work and releases the display and the state
// database. It is safe to call more than once.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.ipc != nil {
			s.ipc.Stop()
		}
		s.bridge.Detach()
		if loop, ok := s.backend.(eventLooper); ok {
			loop.StopEventLoop()
		}
		s.wg.Wait()
		if d, ok := s.backend.(disconnecter); ok {
			d.Disconnect()
		}
		s.bus.Close()
		if cerr := s.core.Close(); cerr != nil {
			err = fmt.Errorf("failed to close state database: %w", cerr)
		}
		s.logger.Info("launcher stopped")
	})
	return err
}

// Core returns the search side of the service.
func (s *Service) Core() *Core { return s.core }

// Store returns the search store.
func (s *Service) Store() *search.Store { return s.core.Store() }

// Bridge returns the native event bridge for the launcher input.
func (s *Service) Bridge() *bridge.Bridge { return s.bridge }

// Events returns the event bus.
func (s *Service) Events() *events.Bus { return s.bus }

// Toggle shows or hides the launcher window.
func (s *Service) Toggle(ctx context.Context) error {
	return s.controller.Toggle(ctx)
}

// Show shows the launcher window.
func (s *Service) Show(ctx context.Context) error {
	return s.controller.Show(ctx)
}

// Hide hides the launcher window.
func (s *Service) Hide(ctx context.Context) error {
	return s.controller.HideMainWindow(ctx)
}

// Focus asks the launcher UI to focus its search input.
func (s *Service) Focus(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.bus.Emit(events.FocusInput) {
		return fmt.Errorf("failed to emit %s", events.FocusInput)
	}
	return nil
}

// Search runs query through the store.
func (s *Service) Search(ctx context.Context, query string) ([]search.Item, error) {
	return s.core.Search(ctx, query)
}

// History returns the query history, most recent first.
func (s *Service) History(context.Context) []string {
	return s.core.Store().History()
}

// ClearHistory empties the query history.
func (s *Service) ClearHistory(ctx context.Context) error {
	return s.core.ClearHistory(ctx)
}

// Status reports the launcher state.
func (s *Service) Status(context.Context) ipc.StatusData {
	st := s.core.Store().Snapshot()
	var uptime int64
	if !s.started.IsZero() {
		uptime = int64(time.Since(s.started).Seconds())
	}
	return ipc.StatusData{
		UptimeSeconds: uptime,
		Query:         st.Query,
		ResultCount:   len(st.Results),
		HistoryLength: len(st.History),
		IsSearching:   st.IsSearching,
		Visible:       s.controller.Visible(),
		CatalogSize:   s.core.Catalog().Len(),
	}
}
