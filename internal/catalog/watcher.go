package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/1broseidon/sparknova/internal/logging"
)

// DefaultWatchDebounce is how long the watcher waits for a burst of changes
// to settle before refreshing.
const DefaultWatchDebounce = 500 * time.Millisecond

// Refresher is what the watcher triggers on change.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Dirs     []string
	Target   Refresher
	Debounce time.Duration
	Logger   *slog.Logger

	// MinInterval is the minimum time between two refreshes.
	MinInterval time.Duration
}

// Watcher refreshes a catalog when files change in the watched directories.
type Watcher struct {
	cfg     WatcherConfig
	logger  *slog.Logger
	limiter *rate.Limiter

	mu      sync.Mutex
	pending bool
	last    time.Time
}

// NewWatcher creates a watcher. Call Run to start it.
func NewWatcher(cfg WatcherConfig) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultWatchDebounce
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 2 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		cfg:     cfg,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
	}
}

// Run watches until ctx is done. Directories that do not exist are skipped.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	watched := 0
	for _, dir := range w.cfg.Dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := fw.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	w.logger.Debug("catalog watcher started", "dirs", watched)

	ticker := time.NewTicker(w.cfg.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.last = time.Now()
			w.mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	ready := w.pending && time.Since(w.last) >= w.cfg.Debounce
	w.mu.Unlock()
	if !ready || !w.limiter.Allow() {
		return
	}

	w.mu.Lock()
	w.pending = false
	w.mu.Unlock()

	if err := w.cfg.Target.Refresh(ctx); err != nil && ctx.Err() == nil {
		w.logger.Warn("catalog refresh after change failed", "error", err)
	}
}
