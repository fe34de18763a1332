package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/sparknova/internal/catalog"
	"github.com/1broseidon/sparknova/internal/logging"
)

// RefresherConfig holds configuration for the refresher.
type RefresherConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Refresher periodically re-reads the catalog so sources that are not
// watched (commands on $PATH, files) stay current.
type Refresher struct {
	interval time.Duration
	target   catalog.Refresher
	logger   *slog.Logger
}

// NewRefresher creates a refresher for target.
func NewRefresher(cfg RefresherConfig, target catalog.Refresher) *Refresher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Refresher{
		interval: interval,
		target:   target,
		logger:   logger,
	}
}

// Run starts the refresh loop. Blocks until context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("refresher started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// RefreshNow triggers an immediate refresh outside the regular interval.
func (r *Refresher) RefreshNow(ctx context.Context) {
	r.refresh(ctx)
}

func (r *Refresher) refresh(ctx context.Context) {
	// Recover from panics to prevent crashing the launcher
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("refresher panic recovered", "error", err)
		}
	}()

	start := time.Now()
	if err := r.target.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("refresher: catalog refresh failed", "error", err)
		}
		return
	}
	r.logger.Debug("refresher: catalog refreshed", "elapsed", time.Since(start))
}
