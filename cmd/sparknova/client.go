package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/daemon"
	"github.com/1broseidon/sparknova/internal/ipc"
	"github.com/1broseidon/sparknova/internal/search"
)

// launcherClient talks to the running launcher over IPC. Searches and
// history fall back to a local store when no launcher is running; window
// commands need the launcher.
type launcherClient struct {
	cfg    *config.Config
	logger *slog.Logger
	ipc    *ipc.Client

	once    sync.Once
	core    *daemon.Core
	coreErr error
}

func newLauncherClient(cfg *config.Config, client *ipc.Client, logger *slog.Logger) *launcherClient {
	return &launcherClient{cfg: cfg, logger: logger, ipc: client}
}

func (c *launcherClient) running() bool {
	return c.ipc.Ping() == nil
}

func (c *launcherClient) local(ctx context.Context) (*daemon.Core, error) {
	c.once.Do(func() {
		c.core, c.coreErr = daemon.OpenCore(ctx, daemon.CoreOptions{Config: c.cfg, Logger: c.logger})
		if c.coreErr != nil {
			return
		}
		if err := c.core.Refresh(ctx); err != nil {
			c.logger.Warn("catalog refresh failed", "error", err)
		}
	})
	return c.core, c.coreErr
}

func (c *launcherClient) Search(ctx context.Context, query string) ([]search.Item, error) {
	if c.running() {
		data, err := c.ipc.Search(query)
		if err != nil {
			return nil, err
		}
		return data.Results, nil
	}
	core, err := c.local(ctx)
	if err != nil {
		return nil, err
	}
	return core.Search(ctx, query)
}

func (c *launcherClient) History(ctx context.Context) ([]string, error) {
	if c.running() {
		return c.ipc.History()
	}
	core, err := c.local(ctx)
	if err != nil {
		return nil, err
	}
	return core.History(ctx)
}

func (c *launcherClient) ClearHistory(ctx context.Context) error {
	if c.running() {
		return c.ipc.ClearHistory()
	}
	core, err := c.local(ctx)
	if err != nil {
		return err
	}
	return core.ClearHistory(ctx)
}

func (c *launcherClient) Show(context.Context) error {
	if err := c.ipc.Show(); err != nil {
		return fmt.Errorf("launcher is not reachable: %w", err)
	}
	return nil
}

func (c *launcherClient) Hide(context.Context) error {
	if err := c.ipc.Hide(); err != nil {
		return fmt.Errorf("launcher is not reachable: %w", err)
	}
	return nil
}

// Close releases the local store, if one was opened.
func (c *launcherClient) Close() error {
	if c.core != nil {
		return c.core.Close()
	}
	return nil
}
