// Package daemon composes the launcher: persistence, catalog, search store,
// window control, the native event bridge, hotkeys and the IPC server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/sparknova/internal/catalog"
	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/kvstore"
	"github.com/1broseidon/sparknova/internal/launch"
	"github.com/1broseidon/sparknova/internal/logging"
	"github.com/1broseidon/sparknova/internal/search"
	"github.com/1broseidon/sparknova/internal/terminals"
)

// kv is the persistence the core owns.
type kv interface {
	search.KV
	Close() error
}

// Core is the search side of the launcher: the persisted store and the
// catalog it matches against. It runs without a display.
type Core struct {
	cfg      *config.Config
	logger   *slog.Logger
	kv       kv
	catalog  *catalog.Catalog
	matcher  search.Matcher
	store    *search.Store
	launcher *launch.Launcher
	appDirs  []string
}

// CoreOptions configures OpenCore.
type CoreOptions struct {
	Config *config.Config
	Logger *slog.Logger
	// KV overrides the SQLite state database.
	KV kv
	// Matcher overrides the catalog matcher.
	Matcher search.Matcher
}

// OpenCore opens the state database and builds the catalog and store. The
// catalog starts empty; call Refresh to populate it. A state database that
// cannot be opened is logged and replaced by an in-memory store.
func OpenCore(ctx context.Context, opts CoreOptions) (*Core, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("core requires a config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	db := opts.KV
	if db == nil {
		db = openStateDB(ctx, cfg, logger)
	}

	providers, appDirs, err := buildProviders(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	cat := catalog.New(logger.With("component", "catalog"), providers...)
	var matcher search.Matcher = catalog.NewMatcher(cat, cfg.MaxResults)
	if opts.Matcher != nil {
		matcher = opts.Matcher
	}

	c := &Core{
		cfg:     cfg,
		logger:  logger,
		kv:      db,
		catalog: cat,
		matcher: matcher,
		appDirs: appDirs,
		launcher: &launch.Launcher{
			Terminal: terminals.NewDetector(nil).Resolve(cfg.Terminal),
			Notify:   true,
			Logger:   logger.With("component", "launch"),
		},
	}
	c.store = search.Open(ctx, search.Options{
		Matcher: matcher,
		KV:      db,
		Logger:  logger.With("component", "store"),
	})
	return c, nil
}

func openStateDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) kv {
	path, err := cfg.StatePath()
	if err == nil {
		var db *kvstore.SQLite
		db, err = kvstore.OpenSQLite(ctx, path)
		if err == nil {
			logger.Debug("state database opened", "path", path)
			return db
		}
	}
	logger.Warn("state database unavailable, history will not persist", "error", err)
	return kvstore.NewMemory()
}

func buildProviders(cfg *config.Config) ([]catalog.Provider, []string, error) {
	var providers []catalog.Provider
	var appDirs []string

	src := cfg.Sources
	if src.Applications {
		for _, d := range src.ApplicationDirs {
			expanded, err := config.ExpandHome(d)
			if err != nil {
				return nil, nil, err
			}
			appDirs = append(appDirs, expanded)
		}
		if len(appDirs) == 0 {
			appDirs = catalog.DefaultApplicationDirs()
		}
		providers = append(providers, catalog.Applications{Dirs: appDirs})
	}
	if src.Commands {
		providers = append(providers, catalog.Commands{})
	}
	if len(src.Files.Dirs) > 0 {
		providers = append(providers, catalog.Files{Dirs: src.Files.Dirs, MaxDepth: src.Files.MaxDepth})
	}
	if len(src.Plugins) > 0 {
		providers = append(providers, catalog.Plugins{Configs: src.Plugins})
	}
	return providers, appDirs, nil
}

// Refresh re-reads the catalog sources.
func (c *Core) Refresh(ctx context.Context) error {
	if err := c.catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}
	return nil
}

// Store returns the search store.
func (c *Core) Store() *search.Store { return c.store }

// Catalog returns the catalog.
func (c *Core) Catalog() *catalog.Catalog { return c.catalog }

// Launcher returns the launcher used to open results.
func (c *Core) Launcher() *launch.Launcher { return c.launcher }

// Search runs query through the store and returns the results that search
// produced. A matcher failure is returned rather than the previous results.
func (c *Core) Search(ctx context.Context, query string) ([]search.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.store.Run(ctx, query)
}

// History returns the query history, most recent first.
func (c *Core) History(context.Context) ([]string, error) {
	return c.store.History(), nil
}

// ClearHistory empties the query history.
func (c *Core) ClearHistory(context.Context) error {
	c.store.ClearHistory()
	return nil
}

// Close closes the state database.
func (c *Core) Close() error {
	return c.kv.Close()
}
