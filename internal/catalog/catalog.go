// Package catalog indexes launchable things (applications, commands, files
// and plugins) and matches queries against them.
package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/sparknova/internal/logging"
	"github.com/1broseidon/sparknova/internal/search"
)

// idNamespace scopes result ids so they are stable across refreshes and runs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/1broseidon/sparknova/catalog"))

// StableID derives a deterministic result id from a type and a path.
func StableID(t search.ResultType, path string) string {
	return uuid.NewSHA1(idNamespace, []byte(string(t)+"\x00"+path)).String()
}

// Entry is one indexed item.
type Entry struct {
	Item search.Item
	// Keywords are matched in addition to the title.
	Keywords []string
	// Command and Args are set for plugins. An arg containing QueryPlaceholder
	// makes the plugin dynamic: it is offered for every query.
	Command string
	Args    []string
}

// Provider produces catalog entries from one source.
type Provider interface {
	Name() string
	Entries(ctx context.Context) ([]Entry, error)
}

// Catalog holds the merged entries of its providers. Reads are lock-free.
type Catalog struct {
	providers []Provider
	logger    *slog.Logger

	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	entries []Entry
	byID    map[string]int
}

// New creates an empty catalog. Call Refresh to populate it.
func New(logger *slog.Logger, providers ...Provider) *Catalog {
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Catalog{providers: providers, logger: logger}
	c.swap(nil)
	return c
}

// Refresh re-reads every provider concurrently and swaps the merged result in
// atomically. A failing provider is logged and contributes nothing. Entries
// with a duplicate id keep the first occurrence in provider order.
func (c *Catalog) Refresh(ctx context.Context) error {
	results := make([][]Entry, len(c.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range c.providers {
		g.Go(func() error {
			entries, err := p.Entries(gctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("catalog provider failed", "provider", p.Name(), "error", err)
				return nil
			}
			results[i] = entries
			c.logger.Debug("catalog provider loaded", "provider", p.Name(), "entries", len(entries))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var merged []Entry
	seen := make(map[string]struct{})
	for _, entries := range results {
		for _, e := range entries {
			if _, dup := seen[e.Item.ID]; dup {
				continue
			}
			seen[e.Item.ID] = struct{}{}
			merged = append(merged, e)
		}
	}

	c.swap(merged)
	c.logger.Info("catalog refreshed", "entries", len(merged))
	return nil
}

func (c *Catalog) swap(entries []Entry) {
	if entries == nil {
		entries = []Entry{}
	}
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Item.ID] = i
	}
	c.snap.Store(&snapshot{entries: entries, byID: index})
}

// Entries returns the current entries. The slice must not be modified.
func (c *Catalog) Entries() []Entry {
	return c.snap.Load().entries
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.snap.Load().entries)
}

// Lookup returns the entry with the given id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	snap := c.snap.Load()
	i, ok := snap.byID[id]
	if !ok {
		return Entry{}, false
	}
	return snap.entries[i], true
}
