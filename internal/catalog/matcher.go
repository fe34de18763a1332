package catalog

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/1broseidon/sparknova/internal/search"
)

// DefaultMaxResults caps a match when no limit is configured.
const DefaultMaxResults = 50

// Matcher fuzzy-matches queries against a catalog's titles and keywords.
// Dynamic plugins are appended to every non-empty match and count against
// the result limit.
type Matcher struct {
	catalog    *Catalog
	maxResults int
}

// NewMatcher returns a Matcher over c returning at most maxResults items.
func NewMatcher(c *Catalog, maxResults int) *Matcher {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Matcher{catalog: c, maxResults: maxResults}
}

// entrySource adapts catalog entries to fuzzy.Source.
type entrySource []Entry

func (s entrySource) String(i int) string {
	e := s[i]
	if len(e.Keywords) == 0 {
		return e.Item.Title
	}
	return e.Item.Title + " " + strings.Join(e.Keywords, " ")
}

func (s entrySource) Len() int { return len(s) }

// Match returns ranked items for query, best first.
func (m *Matcher) Match(ctx context.Context, query string) ([]search.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []search.Item{}, nil
	}

	entries := entrySource(m.catalog.Entries())
	var dynamic []Entry
	var static entrySource
	for _, e := range entries {
		if e.Item.Type == search.TypePlugin && e.Dynamic() {
			dynamic = append(dynamic, e)
			continue
		}
		static = append(static, e)
	}

	matches := fuzzy.FindFrom(query, static)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(dynamic) > m.maxResults {
		dynamic = dynamic[:m.maxResults]
	}
	staticMax := m.maxResults - len(dynamic)

	items := make([]search.Item, 0, min(len(matches), staticMax)+len(dynamic))
	for _, match := range matches {
		if len(items) >= staticMax {
			break
		}
		items = append(items, static[match.Index].Item.Scored(float64(match.Score)))
	}
	for _, e := range dynamic {
		items = append(items, e.ForQuery(query))
	}
	return items, nil
}
