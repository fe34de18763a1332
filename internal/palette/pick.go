package palette

import (
	"context"
	"fmt"
	"strings"

	"github.com/1broseidon/sparknova/internal/search"
)

// Source answers searches and lists the query history.
type Source interface {
	Search(ctx context.Context, query string) ([]search.Item, error)
	History(ctx context.Context) ([]string, error)
}

// Opener launches a selected result.
type Opener interface {
	Open(ctx context.Context, item search.Item) error
}

// Picker runs a search round trip through a palette backend: ask for a query,
// show the results, open the selection.
type Picker struct {
	Backend Backend
	Source  Source
	Opener  Opener
}

// Pick opens the item the user selects for query. An empty query is asked
// for first, offering the history as suggestions. It returns the opened item.
func (p *Picker) Pick(ctx context.Context, query string) (search.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		history, err := p.Source.History(ctx)
		if err != nil {
			return search.Item{}, fmt.Errorf("failed to load history: %w", err)
		}
		query, err = p.Backend.Prompt(ctx, "sparknova", history)
		if err != nil {
			return search.Item{}, err
		}
		if query = strings.TrimSpace(query); query == "" {
			return search.Item{}, ErrCancelled
		}
	}

	results, err := p.Source.Search(ctx, query)
	if err != nil {
		return search.Item{}, fmt.Errorf("failed to search: %w", err)
	}
	if len(results) == 0 {
		return search.Item{}, fmt.Errorf("no results for %q", query)
	}

	items := make([]Item, 0, len(results))
	byInfo := make(map[string]search.Item, len(results))
	for _, r := range results {
		items = append(items, resultItem(r))
		byInfo[r.ID] = r
	}

	chosen, err := p.Backend.Choose(ctx, query, items, fmt.Sprintf("%d results", len(results)))
	if err != nil {
		return search.Item{}, err
	}
	item, ok := byInfo[chosen.Info]
	if !ok {
		return search.Item{}, fmt.Errorf("palette: selection %q is not a result", chosen.Label)
	}
	if err := p.Opener.Open(ctx, item); err != nil {
		return search.Item{}, err
	}
	return item, nil
}

func resultItem(r search.Item) Item {
	label := r.Title
	if r.Description != "" {
		label += "  " + r.Description
	}
	return Item{
		Label: fmt.Sprintf("[%s] %s", r.Type, label),
		Icon:  r.Icon,
		Info:  r.ID,
		Meta:  r.Path,
	}
}
