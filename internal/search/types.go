package search

import (
	"context"
	"fmt"
	"strings"
)

// ResultType classifies a result item. The set is closed.
type ResultType string

const (
	TypeApp     ResultType = "app"
	TypeFile    ResultType = "file"
	TypeCommand ResultType = "command"
	TypePlugin  ResultType = "plugin"
)

// Valid reports whether t is one of the known result types.
func (t ResultType) Valid() bool {
	switch t {
	case TypeApp, TypeFile, TypeCommand, TypePlugin:
		return true
	default:
		return false
	}
}

// ParseResultType parses a result type name (case-insensitive).
func ParseResultType(s string) (ResultType, error) {
	t := ResultType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown result type %q (expected: app, file, command, plugin)", s)
	}
	return t, nil
}

// Item is a single search result.
type Item struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Type        ResultType `json:"type"`
	Path        string     `json:"path,omitempty"`
	// Score is nil for unscored results. Higher is more relevant.
	Score *float64 `json:"score,omitempty"`
}

// Scored returns a copy of the item with the given score set.
func (it Item) Scored(score float64) Item {
	it.Score = &score
	return it
}

// State is a snapshot of the store's observable state.
type State struct {
	Query       string   `json:"query"`
	Results     []Item   `json:"results"`
	IsSearching bool     `json:"isSearching"`
	History     []string `json:"history"`
}

// HasQuery reports whether the query contains non-whitespace text.
func (s State) HasQuery() bool {
	return strings.TrimSpace(s.Query) != ""
}

// HasResults reports whether the result list is non-empty.
func (s State) HasResults() bool {
	return len(s.Results) > 0
}

// Matcher produces result items for a query. Implementations must be safe
// for repeated and concurrent calls and report failures as errors.
type Matcher interface {
	Match(ctx context.Context, query string) ([]Item, error)
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(ctx context.Context, query string) ([]Item, error)

func (f MatcherFunc) Match(ctx context.Context, query string) ([]Item, error) {
	return f(ctx, query)
}

// NopMatcher matches nothing.
type NopMatcher struct{}

func (NopMatcher) Match(context.Context, string) ([]Item, error) {
	return []Item{}, nil
}

// normalizeResults drops items that break the result-list invariants: items
// without a known type, items without a title, and repeated ids (first wins).
// The returned slice is never nil.
func normalizeResults(items []Item) (out []Item, dropped int) {
	out = make([]Item, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if !it.Type.Valid() || strings.TrimSpace(it.Title) == "" {
			dropped++
			continue
		}
		if _, dup := seen[it.ID]; dup {
			dropped++
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out, dropped
}
