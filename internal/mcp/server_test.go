package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/1broseidon/sparknova/internal/search"
)

type fakeLauncher struct {
	results []search.Item
	history []string
	err     error
	queries []string
	cleared int
	shown   int
	hidden  int
}

func (f *fakeLauncher) Search(_ context.Context, query string) ([]search.Item, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func (f *fakeLauncher) History(context.Context) ([]string, error) {
	return f.history, f.err
}

func (f *fakeLauncher) ClearHistory(context.Context) error {
	f.cleared++
	return f.err
}

func (f *fakeLauncher) Show(context.Context) error {
	f.shown++
	return f.err
}

func (f *fakeLauncher) Hide(context.Context) error {
	f.hidden++
	return f.err
}

func newTestServer(t *testing.T, l *fakeLauncher) *Server {
	t.Helper()
	s, err := NewServer(l, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestNewServer_RequiresLauncher(t *testing.T) {
	if _, err := NewServer(nil, nil); err == nil {
		t.Fatal("expected error without launcher")
	}
}

func TestHandleSearch(t *testing.T) {
	l := &fakeLauncher{results: []search.Item{
		{ID: "1", Title: "Notes", Type: search.TypeApp},
		{ID: "2", Title: "notes.md", Type: search.TypeFile},
	}}
	s := newTestServer(t, l)

	_, out, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "  notes ", Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Query != "notes" || len(l.queries) != 1 || l.queries[0] != "notes" {
		t.Fatalf("expected trimmed query, got %q / %v", out.Query, l.queries)
	}
	if len(out.Results) != 1 || out.Results[0].Title != "Notes" {
		t.Fatalf("expected limited results, got %+v", out.Results)
	}
}

func TestHandleSearch_Validation(t *testing.T) {
	s := newTestServer(t, &fakeLauncher{})
	if _, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "   "}); err == nil {
		t.Fatal("expected error for blank query")
	}
	if _, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "x", Limit: -1}); err == nil {
		t.Fatal("expected error for negative limit")
	}
}

func TestHandleSearch_NilResultsBecomeEmpty(t *testing.T) {
	s := newTestServer(t, &fakeLauncher{})
	_, out, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "zzz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Results == nil || len(out.Results) != 0 {
		t.Fatalf("expected empty non-nil results, got %#v", out.Results)
	}
}

func TestHandleGetHistory(t *testing.T) {
	s := newTestServer(t, &fakeLauncher{history: []string{"c", "b", "a"}})
	_, out, err := s.handleGetHistory(context.Background(), nil, GetHistoryInput{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.History) != 2 || out.History[0] != "c" {
		t.Fatalf("unexpected history %v", out.History)
	}
}

func TestActionTools(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestServer(t, l)
	ctx := context.Background()

	if _, out, err := s.handleClearHistory(ctx, nil, EmptyInput{}); err != nil || !out.OK {
		t.Fatalf("clear_history = %+v, %v", out, err)
	}
	if _, out, err := s.handleShowWindow(ctx, nil, EmptyInput{}); err != nil || !out.OK {
		t.Fatalf("show_window = %+v, %v", out, err)
	}
	if _, out, err := s.handleHideWindow(ctx, nil, EmptyInput{}); err != nil || !out.OK {
		t.Fatalf("hide_window = %+v, %v", out, err)
	}
	if l.cleared != 1 || l.shown != 1 || l.hidden != 1 {
		t.Fatalf("unexpected calls: cleared=%d shown=%d hidden=%d", l.cleared, l.shown, l.hidden)
	}
}

func TestActionTools_PropagateErrors(t *testing.T) {
	boom := errors.New("launcher not running")
	s := newTestServer(t, &fakeLauncher{err: boom})
	ctx := context.Background()

	if _, _, err := s.handleShowWindow(ctx, nil, EmptyInput{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, _, err := s.handleGetHistory(ctx, nil, GetHistoryInput{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
