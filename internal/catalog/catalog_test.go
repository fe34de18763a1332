package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/search"
)

type staticProvider struct {
	name    string
	entries []Entry
	err     error
}

func (p staticProvider) Name() string { return p.name }

func (p staticProvider) Entries(context.Context) ([]Entry, error) {
	return p.entries, p.err
}

func entry(t search.ResultType, title, path string) Entry {
	return Entry{Item: search.Item{ID: StableID(t, path), Title: title, Type: t, Path: path}}
}

func TestStableID_Deterministic(t *testing.T) {
	a := StableID(search.TypeApp, "/usr/share/applications/notes.desktop")
	b := StableID(search.TypeApp, "/usr/share/applications/notes.desktop")
	c := StableID(search.TypeFile, "/usr/share/applications/notes.desktop")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCatalog_RefreshMergesAndDedups(t *testing.T) {
	notes := entry(search.TypeApp, "Notes", "/apps/notes.desktop")
	shadow := notes
	shadow.Item.Title = "Shadowed Notes"

	c := New(nil,
		staticProvider{name: "first", entries: []Entry{notes}},
		staticProvider{name: "broken", err: errors.New("boom")},
		staticProvider{name: "second", entries: []Entry{shadow, entry(search.TypeCommand, "ls", "/bin/ls")}},
	)
	require.Equal(t, 0, c.Len())
	require.NotNil(t, c.Entries())

	require.NoError(t, c.Refresh(context.Background()))
	require.Equal(t, 2, c.Len())

	got, ok := c.Lookup(notes.Item.ID)
	require.True(t, ok)
	assert.Equal(t, "Notes", got.Item.Title)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestCatalog_RefreshCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(nil, Commands{PathList: t.TempDir()})
	err := c.Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCommands_FirstPathEntryWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeExec := func(dir, name string, mode os.FileMode) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), mode))
	}
	writeExec(first, "tool", 0o755)
	writeExec(second, "tool", 0o755)
	writeExec(second, "other", 0o755)
	writeExec(second, "data.txt", 0o644)
	require.NoError(t, os.Mkdir(filepath.Join(second, "subdir"), 0o755))

	entries, err := Commands{PathList: first + string(os.PathListSeparator) + second}.Entries(context.Background())
	require.NoError(t, err)

	byTitle := map[string]string{}
	for _, e := range entries {
		assert.Equal(t, search.TypeCommand, e.Item.Type)
		byTitle[e.Item.Title] = e.Item.Path
	}
	assert.Equal(t, map[string]string{
		"tool":  filepath.Join(first, "tool"),
		"other": filepath.Join(second, "other"),
	}, byTitle)
}

func TestFiles_SkipsDotEntriesAndHonoursDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "report.pdf"), "x")
	writeFile(t, filepath.Join(root, ".secret"), "x")
	writeFile(t, filepath.Join(root, ".git", "config"), "x")
	writeFile(t, filepath.Join(root, "docs", "notes.md"), "x")
	writeFile(t, filepath.Join(root, "docs", "deep", "buried.md"), "x")

	titles := func(depth int) []string {
		entries, err := Files{Dirs: []string{root}, MaxDepth: depth}.Entries(context.Background())
		require.NoError(t, err)
		var out []string
		for _, e := range entries {
			assert.Equal(t, search.TypeFile, e.Item.Type)
			out = append(out, e.Item.Title)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"report.pdf", "docs"}, titles(0))
	assert.ElementsMatch(t, []string{"report.pdf", "docs", "notes.md", "deep"}, titles(1))
	assert.ElementsMatch(t, []string{"report.pdf", "docs", "notes.md", "deep", "buried.md"}, titles(2))
}

func TestPlugins_Entries(t *testing.T) {
	entries, err := Plugins{Configs: []config.PluginConfig{
		{Name: "Web Search", Command: "xdg-open", Args: []string{"https://duckduckgo.com/?q={query}"}},
		{Name: "Lock", Command: "loginctl", Args: []string{"lock-session"}, Icon: "system-lock-screen"},
		{Name: "", Command: "ignored"},
	}}.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].Dynamic())
	assert.False(t, entries[1].Dynamic())
	assert.Equal(t, "application-x-executable", entries[0].Item.Icon)
	assert.Equal(t, "system-lock-screen", entries[1].Item.Icon)
	assert.Equal(t, "loginctl lock-session", entries[1].Item.Path)
}

func TestCommandLine_QuotesQuery(t *testing.T) {
	line := CommandLine("echo", []string{"{query}"}, "it's here")
	assert.Equal(t, `echo 'it'"'"'s here'`, line)
	assert.Equal(t, "echo ''", CommandLine("echo", []string{"{query}"}, ""))
}
