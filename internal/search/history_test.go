package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryAdd_MostRecentFirst(t *testing.T) {
	var h History
	require.True(t, h.Add("firefox"))
	require.True(t, h.Add("terminal"))

	require.Equal(t, []string{"terminal", "firefox"}, h.Entries())
}

func TestHistoryAdd_DeduplicatesAndMovesToFront(t *testing.T) {
	var h History
	h.Add("a")
	h.Add("b")
	h.Add("a")

	require.Equal(t, []string{"a", "b"}, h.Entries())

	h.Add("b")
	h.Add("b")
	require.Equal(t, []string{"b", "a"}, h.Entries())
}

func TestHistoryAdd_TrimsBeforeCompare(t *testing.T) {
	var h History
	h.Add("notes")
	h.Add("  notes \t")

	require.Equal(t, []string{"notes"}, h.Entries())
}

func TestHistoryAdd_CaseSensitive(t *testing.T) {
	var h History
	h.Add("Notes")
	h.Add("notes")

	require.Equal(t, []string{"notes", "Notes"}, h.Entries())
}

func TestHistoryAdd_IgnoresBlank(t *testing.T) {
	var h History
	for _, s := range []string{"", " ", "\t\n", "   "} {
		require.False(t, h.Add(s), "Add(%q)", s)
	}
	require.Zero(t, h.Len())
}

func TestHistoryAdd_CapsAtLimitDroppingOldest(t *testing.T) {
	var h History
	for i := 0; i <= HistoryLimit; i++ {
		h.Add(fmt.Sprintf("query-%d", i))
	}

	entries := h.Entries()
	require.Len(t, entries, HistoryLimit)
	require.Equal(t, fmt.Sprintf("query-%d", HistoryLimit), entries[0])
	require.NotContains(t, entries, "query-0")
	require.Contains(t, entries, "query-1")
}

func TestHistoryClear(t *testing.T) {
	var h History
	h.Add("a")
	h.Clear()
	require.Zero(t, h.Len())
	require.Empty(t, h.Entries())
}

func TestHistoryEntries_ReturnsCopy(t *testing.T) {
	var h History
	h.Add("a")
	entries := h.Entries()
	entries[0] = "mutated"

	require.Equal(t, []string{"a"}, h.Entries())
}

func TestRestoreHistory_ReappliesInvariants(t *testing.T) {
	raw := []string{"newest", "", " dup ", "middle", "dup", "   ", "oldest"}

	h := RestoreHistory(raw)

	require.Equal(t, []string{"newest", "dup", "middle", "oldest"}, h.Entries())
}

func TestRestoreHistory_Caps(t *testing.T) {
	raw := make([]string, 0, HistoryLimit+10)
	for i := 0; i < HistoryLimit+10; i++ {
		raw = append(raw, fmt.Sprintf("q%d", i))
	}

	h := RestoreHistory(raw)

	require.Equal(t, HistoryLimit, h.Len())
	require.Equal(t, "q0", h.Entries()[0])
}
