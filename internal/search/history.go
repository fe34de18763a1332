package search

import "strings"

// HistoryLimit is the maximum number of entries kept in a History.
const HistoryLimit = 50

// History is a bounded, deduplicated, most-recent-first list of queries.
// The zero value is an empty history ready for use. It is not safe for
// concurrent use; Store serializes access to it.
type History struct {
	entries []string
}

// RestoreHistory rebuilds a History from previously persisted entries
// (most-recent-first). Blank and repeated entries are dropped, entries are
// trimmed, and the result is capped at HistoryLimit.
func RestoreHistory(entries []string) *History {
	h := &History{}
	for i := len(entries) - 1; i >= 0; i-- {
		h.Add(entries[i])
	}
	return h
}

// Add records text as the most recent entry. Input is trimmed before
// comparison; blank input is ignored. An existing equal entry is moved to the
// front rather than duplicated, and the oldest entries are evicted past
// HistoryLimit. It reports whether the history changed.
func (h *History) Add(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	next := make([]string, 0, len(h.entries)+1)
	next = append(next, trimmed)
	for _, e := range h.entries {
		if e != trimmed {
			next = append(next, e)
		}
	}
	if len(next) > HistoryLimit {
		next = next[:HistoryLimit]
	}
	h.entries = next
	return true
}

// Clear removes all entries.
func (h *History) Clear() {
	h.entries = nil
}

// Entries returns a copy of the entries, most recent first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}
