package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/1broseidon/sparknova/internal/logging"
)

// StoreKey is the key the store state is persisted under.
const StoreKey = "sparknova-search"

// KV is the persisted key-value collaborator.
type KV interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Options configures a Store.
type Options struct {
	// Matcher produces results. Defaults to NopMatcher.
	Matcher Matcher
	// KV persists the state. When nil the store is memory-only.
	KV     KV
	Logger *slog.Logger
}

// Store owns the query text, the result list, the busy flag and the query
// history. Every mutation is written through to the KV collaborator and
// published to subscribers.
type Store struct {
	matcher Matcher
	kv      KV
	logger  *slog.Logger

	mu       sync.Mutex
	query    string
	results  []Item
	inFlight int
	history  *History
	version  uint64

	persistMu sync.Mutex
	written   uint64

	obsMu     sync.Mutex
	observers map[uint64]func(State)
	nextObs   uint64
}

// Open creates a store and rehydrates it from opts.KV. Missing or malformed
// persisted state falls back to defaults.
func Open(ctx context.Context, opts Options) *Store {
	s := &Store{
		matcher:   opts.Matcher,
		kv:        opts.KV,
		logger:    opts.Logger,
		results:   []Item{},
		history:   &History{},
		observers: make(map[uint64]func(State)),
	}
	if s.matcher == nil {
		s.matcher = NopMatcher{}
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.rehydrate(ctx)
	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	if s.kv == nil {
		return
	}

	data, ok, err := s.kv.Get(ctx, StoreKey)
	if err != nil {
		s.logger.Warn("search store: failed to read persisted state", "key", StoreKey, "error", err)
		return
	}
	if !ok || len(data) == 0 {
		return
	}

	var persisted State
	if err := json.Unmarshal(data, &persisted); err != nil {
		s.logger.Warn("search store: discarding malformed persisted state", "key", StoreKey, "error", err)
		return
	}

	results, dropped := normalizeResults(persisted.Results)
	if dropped > 0 {
		s.logger.Debug("search store: dropped invalid persisted results", "count", dropped)
	}

	s.query = persisted.Query
	s.results = results
	s.history = RestoreHistory(persisted.History)
	// No search survives a restart.
	s.inFlight = 0
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, _ := s.snapshotLocked()
	return st
}

// Query returns the current query text.
func (s *Store) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Results returns a copy of the current results.
func (s *Store) Results() []Item {
	return s.Snapshot().Results
}

// IsSearching reports whether a search is in flight.
func (s *Store) IsSearching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// History returns the query history, most recent first.
func (s *Store) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// SetQuery replaces the query text. It does not trigger a search.
func (s *Store) SetQuery(value string) {
	s.mutate(func() { s.query = value })
}

// ClearQuery empties the query and the results.
func (s *Store) ClearQuery() {
	s.mutate(func() {
		s.query = ""
		s.results = []Item{}
	})
}

// AddToHistory records text in the history (see History.Add).
func (s *Store) AddToHistory(text string) {
	s.mutate(func() { s.history.Add(text) })
}

// ClearHistory empties the history.
func (s *Store) ClearHistory() {
	s.mutate(func() { s.history.Clear() })
}

// Search runs the matcher for override, or for the current query when
// override is empty. A blank effective query only clears the results.
//
// Matcher failures are logged and leave the previous results in place; they
// are never returned. Overlapping calls are not serialized: the call that
// completes last decides the final results.
func (s *Store) Search(ctx context.Context, override string) {
	_, _ = s.Run(ctx, override)
}

// Run is Search for callers that need the outcome of this particular call.
// It returns the results the call produced, or the matcher error when the
// search did not settle. The store state changes exactly as with Search.
func (s *Store) Run(ctx context.Context, override string) ([]Item, error) {
	s.mu.Lock()
	q := override
	if q == "" {
		q = s.query
	}
	if strings.TrimSpace(q) == "" {
		s.results = []Item{}
		s.commitLocked(ctx)
		return []Item{}, nil
	}
	s.inFlight++
	s.commitLocked(ctx)

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.commitLocked(ctx)
	}()

	items, err := s.match(ctx, q)
	if err != nil {
		s.logger.Warn("search failed", "query", q, "error", err)
		return nil, fmt.Errorf("search %q failed: %w", q, err)
	}

	results, dropped := normalizeResults(items)
	if dropped > 0 {
		s.logger.Debug("search: dropped invalid results", "query", q, "count", dropped)
	}

	s.mu.Lock()
	s.results = results
	s.history.Add(q)
	s.commitLocked(ctx)
	s.logger.Debug("search completed", "query", q, "results", len(results))
	out := make([]Item, len(results))
	copy(out, results)
	return out, nil
}

func (s *Store) match(ctx context.Context, q string) (items []Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("matcher panic: %v", r)
		}
	}()
	return s.matcher.Match(ctx, q)
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// returned function removes the subscription; calling it again is a no-op.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.commitLocked(context.Background())
}

// commitLocked snapshots the state, releases s.mu, then persists and
// notifies. It must be called with s.mu held.
func (s *Store) commitLocked(ctx context.Context) {
	s.version++
	st, ver := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(context.WithoutCancel(ctx), st, ver)
	s.notify(st)
}

func (s *Store) snapshotLocked() (State, uint64) {
	results := make([]Item, len(s.results))
	copy(results, s.results)
	return State{
		Query:       s.query,
		Results:     results,
		IsSearching: s.inFlight > 0,
		History:     s.history.Entries(),
	}, s.version
}

func (s *Store) persist(ctx context.Context, st State, ver uint64) {
	if s.kv == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	// A newer snapshot already reached the KV store.
	if ver < s.written {
		return
	}

	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Error("search store: failed to encode state", "error", err)
		return
	}
	if err := s.kv.Set(ctx, StoreKey, data); err != nil {
		s.logger.Warn("search store: failed to persist state", "key", StoreKey, "error", err)
		return
	}
	s.written = ver
}

func (s *Store) notify(st State) {
	s.obsMu.Lock()
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
