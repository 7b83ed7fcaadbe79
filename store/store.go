package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/arclight-labs/kbase/core"
)

// Store loads and caches the immutable entry snapshot from a JSON source
// file. The snapshot is replaced wholesale when the source's modification
// time changes; readers always see a complete, consistent snapshot.
type Store struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot *core.Snapshot
	modTime  time.Time
}

// sourceDocument is the on-disk shape of the snapshot source.
type sourceDocument struct {
	Entries     []core.Entry `json:"entries"`
	Categories  []string     `json:"categories"`
	LastUpdated string       `json:"lastUpdated"`
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a store backed by the JSON document at path.
// Nothing is read until the first Load.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default().With("component", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the current snapshot, reading and parsing the source when no
// snapshot exists yet or the source's modification time changed since the
// last load. An unchanged source returns the identical cached snapshot with
// no reparse. A missing or malformed source fails with core.ErrLoad.
func (s *Store) Load() (*core.Snapshot, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", core.ErrLoad, s.path, err)
	}

	s.mu.RLock()
	if s.snapshot != nil && s.modTime.Equal(info.ModTime()) {
		snap := s.snapshot
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another loader may have swapped while we waited for the write lock.
	if s.snapshot != nil && s.modTime.Equal(info.ModTime()) {
		return s.snapshot, nil
	}

	snap, err := s.parse()
	if err != nil {
		return nil, err
	}

	s.snapshot = snap
	s.modTime = info.ModTime()
	s.logger.Info("snapshot loaded",
		"path", s.path,
		"entries", len(snap.Entries),
		"checksum", snap.Checksum)
	return snap, nil
}

// parse reads and validates the source document. Caller holds the write lock.
func (s *Store) parse() (*core.Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrLoad, s.path, err)
	}

	var doc sourceDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", core.ErrLoad, s.path, err)
	}

	if err := core.ValidateSnapshot(doc.Entries); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrLoad, err)
	}

	return &core.Snapshot{
		Entries:     doc.Entries,
		Categories:  doc.Categories,
		LastUpdated: doc.LastUpdated,
		Checksum:    core.Fingerprint(raw),
	}, nil
}

// Stats derives aggregate counts from the current snapshot. It never rechecks
// the source's modification time; the snapshot is read only, loading it once
// if nothing has been loaded yet.
func (s *Store) Stats() (core.Stats, error) {
	snap, err := s.cachedOrLoad()
	if err != nil {
		return core.Stats{}, err
	}

	categories := make(map[string]bool)
	sources := make(map[string]bool)
	for i := range snap.Entries {
		if c := strings.ToLower(snap.Entries[i].Category); c != "" {
			categories[c] = true
		}
		if src := snap.Entries[i].Source; src != "" {
			sources[src] = true
		}
	}

	return core.Stats{
		TotalEntries: len(snap.Entries),
		Categories:   len(categories),
		Sources:      len(sources),
		LastUpdated:  snap.LastUpdated,
		Checksum:     snap.Checksum,
	}, nil
}

// Random selects a uniformly random entry, optionally filtered by category.
// Returns nil (not an error) when the filtered set is empty.
func (s *Store) Random(category string) (*core.Entry, error) {
	snap, err := s.Load()
	if err != nil {
		return nil, err
	}

	candidates := snap.Entries
	if category != "" && !strings.EqualFold(category, "all") {
		candidates = nil
		for i := range snap.Entries {
			if strings.EqualFold(snap.Entries[i].Category, category) {
				candidates = append(candidates, snap.Entries[i])
			}
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	entry := candidates[rand.Intn(len(candidates))]
	return &entry, nil
}

// cachedOrLoad returns the cached snapshot, falling back to a full Load only
// when nothing has been loaded yet.
func (s *Store) cachedOrLoad() (*core.Snapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return s.Load()
}
