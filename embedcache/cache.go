package embedcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/arclight-labs/kbase/ai"
	"github.com/arclight-labs/kbase/core"
)

// DefaultBatchSize is the number of entries embedded per provider call.
const DefaultBatchSize = 100

// Cache holds one embedding per entry, keyed by entry identity. It is
// read-mostly shared state: concurrent readers are safe, and a rebuild is
// serialized so at most one build is in flight.
type Cache struct {
	path      string
	embedder  ai.Embedder
	batchSize int
	poolSize  int
	logger    *slog.Logger

	mu      sync.RWMutex
	vectors map[string][]float32

	// buildMu enforces the single-builder discipline.
	buildMu sync.Mutex
	ready   bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithBatchSize sets the number of entries per embedding provider call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(c *Cache) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// WithPoolSize sets the worker pool size for concurrent batch calls during a
// build. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Cache) {
		if size > 0 {
			c.poolSize = size
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// New creates an embedding cache persisted at path. The embedder may be nil
// when no provider is configured; the cache then serves only what was
// previously persisted and Ensure fails with core.ErrConfiguration on an
// empty cache.
func New(path string, embedder ai.Embedder, opts ...Option) *Cache {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	c := &Cache{
		path:      path,
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		poolSize:  poolSize,
		logger:    slog.Default().With("component", "embedcache"),
		vectors:   make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached embedding for an entry key. The second return value
// is false when the entry has no embedding; under the vector strategy such
// entries simply score 0.
func (c *Cache) Get(key string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.vectors[key]
	return vec, ok
}

// Len returns the number of cached embeddings.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

// Ensure makes the cache usable for the given entries: it loads the persisted
// mapping if present and well-formed, otherwise computes embeddings in
// batches and persists the completed mapping. Ensure is idempotent and
// serialized; concurrent callers block until the first build finishes.
func (c *Cache) Ensure(ctx context.Context, entries []core.Entry) error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	if c.ready && c.Len() > 0 {
		return nil
	}

	if c.loadFromDisk() && c.Len() > 0 {
		c.ready = true
		return nil
	}

	if c.embedder == nil {
		return fmt.Errorf("%w: embedding cache empty and no provider key configured", core.ErrConfiguration)
	}

	if err := c.build(ctx, entries); err != nil {
		return err
	}
	c.ready = true
	return nil
}

// Rebuild discards the current mapping and recomputes it from scratch.
func (c *Cache) Rebuild(ctx context.Context, entries []core.Entry) error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	if c.embedder == nil {
		return fmt.Errorf("%w: cannot rebuild embedding cache without a provider key", core.ErrConfiguration)
	}

	c.mu.Lock()
	c.vectors = make(map[string][]float32, len(entries))
	c.mu.Unlock()

	if err := c.build(ctx, entries); err != nil {
		return err
	}
	c.ready = true
	return nil
}

// loadFromDisk reads the persisted key->embedding mapping wholesale.
// Returns false when the file is absent or malformed; a malformed file is
// logged and treated as absent, forcing a rebuild.
func (c *Cache) loadFromDisk() bool {
	raw, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return false
	}
	if err != nil {
		c.logger.Warn("failed to read embedding cache", "path", c.path, "err", err)
		return false
	}

	var vectors map[string][]float32
	if err := json.Unmarshal(raw, &vectors); err != nil {
		c.logger.Warn("embedding cache is malformed, will rebuild", "path", c.path, "err", err)
		return false
	}

	c.mu.Lock()
	c.vectors = vectors
	c.mu.Unlock()

	c.logger.Info("embedding cache loaded", "path", c.path, "embeddings", len(vectors))
	return true
}

// persist writes the full mapping back to disk.
func (c *Cache) persist() error {
	c.mu.RLock()
	raw, err := json.Marshal(c.vectors)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal embedding cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		return fmt.Errorf("write embedding cache: %w", err)
	}
	return nil
}
