// Copyright 2025 Arclight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embedcache

import (
	"context"
	"fmt"
	"sync"

	"github.com/arclight-labs/kbase/core"
	"github.com/panjf2000/ants/v2"
)

// build computes embeddings for all entries in fixed-size batches. Batches
// run on a worker pool; a failed batch is logged and skipped, leaving its
// entries without an embedding rather than failing the whole build. Caller
// holds buildMu.
func (c *Cache) build(ctx context.Context, entries []core.Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries to embed", core.ErrProvider)
	}

	pool, err := ants.NewPool(c.poolSize)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for start := 0; start < len(entries); start += c.batchSize {
		end := start + c.batchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			c.embedBatch(ctx, batch)
		})
		if submitErr != nil {
			wg.Done()
			c.logger.Warn("failed to submit embedding batch", "err", submitErr)
		}
	}
	wg.Wait()

	if c.Len() == 0 {
		return fmt.Errorf("%w: all embedding batches failed", core.ErrProvider)
	}

	if err := c.persist(); err != nil {
		// A persist failure leaves a usable in-memory cache; the next
		// process start rebuilds.
		c.logger.Warn("failed to persist embedding cache", "err", err)
	}

	c.logger.Info("embedding cache built",
		"entries", len(entries),
		"embeddings", c.Len(),
		"batchSize", c.batchSize)
	return nil
}

// embedBatch embeds one batch and merges the vectors into the cache by entry
// key. Errors are absorbed here: the affected entries stay without an
// embedding and score 0 under the vector strategy.
func (c *Cache) embedBatch(ctx context.Context, batch []core.Entry) {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].EmbedText()
	}

	vectors, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		c.logger.Warn("embedding batch failed, skipping",
			"batchSize", len(batch),
			"firstID", batch[0].ID,
			"err", err)
		return
	}
	if len(vectors) != len(batch) {
		c.logger.Warn("embedding count mismatch, skipping batch",
			"expected", len(batch),
			"got", len(vectors))
		return
	}

	c.mu.Lock()
	for i := range batch {
		c.vectors[batch[i].Key()] = vectors[i]
	}
	c.mu.Unlock()
}
