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


package kbase

import (
	"context"
	"log/slog"

	"github.com/arclight-labs/kbase/ai"
	"github.com/arclight-labs/kbase/ai/openai"
	"github.com/arclight-labs/kbase/core"
	"github.com/arclight-labs/kbase/embedcache"
	"github.com/arclight-labs/kbase/narrate"
	"github.com/arclight-labs/kbase/rank"
	"github.com/arclight-labs/kbase/store"
)

// Service wires the entry store, embedding cache, ranking engine, and
// narrator into the search contract consumed by the HTTP and CLI adapters.
type Service struct {
	store    *store.Store
	cache    *embedcache.Cache
	engine   *rank.Engine
	narrator *narrate.Narrator
	provider ai.Provider
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig   *ai.Config
	provider   ai.Provider
	generators []ai.TextGenerator
	logger     *slog.Logger
}

// WithAIConfig sets the provider configuration. Without a key in the config
// the service runs local-only: lexical ranking, no narration.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects a pre-built provider, bypassing config-driven
// construction. Used by tests and embedders of the library.
func WithProvider(p ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = p
	}
}

// WithExtraGenerators appends fallback text generators to the narration
// chain, after the primary provider's generator.
func WithExtraGenerators(gens ...ai.TextGenerator) ServiceOption {
	return func(o *serviceOptions) {
		o.generators = append(o.generators, gens...)
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewService builds a service over a snapshot source document and an
// embedding cache file.
func NewService(snapshotPath, cachePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	provider := options.provider
	if provider == nil && options.aiConfig.HasKey() {
		p, err := openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	var embedder ai.Embedder
	chain := make([]ai.TextGenerator, 0, 1+len(options.generators))
	if provider != nil {
		embedder = provider.Embedder()
		chain = append(chain, provider.Generator())
	}
	chain = append(chain, options.generators...)

	st := store.New(snapshotPath, store.WithLogger(logger.With("component", "store")))
	cache := embedcache.New(cachePath, embedder,
		embedcache.WithLogger(logger.With("component", "embedcache")))

	engine, err := rank.NewEngine(st, cache, embedder,
		rank.WithLogger(logger.With("component", "rank")))
	if err != nil {
		return nil, err
	}

	return &Service{
		store:    st,
		cache:    cache,
		engine:   engine,
		narrator: narrate.New(chain, narrate.WithLogger(logger.With("component", "narrate"))),
		provider: provider,
		logger:   logger,
	}, nil
}

// SearchRequest is the transport-independent search contract.
type SearchRequest struct {
	Query            string `json:"query"`
	Category         string `json:"category,omitempty"`
	DateFrom         string `json:"dateFrom,omitempty"`
	DateTo           string `json:"dateTo,omitempty"`
	Limit            int    `json:"limit,omitempty"`
	LocalOnly        bool   `json:"localOnly,omitempty"`
	IncludeNarration bool   `json:"includeNarration,omitempty"`
}

// Search runs a ranked search and assembles the result envelope.
// An empty query fails with core.ErrValidation before any entry or provider
// access.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*core.Result, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs Search with ranking observation hooks installed.
func (s *Service) SearchWithMonitor(ctx context.Context, req SearchRequest, monitor rank.Monitor) (*core.Result, error) {
	opts := core.SearchOptions{
		Category:  req.Category,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Limit:     req.Limit,
		LocalOnly: req.LocalOnly,
	}

	ranking, err := s.engine.RankWithMonitor(ctx, req.Query, opts, monitor)
	if err != nil {
		return nil, err
	}

	records := make([]core.ResultRecord, 0, len(ranking.Entries))
	for _, se := range ranking.Entries {
		records = append(records, core.ResultRecord{
			ID:           se.Entry.ID,
			Title:        se.Entry.Title,
			Summary:      se.Entry.Summary,
			Category:     se.Entry.Category,
			Source:       se.Entry.Source,
			Tags:         se.Entry.Tags,
			Date:         se.Entry.Date,
			URL:          se.Entry.URL,
			Relevance:    rank.Percent(ranking.Strategy, se.Score),
			MatchedTerms: se.MatchedTerms,
		})
	}

	result := &core.Result{
		Results:  records,
		Total:    len(records),
		Degraded: ranking.Degraded,
		Strategy: ranking.Strategy,
	}

	if req.IncludeNarration {
		result.Narration = s.narrator.Narrate(ctx, req.Query, ranking.Entries)
	}

	return result, nil
}

// Stats returns aggregate counts for the current snapshot.
func (s *Service) Stats() (core.Stats, error) {
	return s.store.Stats()
}

// Random returns a uniformly random entry, optionally category-filtered.
// Returns nil when the filtered set is empty.
func (s *Service) Random(category string) (*core.Entry, error) {
	return s.store.Random(category)
}

// RebuildCache forces a fresh embedding cache build for the current
// snapshot.
func (s *Service) RebuildCache(ctx context.Context) error {
	snap, err := s.store.Load()
	if err != nil {
		return err
	}
	return s.cache.Rebuild(ctx, snap.Entries)
}

// Close releases provider resources.
func (s *Service) Close() error {
	if s.provider != nil {
		return s.provider.Close()
	}
	return nil
}
