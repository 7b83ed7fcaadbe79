package rank

import (
	"fmt"
	"math"

	"github.com/arclight-labs/kbase/core"
	"github.com/arclight-labs/kbase/embedcache"
)

// Cosine returns the cosine similarity dot(a,b)/(|a|*|b|) of two vectors,
// a value in [-1, 1]. Mismatched dimensions are a hard error. A zero vector
// has no direction and yields similarity 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}
	return dot / denom, nil
}

// VectorScorer scores entries by cosine similarity between a fixed query
// embedding and each entry's cached embedding. Entries without a cached
// embedding score 0; they sort below any positive match but are not filtered
// out.
type VectorScorer struct {
	queryVec []float32
	cache    *embedcache.Cache
}

// NewVectorScorer creates a scorer for one query embedding.
func NewVectorScorer(queryVec []float32, cache *embedcache.Cache) *VectorScorer {
	return &VectorScorer{queryVec: queryVec, cache: cache}
}

// Score returns the entry's similarity to the query embedding.
func (s *VectorScorer) Score(entry *core.Entry) (float64, error) {
	vec, ok := s.cache.Get(entry.Key())
	if !ok {
		return 0, nil
	}
	return Cosine(s.queryVec, vec)
}
