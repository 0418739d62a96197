package content

import (
	"context"
	"fmt"

	"github.com/gwsynth/gwsynth/pkg/telemetry"
)

// GenerationParams are the blueprint parameters that key the cache.
type GenerationParams struct {
	Model         string
	Temperature   float64
	PromptVersion string
}

// CachedGenerator wraps a Generator with the SQLite cache. Identical
// requests produce identical content across runs, which is what lets the
// apply pass skip unchanged documents by content hash.
type CachedGenerator struct {
	inner   Generator
	cache   *Cache
	params  GenerationParams
	metrics *telemetry.Metrics
}

// NewCachedGenerator wraps inner with cache lookups keyed by params.
func NewCachedGenerator(inner Generator, cache *Cache, params GenerationParams) *CachedGenerator {
	return &CachedGenerator{inner: inner, cache: cache, params: params}
}

// WithMetrics records cache lookup outcomes; returns the generator for
// chaining.
func (g *CachedGenerator) WithMetrics(m *telemetry.Metrics) *CachedGenerator {
	g.metrics = m
	return g
}

// Generate implements Generator. Regen requests skip the cache read but
// overwrite the entry with the fresh result.
func (g *CachedGenerator) Generate(ctx context.Context, req Request) (*DocContent, error) {
	key := CacheKey(g.params.Model, g.params.Temperature, g.params.PromptVersion, req.StableID, BuildPrompt(req))

	if !req.Regen {
		cached, ok, err := g.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			g.metrics.RecordCacheLookup("hit")
			return cached, nil
		}
		g.metrics.RecordCacheLookup("miss")
	} else {
		g.metrics.RecordCacheLookup("regen")
	}

	generated, err := g.inner.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", req.StableID, err)
	}
	if err := g.cache.Put(ctx, key, generated); err != nil {
		return nil, err
	}
	return generated, nil
}
