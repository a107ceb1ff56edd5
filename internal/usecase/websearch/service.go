// Package websearch wraps an external search provider behind a fail-soft
// gateway with result caching.
package websearch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ellie-edu/ellie/internal/domain"
	"github.com/ellie-edu/ellie/internal/logger"
	"github.com/ellie-edu/ellie/internal/metrics"
)

// Gateway answers web search requests and never propagates provider failures:
// a failed or disabled search yields an empty result list.
type Gateway struct {
	provider Provider // nil means web search is disabled
	cache    *ttlCache
	timeout  time.Duration
}

// Config holds the gateway settings.
type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

// New creates a web search gateway. A nil provider disables searching.
func New(provider Provider, cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}
	return &Gateway{
		provider: provider,
		cache:    newTTLCache(ttl),
		timeout:  timeout,
	}
}

// Enabled reports whether a search provider is configured.
func (g *Gateway) Enabled() bool {
	return g.provider != nil
}

// Search returns up to k snippets for a query. Disabled gateway or provider
// failure returns an empty list; only successful results are cached.
func (g *Gateway) Search(ctx context.Context, query string, k int) []domain.WebSnippet {
	if g.provider == nil || k <= 0 {
		return nil
	}

	key := cacheKey(query, k)
	if cached, ok := g.cache.get(key); ok {
		metrics.WebSearchCacheTotal.WithLabelValues("hit").Inc()
		return cached
	}
	metrics.WebSearchCacheTotal.WithLabelValues("miss").Inc()

	searchCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results, err := g.provider.Search(searchCtx, query, k)
	if err != nil {
		metrics.WebSearchRequestsTotal.WithLabelValues("error").Inc()
		logger.FromContext(ctx).Warn("Web search failed",
			zap.String("query", query), zap.Error(err))
		return nil
	}
	metrics.WebSearchRequestsTotal.WithLabelValues("ok").Inc()

	if len(results) > k {
		results = results[:k]
	}

	g.cache.set(key, results)
	return results
}

// SearchBatch searches each query and merges results, keeping the first
// occurrence of every URL.
func (g *Gateway) SearchBatch(ctx context.Context, queries []string, kEach int) []domain.WebSnippet {
	var merged []domain.WebSnippet
	seen := make(map[string]bool)
	for _, q := range queries {
		for _, item := range g.Search(ctx, q, kEach) {
			if item.URL == "" || seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			merged = append(merged, item)
		}
	}
	return merged
}

func cacheKey(query string, k int) string {
	return fmt.Sprintf("q:%s|k:%d", query, k)
}
