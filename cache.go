package targetgraph

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jward/targetgraph/internal/depgraph"
)

// graphCache keeps recently built graphs keyed by universe fingerprint and
// root set. Concurrent requests for the same key share one build.
type graphCache struct {
	graphs *lru.Cache[string, *depgraph.Graph]
	flight singleflight.Group
}

func newGraphCache(size int) (*graphCache, error) {
	c, err := lru.New[string, *depgraph.Graph](size)
	if err != nil {
		return nil, fmt.Errorf("graph cache: %w", err)
	}
	return &graphCache{graphs: c}, nil
}

// graphKey combines the universe hash with the sorted root labels.
func graphKey(universe string, roots []depgraph.Label) string {
	names := make([]string, len(roots))
	for i, r := range roots {
		names[i] = r.String()
	}
	slices.Sort(names)
	names = slices.Compact(names)
	return universe + "|" + strings.Join(names, ",")
}

func (c *graphCache) getOrBuild(key string, build func() (*depgraph.Graph, error)) (*depgraph.Graph, error) {
	if g, ok := c.graphs.Get(key); ok {
		graphCacheTotal.WithLabelValues("hit").Inc()
		return g, nil
	}
	graphCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := c.flight.Do(key, func() (any, error) {
		if g, ok := c.graphs.Get(key); ok {
			return g, nil
		}
		g, err := build()
		if err != nil {
			return nil, err
		}
		c.graphs.Add(key, g)
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*depgraph.Graph), nil
}

func (c *graphCache) purge() {
	c.graphs.Purge()
}

func (c *graphCache) len() int {
	return c.graphs.Len()
}

// Graph returns the dependency graph for the stored universe with the
// given root set, building it on first use.
func (e *Engine) Graph(ctx context.Context, roots []Label) (*Graph, error) {
	universe, err := e.store.UniverseHash()
	if err != nil {
		return nil, fmt.Errorf("targetgraph: graph: %w", err)
	}
	return e.graphFor(ctx, universe, roots)
}

func (e *Engine) graphFor(ctx context.Context, universe string, roots []Label) (*depgraph.Graph, error) {
	return e.cache.getOrBuild(graphKey(universe, roots), func() (*depgraph.Graph, error) {
		return e.buildGraph(ctx, roots)
	})
}

// buildGraph bulk-loads targets and dependency entries and builds the
// graph in memory. No per-target queries.
func (e *Engine) buildGraph(ctx context.Context, roots []Label) (*depgraph.Graph, error) {
	start := time.Now()

	stored, err := e.store.Targets()
	if err != nil {
		return nil, fmt.Errorf("targetgraph: build graph: load targets: %w", err)
	}
	deps, err := e.store.AllDependencies()
	if err != nil {
		return nil, fmt.Errorf("targetgraph: build graph: load dependencies: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	universe := make(map[Label]TargetInfo, len(stored))
	for _, t := range stored {
		info, err := toTargetInfo(t, deps[t.ID])
		if err != nil {
			return nil, fmt.Errorf("targetgraph: build graph: %w", err)
		}
		universe[info.Label] = info
	}
	g := depgraph.New(universe, roots)

	elapsed := time.Since(start)
	graphBuildsTotal.Inc()
	graphBuildDuration.Observe(elapsed.Seconds())
	e.logger.Debug("graph built",
		"targets", g.Len(), "edges", g.EdgeCount(), "roots", len(roots), "duration", elapsed)
	return g, nil
}
