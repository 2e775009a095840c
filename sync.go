package targetgraph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jward/targetgraph/internal/depgraph"
	"github.com/jward/targetgraph/internal/store"
)

// ErrNoRoots is returned by Sync when neither the request nor the
// configuration names any root targets.
var ErrNoRoots = errors.New("targetgraph: no root targets")

// SyncRequest selects what to materialize. Empty Roots fall back to the
// configured targets. A negative Depth expands without bound.
type SyncRequest struct {
	Roots []Label
	Depth int
}

// SyncResult is the materialized view for one request. All slices are
// sorted by label.
type SyncResult struct {
	ID    string
	Roots []Label
	Depth int
	// Targets is everything materialized as source.
	Targets []TargetInfo
	// Modules are the materialized targets that are not external.
	Modules []TargetInfo
	// DirectDependencies are compile-time dependencies just past the
	// expansion boundary.
	DirectDependencies []TargetInfo
	// Libraries are the boundary and external targets actually reachable
	// from a module.
	Libraries    []TargetInfo
	UniverseHash string
	Duration     time.Duration
}

// Sync materializes the stored universe for req and records the run.
func (e *Engine) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	res, err := e.sync(ctx, req)
	if err != nil {
		syncRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	syncRunsTotal.WithLabelValues("ok").Inc()
	syncMaterialized.Observe(float64(len(res.Targets)))
	return res, nil
}

func (e *Engine) sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	start := time.Now()

	roots := req.Roots
	if len(roots) == 0 {
		roots = e.cfg.RootLabels()
	}
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	universe, err := e.store.UniverseHash()
	if err != nil {
		return nil, fmt.Errorf("targetgraph: sync: %w", err)
	}
	g, err := e.graphFor(ctx, universe, roots)
	if err != nil {
		return nil, fmt.Errorf("targetgraph: sync: %w", err)
	}
	preds, err := e.Predicates(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("targetgraph: sync: %w", err)
	}

	tad := g.AllTargetsAtDepth(req.Depth, roots, preds)

	modules := make([]TargetInfo, 0, len(tad.Targets))
	candidates := make(map[Label]TargetInfo, len(tad.DirectDependencies))
	for _, t := range tad.Targets {
		if preds.IsExternal(t.Label) {
			candidates[t.Label] = t
		} else {
			modules = append(modules, t)
		}
	}
	for _, t := range tad.DirectDependencies {
		candidates[t.Label] = t
	}
	used := depgraph.FilterUsedLibraries(g, candidates, modules)
	libraries := make([]TargetInfo, 0, len(used))
	for _, t := range used {
		libraries = append(libraries, t)
	}
	depgraph.SortTargets(libraries)

	res := &SyncResult{
		ID:                 uuid.NewString(),
		Roots:              roots,
		Depth:              req.Depth,
		Targets:            tad.Targets,
		Modules:            modules,
		DirectDependencies: tad.DirectDependencies,
		Libraries:          libraries,
		UniverseHash:       universe,
		Duration:           time.Since(start),
	}

	rootNames := make([]string, len(roots))
	for i, r := range roots {
		rootNames[i] = r.String()
	}
	err = e.store.InsertSyncRun(&store.SyncRun{
		ID:                    res.ID,
		StartedAt:             start.UTC(),
		Duration:              res.Duration,
		Roots:                 rootNames,
		Depth:                 req.Depth,
		UniverseHash:          universe,
		TargetCount:           len(res.Targets),
		DirectDependencyCount: len(res.DirectDependencies),
		LibraryCount:          len(res.Libraries),
	})
	if err != nil {
		return nil, fmt.Errorf("targetgraph: sync: %w", err)
	}

	e.logger.Info("sync complete",
		"id", res.ID,
		"roots", len(roots),
		"depth", req.Depth,
		"targets", len(res.Targets),
		"libraries", len(res.Libraries),
		"duration", res.Duration)
	return res, nil
}

// SyncRuns returns the most recent sync runs, newest first.
func (e *Engine) SyncRuns(limit int) ([]*SyncRun, error) {
	runs, err := e.store.SyncRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("targetgraph: sync runs: %w", err)
	}
	return runs, nil
}
