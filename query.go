package targetgraph

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/jward/targetgraph/internal/depgraph"
)

// QueryBuilder answers graph questions over the stored universe. Each call
// works against the cached graph for the current universe, so results
// reflect the latest ingest.
type QueryBuilder struct {
	engine *Engine
}

func (q *QueryBuilder) graph(ctx context.Context, roots []Label) (*Graph, error) {
	return q.engine.Graph(ctx, roots)
}

// Dependencies returns the direct dependencies of l, sorted by label.
// Unknown labels yield an empty result.
func (q *QueryBuilder) Dependencies(ctx context.Context, l Label) ([]Label, error) {
	g, err := q.graph(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dependencies: %w", err)
	}
	return g.DirectDependencies(l), nil
}

// CompileDependencies returns the direct compile-time dependencies of l.
func (q *QueryBuilder) CompileDependencies(ctx context.Context, l Label) ([]Label, error) {
	g, err := q.graph(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("compile dependencies: %w", err)
	}
	return g.DirectCompileDependencies(l), nil
}

// Dependents returns the targets that list l as a direct dependency.
func (q *QueryBuilder) Dependents(ctx context.Context, l Label) ([]Label, error) {
	g, err := q.graph(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dependents: %w", err)
	}
	return g.ReverseDependencies(l), nil
}

// TransitiveDependencies returns every described target reachable from l,
// excluding l itself.
func (q *QueryBuilder) TransitiveDependencies(ctx context.Context, l Label) ([]TargetInfo, error) {
	g, err := q.graph(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("transitive dependencies: %w", err)
	}
	return g.TransitiveDependencies(l), nil
}

// TransitiveDependenciesWithoutRoots returns the transitive dependencies of
// l with every label in roots removed from the result.
func (q *QueryBuilder) TransitiveDependenciesWithoutRoots(ctx context.Context, l Label, roots []Label) ([]TargetInfo, error) {
	g, err := q.graph(ctx, roots)
	if err != nil {
		return nil, fmt.Errorf("transitive dependencies without roots: %w", err)
	}
	return g.TransitiveDependenciesWithoutRootTargets(l), nil
}

// TargetsAtDepth runs the depth-bounded expansion from seeds with the
// Engine's predicates.
func (q *QueryBuilder) TargetsAtDepth(ctx context.Context, depth int, seeds []Label) (TargetsAtDepth, error) {
	g, err := q.graph(ctx, seeds)
	if err != nil {
		return TargetsAtDepth{}, fmt.Errorf("targets at depth: %w", err)
	}
	preds, err := q.engine.Predicates(ctx, g)
	if err != nil {
		return TargetsAtDepth{}, fmt.Errorf("targets at depth: %w", err)
	}
	return g.AllTargetsAtDepth(depth, seeds, preds), nil
}

// UsedLibraries keeps the libraries reachable from at least one of roots.
// Libraries that are referenced but not described are kept as bare labels.
func (q *QueryBuilder) UsedLibraries(ctx context.Context, libraries, roots []Label) ([]TargetInfo, error) {
	g, err := q.graph(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("used libraries: %w", err)
	}
	candidates := make(map[Label]TargetInfo, len(libraries))
	for _, l := range libraries {
		t, ok := g.Target(l)
		if !ok {
			t = TargetInfo{Label: l}
		}
		candidates[l] = t
	}
	var rootTargets []TargetInfo
	for _, r := range roots {
		if t, ok := g.Target(r); ok {
			rootTargets = append(rootTargets, t)
		}
	}
	used := slices.Collect(maps.Values(depgraph.FilterUsedLibraries(g, candidates, rootTargets)))
	depgraph.SortTargets(used)
	return used, nil
}

// Cycles returns every dependency cycle in the universe. An acyclic
// universe yields an empty, non-nil slice.
func (q *QueryBuilder) Cycles(ctx context.Context) ([][]Label, error) {
	g, err := q.graph(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cycles: %w", err)
	}
	return g.Cycles(), nil
}

// KindCount is the number of stored targets of one rule kind.
type KindCount struct {
	Kind  string
	Count int
}

// Summary is a high-level overview of the stored universe.
type Summary struct {
	TargetCount     int
	DependencyCount int
	// EdgeCount counts distinct edges; DependencyCount counts declared
	// entries, including ones that point at undescribed labels.
	EdgeCount    int
	Kinds        []KindCount
	Repos        []string
	Roots        []Label
	CycleCount   int
	UniverseHash string
	LastIngest   string
	LastSync     *SyncRun
}

// Summary returns an overview of the stored universe.
func (q *QueryBuilder) Summary(ctx context.Context) (*Summary, error) {
	s := q.engine.store
	sum := &Summary{Roots: q.engine.cfg.RootLabels()}

	var err error
	if sum.TargetCount, err = s.TargetCount(); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	if sum.DependencyCount, err = s.DependencyCount(); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	if sum.UniverseHash, err = s.UniverseHash(); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	if sum.LastIngest, _, err = s.GetMetadata("last_ingest"); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	if sum.LastSync, err = s.LatestSyncRun(); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	rows, err := s.DB().Query(`SELECT kind, COUNT(*) FROM targets GROUP BY kind ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("summary: kinds: %w", err)
	}
	defer rows.Close()
	sum.Kinds = []KindCount{}
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.Kind, &kc.Count); err != nil {
			return nil, fmt.Errorf("summary: scan kind: %w", err)
		}
		sum.Kinds = append(sum.Kinds, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summary: kind rows: %w", err)
	}

	g, err := q.graph(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	sum.EdgeCount = g.EdgeCount()
	sum.CycleCount = len(g.Cycles())

	repos := map[string]bool{}
	for _, t := range g.Targets() {
		repos[t.Label.Repo] = true
	}
	sum.Repos = slices.Sorted(maps.Keys(repos))
	return sum, nil
}
