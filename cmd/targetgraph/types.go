package main

import (
	"time"

	"github.com/jward/targetgraph"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDependency is one entry of a target's dependency list.
type CLIDependency struct {
	Label string `json:"label"`
	Type  string `json:"type"`
}

// CLITarget is a JSON-friendly target descriptor.
type CLITarget struct {
	Label        string          `json:"label"`
	Kind         string          `json:"kind"`
	Dependencies []CLIDependency `json:"dependencies"`
}

// CLIStoredTarget is a stored target with its edge counts.
type CLIStoredTarget struct {
	Label           string `json:"label"`
	Kind            string `json:"kind"`
	Source          string `json:"source,omitempty"`
	DependencyCount int    `json:"dependency_count"`
	DependentCount  int    `json:"dependent_count"`
}

// CLITargetsAtDepth is the result of a depth-bounded expansion.
type CLITargetsAtDepth struct {
	Targets            []CLITarget `json:"targets"`
	DirectDependencies []CLITarget `json:"direct_dependencies"`
}

// CLIIngestResult summarizes one ingest.
type CLIIngestResult struct {
	Added     []string `json:"added"`
	Changed   []string `json:"changed"`
	Removed   []string `json:"removed"`
	Unchanged int      `json:"unchanged"`
	Affected  []string `json:"affected"`
}

// CLISyncResult is the materialized project view.
type CLISyncResult struct {
	ID                 string      `json:"id"`
	Roots              []string    `json:"roots"`
	Depth              int         `json:"depth"`
	Modules            []CLITarget `json:"modules"`
	Libraries          []CLITarget `json:"libraries"`
	DirectDependencies []CLITarget `json:"direct_dependencies"`
	TargetCount        int         `json:"target_count"`
	UniverseHash       string      `json:"universe_hash"`
	DurationMS         int64       `json:"duration_ms"`
}

// CLISyncRun is one row of sync history.
type CLISyncRun struct {
	ID                    string    `json:"id"`
	StartedAt             time.Time `json:"started_at"`
	DurationMS            int64     `json:"duration_ms"`
	Roots                 []string  `json:"roots"`
	Depth                 int       `json:"depth"`
	TargetCount           int       `json:"target_count"`
	DirectDependencyCount int       `json:"direct_dependency_count"`
	LibraryCount          int       `json:"library_count"`
}

// CLIKindCount is the number of targets of one kind.
type CLIKindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// CLISummary is a JSON-friendly universe summary.
type CLISummary struct {
	TargetCount     int            `json:"target_count"`
	DependencyCount int            `json:"dependency_count"`
	EdgeCount       int            `json:"edge_count"`
	CycleCount      int            `json:"cycle_count"`
	Kinds           []CLIKindCount `json:"kinds"`
	Repos           []string       `json:"repos"`
	Roots           []string       `json:"roots"`
	UniverseHash    string         `json:"universe_hash"`
	LastIngest      string         `json:"last_ingest,omitempty"`
	LastSync        *CLISyncRun    `json:"last_sync,omitempty"`
}

// CLIPackageEdge is an aggregated package-to-package edge.
type CLIPackageEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// CLIPackageGraph is a JSON-friendly package graph.
type CLIPackageGraph struct {
	Packages map[string]int   `json:"packages"`
	Edges    []CLIPackageEdge `json:"edges"`
}

// CLICycles is the list of dependency cycles, each closed by repeating its
// first label.
type CLICycles [][]string

func labelsToCLI(labels []targetgraph.Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.String()
	}
	return out
}

func targetToCLI(t targetgraph.TargetInfo) CLITarget {
	deps := make([]CLIDependency, len(t.Dependencies))
	for i, d := range t.Dependencies {
		deps[i] = CLIDependency{Label: d.Label.String(), Type: d.Type.String()}
	}
	return CLITarget{Label: t.Label.String(), Kind: t.Kind, Dependencies: deps}
}

func targetsToCLI(targets []targetgraph.TargetInfo) []CLITarget {
	out := make([]CLITarget, len(targets))
	for i, t := range targets {
		out[i] = targetToCLI(t)
	}
	return out
}

func storedTargetToCLI(r targetgraph.TargetResult) CLIStoredTarget {
	return CLIStoredTarget{
		Label:           r.Label,
		Kind:            r.Kind,
		Source:          r.Source,
		DependencyCount: r.DependencyCount,
		DependentCount:  r.DependentCount,
	}
}

func syncRunToCLI(r *targetgraph.SyncRun) *CLISyncRun {
	if r == nil {
		return nil
	}
	return &CLISyncRun{
		ID:                    r.ID,
		StartedAt:             r.StartedAt,
		DurationMS:            r.Duration.Milliseconds(),
		Roots:                 r.Roots,
		Depth:                 r.Depth,
		TargetCount:           r.TargetCount,
		DirectDependencyCount: r.DirectDependencyCount,
		LibraryCount:          r.LibraryCount,
	}
}

func ingestResultToCLI(r *targetgraph.IngestResult) CLIIngestResult {
	return CLIIngestResult{
		Added:     nonNil(r.Added),
		Changed:   nonNil(r.Changed),
		Removed:   nonNil(r.Removed),
		Unchanged: r.Unchanged,
		Affected:  nonNil(r.Affected),
	}
}

func syncResultToCLI(r *targetgraph.SyncResult) CLISyncResult {
	return CLISyncResult{
		ID:                 r.ID,
		Roots:              labelsToCLI(r.Roots),
		Depth:              r.Depth,
		Modules:            targetsToCLI(r.Modules),
		Libraries:          targetsToCLI(r.Libraries),
		DirectDependencies: targetsToCLI(r.DirectDependencies),
		TargetCount:        len(r.Targets),
		UniverseHash:       r.UniverseHash,
		DurationMS:         r.Duration.Milliseconds(),
	}
}

func summaryToCLI(s *targetgraph.Summary) CLISummary {
	kinds := make([]CLIKindCount, len(s.Kinds))
	for i, k := range s.Kinds {
		kinds[i] = CLIKindCount{Kind: k.Kind, Count: k.Count}
	}
	return CLISummary{
		TargetCount:     s.TargetCount,
		DependencyCount: s.DependencyCount,
		EdgeCount:       s.EdgeCount,
		CycleCount:      s.CycleCount,
		Kinds:           kinds,
		Repos:           nonNil(s.Repos),
		Roots:           labelsToCLI(s.Roots),
		UniverseHash:    s.UniverseHash,
		LastIngest:      s.LastIngest,
		LastSync:        syncRunToCLI(s.LastSync),
	}
}

func packageGraphToCLI(g *targetgraph.PackageGraph) CLIPackageGraph {
	pkgs := make(map[string]int, len(g.Packages))
	for _, p := range g.Packages {
		pkgs[p.Name] = p.TargetCount
	}
	edges := make([]CLIPackageEdge, len(g.Edges))
	for i, e := range g.Edges {
		edges[i] = CLIPackageEdge{From: e.FromPackage, To: e.ToPackage, Count: e.EdgeCount}
	}
	return CLIPackageGraph{Packages: pkgs, Edges: edges}
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
