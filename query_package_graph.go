package targetgraph

import (
	"context"
	"fmt"
	"sort"
)

// PackageGraph is the package-to-package dependency graph, aggregated from
// target-level edges.
type PackageGraph struct {
	Packages []PackageNode
	Edges    []PackageEdge
}

// PackageNode is one Bazel package, identified as @repo//pkg or //pkg.
type PackageNode struct {
	Name        string
	TargetCount int
}

// PackageEdge is a dependency between two packages with the number of
// target-level edges that contribute to it.
type PackageEdge struct {
	FromPackage string
	ToPackage   string
	EdgeCount   int
}

func packageName(l Label) string {
	if l.Repo == "" {
		return "//" + l.Package
	}
	return "@" + l.Repo + "//" + l.Package
}

// PackageGraph aggregates the target graph by package. Edges inside a single
// package are dropped; edges to packages with no described targets are kept
// so external repositories show up as sinks.
func (q *QueryBuilder) PackageGraph(ctx context.Context) (*PackageGraph, error) {
	g, err := q.graph(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("package graph: %w", err)
	}

	targetCounts := map[string]int{}
	type edgeKey struct {
		from, to string
	}
	edgeCounts := map[edgeKey]int{}

	for _, t := range g.Targets() {
		from := packageName(t.Label)
		targetCounts[from]++
		for _, dep := range g.DirectDependencies(t.Label) {
			to := packageName(dep)
			if to == from {
				continue
			}
			if _, ok := targetCounts[to]; !ok {
				targetCounts[to] = 0
			}
			edgeCounts[edgeKey{from: from, to: to}]++
		}
	}

	names := make([]string, 0, len(targetCounts))
	for name := range targetCounts {
		names = append(names, name)
	}
	sort.Strings(names)

	packages := make([]PackageNode, 0, len(names))
	for _, name := range names {
		packages = append(packages, PackageNode{Name: name, TargetCount: targetCounts[name]})
	}

	edges := make([]PackageEdge, 0, len(edgeCounts))
	for ek, count := range edgeCounts {
		edges = append(edges, PackageEdge{FromPackage: ek.from, ToPackage: ek.to, EdgeCount: count})
	}
	// Sort edges for deterministic output.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromPackage != edges[j].FromPackage {
			return edges[i].FromPackage < edges[j].FromPackage
		}
		return edges[i].ToPackage < edges[j].ToPackage
	})

	return &PackageGraph{Packages: packages, Edges: edges}, nil
}
