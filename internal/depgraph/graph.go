// Package depgraph is the dependency engine shared by every sync path. It
// indexes a flat universe of build-target descriptors once, then answers
// adjacency, transitive-closure, depth-bounded expansion and library
// reachability queries against that immutable snapshot.
//
// Every label is interned to a dense int32 index at construction time and
// all traversals run over index slices with explicit worklists, so neither
// very deep nor (incorrectly) cyclic graphs can exhaust the goroutine stack.
//
// A Graph is safe for concurrent use. The only mutable state is the per-label
// closure cell, which is published with an atomic compare-and-swap; two
// goroutines racing on the same cell both compute the same value and one of
// them wins.
package depgraph

import (
	"slices"
	"sync/atomic"
)

// Graph is the immutable dependency index of one sync pass.
type Graph struct {
	index   map[Label]int32
	labels  []Label       // index -> label
	targets []*TargetInfo // index -> descriptor; nil for referenced-but-unknown labels

	direct  [][]int32 // COMPILE ∪ RUNTIME, deduplicated
	compile [][]int32 // COMPILE only, deduplicated
	reverse [][]int32 // dependency -> direct dependents

	roots      map[Label]struct{}
	rootLabels []Label

	closures []atomic.Pointer[closure]
	sawCycle atomic.Bool
}

// New builds a Graph from a label->descriptor mapping and the set of root
// labels of the sync. Dependencies may name labels absent from targets; such
// labels are indexed as leaves. The map and descriptors must not be mutated
// afterwards.
func New(targets map[Label]TargetInfo, roots []Label) *Graph {
	keys := make([]Label, 0, len(targets))
	for l := range targets {
		keys = append(keys, l)
	}
	SortLabels(keys)

	g := &Graph{
		index:   make(map[Label]int32, len(keys)),
		labels:  make([]Label, 0, len(keys)),
		targets: make([]*TargetInfo, 0, len(keys)),
		roots:   make(map[Label]struct{}, len(roots)),
	}

	// Pass 1: intern every described label, then every referenced one.
	for _, l := range keys {
		t := targets[l]
		g.intern(l, &t)
	}
	for _, l := range keys {
		for _, dep := range targets[l].Dependencies {
			g.intern(dep.Label, nil)
		}
	}

	n := len(g.labels)
	g.direct = make([][]int32, n)
	g.compile = make([][]int32, n)
	g.reverse = make([][]int32, n)
	g.closures = make([]atomic.Pointer[closure], n)

	// Pass 2: adjacency. stamp[i] == owner marks i as already recorded for
	// the current target, which deduplicates repeated entries in O(1).
	directStamp := make([]int32, n)
	compileStamp := make([]int32, n)
	for i := range directStamp {
		directStamp[i] = -1
		compileStamp[i] = -1
	}
	for _, l := range keys {
		owner := g.index[l]
		for _, dep := range g.targets[owner].Dependencies {
			d := g.index[dep.Label]
			if directStamp[d] != owner {
				directStamp[d] = owner
				g.direct[owner] = append(g.direct[owner], d)
				g.reverse[d] = append(g.reverse[d], owner)
			}
			if dep.Type == Compile && compileStamp[d] != owner {
				compileStamp[d] = owner
				g.compile[owner] = append(g.compile[owner], d)
			}
		}
	}

	for _, r := range roots {
		if _, dup := g.roots[r]; dup {
			continue
		}
		g.roots[r] = struct{}{}
		g.rootLabels = append(g.rootLabels, r)
	}
	return g
}

func (g *Graph) intern(l Label, t *TargetInfo) int32 {
	if i, ok := g.index[l]; ok {
		return i
	}
	i := int32(len(g.labels))
	g.index[l] = i
	g.labels = append(g.labels, l)
	g.targets = append(g.targets, t)
	return i
}

// Len returns the number of described targets.
func (g *Graph) Len() int {
	n := 0
	for _, t := range g.targets {
		if t != nil {
			n++
		}
	}
	return n
}

// Target returns the descriptor for l, if the universe describes it.
func (g *Graph) Target(l Label) (TargetInfo, bool) {
	i, ok := g.index[l]
	if !ok || g.targets[i] == nil {
		return TargetInfo{}, false
	}
	return *g.targets[i], true
}

// Targets returns every described target, ordered by label.
func (g *Graph) Targets() []TargetInfo {
	out := make([]TargetInfo, 0, len(g.targets))
	for _, t := range g.targets {
		if t != nil {
			out = append(out, *t)
		}
	}
	SortTargets(out)
	return out
}

// Roots returns the root labels the graph was built with, in input order.
func (g *Graph) Roots() []Label {
	return slices.Clone(g.rootLabels)
}

// IsRoot reports whether l is one of the graph's root targets.
func (g *Graph) IsRoot(l Label) bool {
	_, ok := g.roots[l]
	return ok
}

// DirectDependencies returns the union of l's COMPILE and RUNTIME
// dependencies. Unknown labels yield an empty result.
func (g *Graph) DirectDependencies(l Label) []Label {
	return g.adjacent(g.direct, l)
}

// DirectCompileDependencies returns l's COMPILE dependencies.
func (g *Graph) DirectCompileDependencies(l Label) []Label {
	return g.adjacent(g.compile, l)
}

// ReverseDependencies returns the labels that directly depend on l.
func (g *Graph) ReverseDependencies(l Label) []Label {
	return g.adjacent(g.reverse, l)
}

func (g *Graph) adjacent(adj [][]int32, l Label) []Label {
	i, ok := g.index[l]
	if !ok {
		return []Label{}
	}
	out := make([]Label, len(adj[i]))
	for j, d := range adj[i] {
		out[j] = g.labels[d]
	}
	SortLabels(out)
	return out
}

// EdgeCount returns the number of distinct direct-dependency edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, deps := range g.direct {
		n += len(deps)
	}
	return n
}

// indexSet is a set of interned label indices.
type indexSet map[int32]struct{}

func (s indexSet) add(i int32) bool {
	if _, ok := s[i]; ok {
		return false
	}
	s[i] = struct{}{}
	return true
}

// descriptors converts a set of indices to descriptors ordered by label,
// silently dropping labels the universe does not describe.
func (g *Graph) descriptors(set indexSet) []TargetInfo {
	out := make([]TargetInfo, 0, len(set))
	for i := range set {
		if t := g.targets[i]; t != nil {
			out = append(out, *t)
		}
	}
	SortTargets(out)
	return out
}

// indicesOf resolves labels to indices, dropping unknown ones.
func (g *Graph) indicesOf(labels []Label) []int32 {
	out := make([]int32, 0, len(labels))
	for _, l := range labels {
		if i, ok := g.index[l]; ok {
			out = append(out, i)
		}
	}
	return out
}
