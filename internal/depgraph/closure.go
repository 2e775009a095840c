package depgraph

import "slices"

// closure is the published transitive dependency set of one label, as
// sorted indices. It never contains the owning label itself.
type closure struct {
	members []int32
}

// TransitiveDependencies returns the descriptors of every target reachable
// from l through direct-dependency edges, excluding l itself. Results are
// memoized per label.
func (g *Graph) TransitiveDependencies(l Label) []TargetInfo {
	i, ok := g.index[l]
	if !ok {
		return []TargetInfo{}
	}
	set := make(indexSet)
	for _, m := range g.closureOf(i) {
		set[m] = struct{}{}
	}
	return g.descriptors(set)
}

// TransitiveDependenciesOf returns the union of the transitive closures of
// labels. The labels themselves are only included when some other label in
// the set reaches them.
func (g *Graph) TransitiveDependenciesOf(labels ...Label) []TargetInfo {
	return g.descriptors(g.closureOfSet(g.indicesOf(labels)))
}

func (g *Graph) closureOfSet(idx []int32) indexSet {
	set := make(indexSet)
	for _, i := range idx {
		for _, m := range g.closureOf(i) {
			set[m] = struct{}{}
		}
	}
	return set
}

// SawCycle reports whether any closure computation so far walked into a
// back edge. Closures computed across a cycle are bounded but incomplete.
func (g *Graph) SawCycle() bool {
	return g.sawCycle.Load()
}

// closureOf returns the memoized closure of root, computing it and every
// not-yet-computed descendant with an explicit post-order worklist.
func (g *Graph) closureOf(root int32) []int32 {
	if c := g.closures[root].Load(); c != nil {
		return c.members
	}

	type frame struct {
		node int32
		next int
	}
	onStack := map[int32]bool{root: true}
	stack := []frame{{node: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		deps := g.direct[top.node]

		descended := false
		for top.next < len(deps) {
			d := deps[top.next]
			top.next++
			if g.closures[d].Load() != nil {
				continue
			}
			if onStack[d] {
				// Back edge: Bazel graphs are acyclic, so this input is
				// malformed. Cut the edge rather than loop.
				g.sawCycle.Store(true)
				continue
			}
			onStack[d] = true
			stack = append(stack, frame{node: d})
			descended = true
			break
		}
		if descended {
			continue
		}

		n := top.node
		stack = stack[:len(stack)-1]
		delete(onStack, n)
		g.publish(n, g.computeClosure(n))
	}
	return g.closures[root].Load().members
}

// computeClosure unions n's direct dependencies with their published
// closures. Dependencies still on the worklist stack (cycle members)
// contribute only themselves.
func (g *Graph) computeClosure(n int32) []int32 {
	deps := g.direct[n]
	if len(deps) == 0 {
		return nil
	}
	set := make(indexSet, len(deps))
	for _, d := range deps {
		set[d] = struct{}{}
		if c := g.closures[d].Load(); c != nil {
			for _, m := range c.members {
				set[m] = struct{}{}
			}
		}
	}
	delete(set, n)

	members := make([]int32, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	slices.Sort(members)
	return members
}

// publish stores a computed closure unless another goroutine got there
// first; both values are equal for acyclic input.
func (g *Graph) publish(n int32, members []int32) {
	g.closures[n].CompareAndSwap(nil, &closure{members: members})
}
