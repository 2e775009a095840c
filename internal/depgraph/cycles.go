package depgraph

import "slices"

// Cycles reports one dependency cycle per strongly connected component of
// the direct-dependency graph (self-loops included). Each cycle starts at
// the smallest member label, follows real edges and repeats its first label
// at the end. Returns an empty slice for acyclic graphs.
func (g *Graph) Cycles() [][]Label {
	var result [][]Label
	for _, scc := range g.stronglyConnected() {
		if len(scc) == 1 && !slices.Contains(g.direct[scc[0]], scc[0]) {
			continue
		}
		result = append(result, g.cycleThrough(scc))
	}
	if result == nil {
		return [][]Label{}
	}
	slices.SortFunc(result, func(a, b []Label) int {
		return compareLabels(a[0], b[0])
	})
	return result
}

// CheckAcyclic returns a *CyclicDependencyError for the first cycle found,
// or nil.
func (g *Graph) CheckAcyclic() error {
	cycles := g.Cycles()
	if len(cycles) == 0 {
		return nil
	}
	return &CyclicDependencyError{Cycle: cycles[0]}
}

// stronglyConnected runs Tarjan's algorithm with an explicit call stack.
func (g *Graph) stronglyConnected() [][]int32 {
	n := len(g.labels)
	index := make([]int32, n)
	lowlink := make([]int32, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	type frame struct {
		v    int32
		next int
	}
	var (
		counter int32
		stack   []int32
		sccs    [][]int32
	)
	visit := func(v int32) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
	}

	for s := range int32(n) {
		if index[s] != -1 {
			continue
		}
		visit(s)
		calls := []frame{{v: s}}
		for len(calls) > 0 {
			f := &calls[len(calls)-1]
			if f.next < len(g.direct[f.v]) {
				w := g.direct[f.v][f.next]
				f.next++
				if index[w] == -1 {
					visit(w)
					calls = append(calls, frame{v: w})
				} else if onStack[w] && index[w] < lowlink[f.v] {
					lowlink[f.v] = index[w]
				}
				continue
			}

			v := f.v
			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				p := calls[len(calls)-1].v
				lowlink[p] = min(lowlink[p], lowlink[v])
			}
			if lowlink[v] != index[v] {
				continue
			}
			var scc []int32
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}
	return sccs
}

// cycleThrough finds a shortest cycle inside scc through its smallest member.
func (g *Graph) cycleThrough(scc []int32) []Label {
	start := scc[0]
	member := make(map[int32]bool, len(scc))
	for _, v := range scc {
		member[v] = true
		if compareLabels(g.labels[v], g.labels[start]) < 0 {
			start = v
		}
	}

	parent := map[int32]int32{}
	queue := []int32{start}
	var last int32 = -1
	for len(queue) > 0 && last < 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range g.direct[cur] {
			if !member[d] {
				continue
			}
			if d == start {
				last = cur
				break
			}
			if _, seen := parent[d]; !seen {
				parent[d] = cur
				queue = append(queue, d)
			}
		}
	}

	path := []Label{g.labels[start]}
	for v := last; v != start; v = parent[v] {
		path = append(path, g.labels[v])
	}
	// path is start, then the cycle walked backwards; flip the tail.
	slices.Reverse(path[1:])
	return append(path, g.labels[start])
}
