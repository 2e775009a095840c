package depgraph

// FilterUsedLibraries keeps only the libraries reachable from roots through
// zero or more direct-dependency hops. Each label is enqueued at most once,
// so diamond-shaped paths cost nothing extra. The input map is not modified.
func FilterUsedLibraries[L any](g *Graph, libraries map[Label]L, roots []TargetInfo) map[Label]L {
	reached := g.Reachable(LabelsOf(roots)...)

	used := make(map[Label]L, len(libraries))
	for l, lib := range libraries {
		if _, ok := reached[l]; ok {
			used[l] = lib
		}
	}
	return used
}

// Reachable returns every label reachable from start, start included,
// following direct-dependency edges. Start labels unknown to the graph are
// still reported as reached.
func (g *Graph) Reachable(start ...Label) map[Label]struct{} {
	reached := make(map[Label]struct{}, len(start))
	visited := make([]bool, len(g.labels))
	var queue []int32
	for _, l := range start {
		reached[l] = struct{}{}
		if i, ok := g.index[l]; ok && !visited[i] {
			visited[i] = true
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range g.direct[cur] {
			if !visited[d] {
				visited[d] = true
				reached[g.labels[d]] = struct{}{}
				queue = append(queue, d)
			}
		}
	}
	return reached
}
