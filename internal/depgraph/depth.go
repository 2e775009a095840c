package depgraph

// Predicates are the per-sync classification callbacks supplied by the
// repository-mapping service and the rule-kind registry. A nil IsExternal or
// SupportsStrictDeps is treated as always false; a nil IsWorkspace as always
// true.
type Predicates struct {
	IsExternal         func(Label) bool
	SupportsStrictDeps func(Label) bool
	IsWorkspace        func(Label) bool
}

func (p Predicates) external(l Label) bool {
	return p.IsExternal != nil && p.IsExternal(l)
}

func (p Predicates) strict(l Label) bool {
	return p.SupportsStrictDeps != nil && p.SupportsStrictDeps(l)
}

func (p Predicates) workspace(l Label) bool {
	return p.IsWorkspace == nil || p.IsWorkspace(l)
}

// TargetsAtDepth is the result of a depth-bounded expansion.
//
// Targets must be materialized as full IDE modules. DirectDependencies are
// exposed only as opaque library boundaries; their sources are never
// imported.
type TargetsAtDepth struct {
	Targets            []TargetInfo `json:"targets"`
	DirectDependencies []TargetInfo `json:"direct_dependencies"`
}

// AllTargetsAtDepth decides which targets around seeds must be materialized.
//
// A negative depth materializes the seeds and their whole transitive closure.
// Otherwise the workspace seeds are expanded depth hops along direct edges,
// and the last level is widened by one more compile hop. Frontier targets
// that enforce strict deps only need that hop exposed as library boundaries.
// Frontier targets without strict deps may use anything on their build-time
// classpath, so their external compile dependencies are pulled in together
// with everything those reach; their internal ones stay boundaries.
//
// Seeds absent from the universe are ignored. The result depends only on the
// graph and the arguments, never on traversal order.
func (g *Graph) AllTargetsAtDepth(depth int, seeds []Label, p Predicates) TargetsAtDepth {
	if depth < 0 {
		seedIdx := g.describedIndices(seeds)
		targets := g.closureOfSet(seedIdx)
		for _, i := range seedIdx {
			targets[i] = struct{}{}
		}
		return TargetsAtDepth{
			Targets:            g.descriptors(targets),
			DirectDependencies: []TargetInfo{},
		}
	}

	visited := make([]bool, len(g.labels))
	var frontier []int32
	for _, i := range g.describedIndices(seeds) {
		if p.workspace(g.labels[i]) {
			frontier = append(frontier, i)
		}
	}

	for range depth {
		if len(frontier) == 0 {
			break
		}
		markAll(visited, frontier)
		frontier = g.step(g.direct, frontier, visited)
	}
	markAll(visited, frontier)

	var strictFrontier, nonStrictFrontier []int32
	for _, i := range frontier {
		if p.strict(g.labels[i]) {
			strictFrontier = append(strictFrontier, i)
		} else {
			nonStrictFrontier = append(nonStrictFrontier, i)
		}
	}

	var external, internal []int32
	for _, i := range g.step(g.compile, nonStrictFrontier, visited) {
		if p.external(g.labels[i]) {
			external = append(external, i)
		} else {
			internal = append(internal, i)
		}
	}
	extraFromStrict := g.step(g.compile, strictFrontier, visited)

	g.markReachable(external, visited)

	boundary := make(indexSet, len(internal)+len(extraFromStrict))
	for _, i := range internal {
		if !visited[i] {
			boundary[i] = struct{}{}
		}
	}
	for _, i := range extraFromStrict {
		if !visited[i] {
			boundary[i] = struct{}{}
		}
	}

	materialized := make(indexSet)
	for i, seen := range visited {
		if seen {
			materialized[int32(i)] = struct{}{}
		}
	}
	return TargetsAtDepth{
		Targets:            g.descriptors(materialized),
		DirectDependencies: g.descriptors(boundary),
	}
}

// step returns the unvisited neighbours of frontier under adj, each once.
// It does not mark them visited.
func (g *Graph) step(adj [][]int32, frontier []int32, visited []bool) []int32 {
	var next []int32
	seen := make(indexSet)
	for _, i := range frontier {
		for _, d := range adj[i] {
			if !visited[d] && seen.add(d) {
				next = append(next, d)
			}
		}
	}
	return next
}

// markReachable runs an unbounded BFS over direct edges from start, marking
// every reached index (start included) visited.
func (g *Graph) markReachable(start []int32, visited []bool) {
	queue := make([]int32, 0, len(start))
	for _, i := range start {
		if !visited[i] {
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
				queue = append(queue, d)
			}
		}
	}
}

// describedIndices resolves labels to indices of described targets,
// deduplicated, dropping anything the universe does not describe.
func (g *Graph) describedIndices(labels []Label) []int32 {
	out := make([]int32, 0, len(labels))
	seen := make(indexSet, len(labels))
	for _, l := range labels {
		i, ok := g.index[l]
		if !ok || g.targets[i] == nil {
			continue
		}
		if seen.add(i) {
			out = append(out, i)
		}
	}
	return out
}

func markAll(visited []bool, idx []int32) {
	for _, i := range idx {
		visited[i] = true
	}
}
