package depgraph

// TransitiveDependenciesWithoutRootTargets returns the transitive closure of
// l's dependencies with every root target of the graph removed. Umbrella
// entities use it so they never re-include the roots that would otherwise
// close a cycle in the IDE model.
func (g *Graph) TransitiveDependenciesWithoutRootTargets(l Label) []TargetInfo {
	i, ok := g.index[l]
	if !ok {
		return []TargetInfo{}
	}
	set := make(indexSet)
	for _, m := range g.closureOf(i) {
		if !g.IsRoot(g.labels[m]) {
			set[m] = struct{}{}
		}
	}
	return g.descriptors(set)
}
