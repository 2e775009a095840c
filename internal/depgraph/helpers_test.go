package depgraph

import "testing"

// edge is a test shorthand for one dependency entry.
type edge struct {
	to  string
	typ DependencyType
}

func c(to string) edge { return edge{to: to, typ: Compile} }
func r(to string) edge { return edge{to: to, typ: Runtime} }

// universe is a test shorthand: label -> (kind, deps).
type universe map[string]struct {
	kind string
	deps []edge
}

func target(kind string, deps ...edge) struct {
	kind string
	deps []edge
} {
	return struct {
		kind string
		deps []edge
	}{kind: kind, deps: deps}
}

func newTestGraph(t *testing.T, u universe, roots ...string) *Graph {
	t.Helper()
	targets := make(map[Label]TargetInfo, len(u))
	for name, def := range u {
		l := MustParseLabel(name)
		info := TargetInfo{Label: l, Kind: def.kind}
		for _, e := range def.deps {
			info.Dependencies = append(info.Dependencies, Dependency{Label: MustParseLabel(e.to), Type: e.typ})
		}
		targets[l] = info
	}
	rootLabels := make([]Label, len(roots))
	for i, name := range roots {
		rootLabels[i] = MustParseLabel(name)
	}
	return New(targets, rootLabels)
}

func labels(names ...string) []Label {
	out := make([]Label, len(names))
	for i, n := range names {
		out[i] = MustParseLabel(n)
	}
	SortLabels(out)
	return out
}

func names(targets []TargetInfo) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.Label.String()
	}
	return out
}

func labelNames(ls []Label) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.String()
	}
	return out
}
