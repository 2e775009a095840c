package targetgraph

import (
	"github.com/jward/targetgraph/internal/depgraph"
	"github.com/jward/targetgraph/internal/store"
)

// Public type aliases for internal types used in the Engine and
// QueryBuilder APIs. These are Go type aliases (=), identical to the
// internal types at compile time, so no conversion is needed.

type Label = depgraph.Label
type TargetInfo = depgraph.TargetInfo
type Dependency = depgraph.Dependency
type DependencyType = depgraph.DependencyType
type Graph = depgraph.Graph
type Predicates = depgraph.Predicates
type TargetsAtDepth = depgraph.TargetsAtDepth
type CyclicDependencyError = depgraph.CyclicDependencyError

type Store = store.Store
type StoredTarget = store.Target
type SyncRun = store.SyncRun

const (
	Compile = depgraph.Compile
	Runtime = depgraph.Runtime
)

// ErrCyclicDependency matches errors reporting a dependency cycle.
var ErrCyclicDependency = depgraph.ErrCyclicDependency

// ParseLabel parses an absolute Bazel label such as //pkg:name or
// @repo//pkg:name.
func ParseLabel(s string) (Label, error) {
	return depgraph.ParseLabel(s)
}

// ParseLabels parses every string, stopping at the first invalid one.
func ParseLabels(ss []string) ([]Label, error) {
	out := make([]Label, 0, len(ss))
	for _, s := range ss {
		l, err := depgraph.ParseLabel(s)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
