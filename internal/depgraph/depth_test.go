package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// testPredicates classifies non-main-repo labels as external and treats
// java_library targets as enforcing strict deps.
func testPredicates(g *Graph) Predicates {
	return Predicates{
		IsExternal: func(l Label) bool { return !l.IsMainRepo() },
		SupportsStrictDeps: func(l Label) bool {
			t, ok := g.Target(l)
			return ok && t.Kind == "java_library"
		},
		IsWorkspace: func(l Label) bool { return l.IsMainRepo() },
	}
}

// strictScenario: A depends on B (strict) and C (not strict). B has a compile
// dependency E; C has a chain C -> F -> G into a third-party repository.
func strictScenario() universe {
	return universe{
		"//app:a":    target("scala_library", c("//lib:b"), c("//lib:c")),
		"//lib:b":    target("java_library", c("//lib:e")),
		"//lib:c":    target("kt_jvm_library", c("@maven//:f")),
		"//lib:e":    target("java_library", c("//lib:deep")),
		"//lib:deep": target("java_library"),
		"@maven//:f": target("jvm_import", c("@maven//:g")),
		"@maven//:g": target("jvm_import"),
	}
}

// =============================================================================
// Depth-Bounded Expansion
// =============================================================================

func TestAllTargetsAtDepth_StrictAndNonStrictFrontier(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, strictScenario(), "//app:a")

	got := g.AllTargetsAtDepth(1, labels("//app:a"), testPredicates(g))

	assert.Equal(t, []string{"//app:a", "//lib:b", "//lib:c", "@maven//:f", "@maven//:g"}, names(got.Targets))
	assert.Equal(t, []string{"//lib:e"}, names(got.DirectDependencies))
}

func TestAllTargetsAtDepth_ExternalClosureAbsorbsBoundary(t *testing.T) {
	t.Parallel()
	u := universe{
		"//app:a":  target("kt_jvm_library", c("//lib:n"), c("//lib:s")),
		"//lib:n":  target("kt_jvm_library", c("@ext//:x"), c("//lib:i")),
		"//lib:s":  target("java_library", c("//lib:j")),
		"//lib:i":  target("java_library"),
		"//lib:j":  target("java_library"),
		"@ext//:x": target("jvm_import", c("//lib:i"), c("//lib:j")),
	}
	g := newTestGraph(t, u, "//app:a")

	got := g.AllTargetsAtDepth(1, labels("//app:a"), testPredicates(g))
	assert.Equal(t, []string{"//app:a", "//lib:i", "//lib:j", "//lib:n", "//lib:s", "@ext//:x"}, names(got.Targets))
	assert.Empty(t, got.DirectDependencies)

	// Without the external edges both stay boundaries.
	u["@ext//:x"] = target("jvm_import")
	g = newTestGraph(t, u, "//app:a")

	got = g.AllTargetsAtDepth(1, labels("//app:a"), testPredicates(g))
	assert.Equal(t, []string{"//app:a", "//lib:n", "//lib:s", "@ext//:x"}, names(got.Targets))
	assert.Equal(t, []string{"//lib:i", "//lib:j"}, names(got.DirectDependencies))
}

func TestAllTargetsAtDepth_NonStrictInternalStaysBoundary(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, universe{
		"//app:a":  target("kt_jvm_library", c("//lib:b")),
		"//lib:b":  target("kt_jvm_library", c("//lib:c1")),
		"//lib:c1": target("kt_jvm_library", c("//lib:c2")),
		"//lib:c2": target("kt_jvm_library"),
	})

	got := g.AllTargetsAtDepth(1, labels("//app:a"), testPredicates(g))
	assert.Equal(t, []string{"//app:a", "//lib:b"}, names(got.Targets))
	assert.Equal(t, []string{"//lib:c1"}, names(got.DirectDependencies))
}

func TestAllTargetsAtDepth_RuntimeEdgesNotWidened(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, universe{
		"//app:a":  target("java_library", c("//lib:b")),
		"//lib:b":  target("java_library", r("//lib:rt"), c("//lib:ct")),
		"//lib:rt": target("java_library"),
		"//lib:ct": target("java_library"),
	})

	got := g.AllTargetsAtDepth(1, labels("//app:a"), testPredicates(g))
	assert.Equal(t, []string{"//app:a", "//lib:b"}, names(got.Targets))
	assert.Equal(t, []string{"//lib:ct"}, names(got.DirectDependencies))
}

func TestAllTargetsAtDepth_HopsFollowRuntimeEdges(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, universe{
		"//app:a":  target("java_binary", r("//lib:rt")),
		"//lib:rt": target("java_library"),
	})

	got := g.AllTargetsAtDepth(1, labels("//app:a"), testPredicates(g))
	assert.Equal(t, []string{"//app:a", "//lib:rt"}, names(got.Targets))
	assert.Empty(t, got.DirectDependencies)
}

func TestAllTargetsAtDepth_DepthZero(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, strictScenario(), "//app:a")

	got := g.AllTargetsAtDepth(0, labels("//app:a", "//lib:b"), testPredicates(g))

	// //app:a is not strict: its compile deps are internal and stay
	// boundaries. //lib:b is strict: //lib:e is exposed one hop out.
	assert.Equal(t, []string{"//app:a", "//lib:b"}, names(got.Targets))
	assert.Equal(t, []string{"//lib:c", "//lib:e"}, names(got.DirectDependencies))
}

func TestAllTargetsAtDepth_Unbounded(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, strictScenario(), "//app:a")

	seeds := labels("//lib:b", "//lib:c")
	got := g.AllTargetsAtDepth(-1, seeds, testPredicates(g))

	want := append(g.TransitiveDependenciesOf(seeds...), mustTargets(t, g, seeds...)...)
	SortTargets(want)
	assert.Equal(t, names(dedupe(want)), names(got.Targets))
	assert.Empty(t, got.DirectDependencies)
	assert.NotNil(t, got.DirectDependencies)
}

func TestAllTargetsAtDepth_UnboundedIgnoresWorkspaceFilter(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, strictScenario())

	got := g.AllTargetsAtDepth(-1, labels("@maven//:f"), testPredicates(g))
	assert.Equal(t, []string{"@maven//:f", "@maven//:g"}, names(got.Targets))
}

func TestAllTargetsAtDepth_SeedsFilteredToWorkspace(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, strictScenario())

	got := g.AllTargetsAtDepth(2, labels("@maven//:f"), testPredicates(g))
	assert.Empty(t, got.Targets)
	assert.Empty(t, got.DirectDependencies)
}

func TestAllTargetsAtDepth_UnknownSeedsDropped(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, universe{
		"//app:a": target("java_library", c("//ghost:g")),
	})

	got := g.AllTargetsAtDepth(1, labels("//app:a", "//nowhere:n", "//ghost:g"), testPredicates(g))
	assert.Equal(t, []string{"//app:a"}, names(got.Targets))
	assert.Empty(t, got.DirectDependencies)

	got = g.AllTargetsAtDepth(-1, labels("//nowhere:n"), testPredicates(g))
	assert.Empty(t, got.Targets)
}

func TestAllTargetsAtDepth_DepthLargerThanGraph(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, diamond())

	got := g.AllTargetsAtDepth(50, labels("//a:a"), testPredicates(g))
	assert.Equal(t, []string{"//a:a", "//b:b", "//c:c", "//d:d"}, names(got.Targets))
	assert.Empty(t, got.DirectDependencies)
}

func TestAllTargetsAtDepth_NilPredicates(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, strictScenario())

	// Nothing strict, nothing external, everything workspace.
	got := g.AllTargetsAtDepth(1, labels("//app:a"), Predicates{})
	assert.Equal(t, []string{"//app:a", "//lib:b", "//lib:c"}, names(got.Targets))
	assert.Equal(t, []string{"//lib:e", "@maven//:f"}, names(got.DirectDependencies))
}

func TestAllTargetsAtDepth_Deterministic(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, strictScenario())
	p := testPredicates(g)

	for _, depth := range []int{-1, 0, 1, 2, 3} {
		first := g.AllTargetsAtDepth(depth, labels("//app:a", "//lib:c"), p)
		for range 5 {
			assert.Equal(t, first, g.AllTargetsAtDepth(depth, labels("//lib:c", "//app:a"), p))
		}
	}
}

func TestAllTargetsAtDepth_TargetsAndBoundaryDisjoint(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, strictScenario())
	p := testPredicates(g)

	for _, depth := range []int{0, 1, 2} {
		got := g.AllTargetsAtDepth(depth, labels("//app:a"), p)
		materialized := names(got.Targets)
		for _, boundary := range names(got.DirectDependencies) {
			assert.NotContains(t, materialized, boundary, "depth %d", depth)
		}
	}
}

func mustTargets(t *testing.T, g *Graph, ls ...Label) []TargetInfo {
	t.Helper()
	var out []TargetInfo
	for _, l := range ls {
		info, ok := g.Target(l)
		if !ok {
			t.Fatalf("target %s not in graph", l)
		}
		out = append(out, info)
	}
	return out
}

func dedupe(sorted []TargetInfo) []TargetInfo {
	var out []TargetInfo
	for i, ti := range sorted {
		if i > 0 && sorted[i-1].Label == ti.Label {
			continue
		}
		out = append(out, ti)
	}
	return out
}
