package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type jar struct {
	path string
}

// =============================================================================
// Reachability Library Filter
// =============================================================================

func TestFilterUsedLibraries_DropsUnreachable(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, universe{
		"//app:a":                target("java_library", c("@maven//:guava"), r("//lib:b")),
		"//lib:b":                target("java_library", c("@maven//:slf4j")),
		"@maven//:guava":         target("jvm_import", c("@maven//:failureaccess")),
		"@maven//:failureaccess": target("jvm_import"),
		"@maven//:slf4j":         target("jvm_import"),
		"@maven//:junit":         target("jvm_import"),
	})

	libs := map[Label]jar{
		MustParseLabel("@maven//:guava"):         {"guava.jar"},
		MustParseLabel("@maven//:failureaccess"): {"failureaccess.jar"},
		MustParseLabel("@maven//:slf4j"):         {"slf4j.jar"},
		MustParseLabel("@maven//:junit"):         {"junit.jar"},
	}
	root, _ := g.Target(MustParseLabel("//app:a"))

	used := FilterUsedLibraries(g, libs, []TargetInfo{root})
	assert.Len(t, used, 3)
	assert.Contains(t, used, MustParseLabel("@maven//:failureaccess"))
	assert.Contains(t, used, MustParseLabel("@maven//:slf4j"))
	assert.NotContains(t, used, MustParseLabel("@maven//:junit"))
	assert.Equal(t, jar{"guava.jar"}, used[MustParseLabel("@maven//:guava")])

	// Input untouched.
	assert.Len(t, libs, 4)
}

func TestFilterUsedLibraries_RootItselfRetained(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, diamond())
	root, _ := g.Target(MustParseLabel("//b:b"))

	libs := map[Label]int{
		MustParseLabel("//b:b"): 1,
		MustParseLabel("//d:d"): 2,
		MustParseLabel("//c:c"): 3,
	}
	used := FilterUsedLibraries(g, libs, []TargetInfo{root})
	assert.Equal(t, map[Label]int{MustParseLabel("//b:b"): 1, MustParseLabel("//d:d"): 2}, used)
}

func TestFilterUsedLibraries_Idempotent(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, diamond())
	roots := []TargetInfo{{Label: MustParseLabel("//c:c")}}
	libs := map[Label]string{
		MustParseLabel("//a:a"): "a",
		MustParseLabel("//b:b"): "b",
		MustParseLabel("//d:d"): "d",
	}

	once := FilterUsedLibraries(g, libs, roots)
	twice := FilterUsedLibraries(g, once, roots)
	assert.Equal(t, once, twice)
	assert.Equal(t, map[Label]string{MustParseLabel("//d:d"): "d"}, once)
}

func TestFilterUsedLibraries_NoRoots(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, diamond())
	used := FilterUsedLibraries(g, map[Label]bool{MustParseLabel("//d:d"): true}, nil)
	assert.Empty(t, used)
}

func TestReachable_DiamondVisitsOnce(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, diamond())
	reached := g.Reachable(MustParseLabel("//a:a"), MustParseLabel("//unknown:u"))
	assert.Len(t, reached, 5)
	assert.Contains(t, reached, MustParseLabel("//unknown:u"))
	assert.Contains(t, reached, MustParseLabel("//d:d"))
}
