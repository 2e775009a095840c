package depgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycles_AcyclicGraph(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, diamond())
	assert.Equal(t, [][]Label{}, g.Cycles())
	assert.NoError(t, g.CheckAcyclic())
}

func TestCycles_ThreeNodeCycle(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, universe{
		"//x:b":    target("java_library", c("//x:c")),
		"//x:c":    target("java_library", c("//x:a")),
		"//x:a":    target("java_library", c("//x:b"), c("//x:leaf")),
		"//x:leaf": target("java_library"),
	})

	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"//x:a", "//x:b", "//x:c", "//x:a"}, labelNames(cycles[0]))
}

func TestCycles_SelfLoopAndSeparateComponents(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, universe{
		"//p:self": target("java_library", c("//p:self")),
		"//q:a":    target("java_library", r("//q:b")),
		"//q:b":    target("java_library", c("//q:a")),
	})

	cycles := g.Cycles()
	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"//p:self", "//p:self"}, labelNames(cycles[0]))
	assert.Equal(t, []string{"//q:a", "//q:b", "//q:a"}, labelNames(cycles[1]))
}

func TestCheckAcyclic_TypedError(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, universe{
		"//a:a": target("java_library", c("//a:b")),
		"//a:b": target("java_library", c("//a:a")),
	})

	err := g.CheckAcyclic()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicDependency))

	var cyc *CyclicDependencyError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []string{"//a:a", "//a:b", "//a:a"}, labelNames(cyc.Cycle))
	assert.Contains(t, err.Error(), "//a:a -> //a:b -> //a:a")
}
