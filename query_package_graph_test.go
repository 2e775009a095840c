package targetgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageGraph(t *testing.T) {
	e := ingested(t, []TargetInfo{
		tgt("//app:app", "java_binary", "//lib:lib", "//lib:util"),
		tgt("//lib:lib", "java_library", "//lib:util", "@maven//:guava"),
		tgt("//lib:util", "java_library", "@maven//:guava"),
	})
	g, err := e.Query().PackageGraph(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []PackageNode{
		{Name: "//app", TargetCount: 1},
		{Name: "//lib", TargetCount: 2},
		{Name: "@maven//", TargetCount: 0},
	}, g.Packages)
	assert.Equal(t, []PackageEdge{
		{FromPackage: "//app", ToPackage: "//lib", EdgeCount: 2},
		{FromPackage: "//lib", ToPackage: "@maven//", EdgeCount: 2},
	}, g.Edges)
}

func TestPackageGraph_Empty(t *testing.T) {
	e := newTestEngine(t)
	g, err := e.Query().PackageGraph(context.Background())
	require.NoError(t, err)
	assert.Empty(t, g.Packages)
	assert.Empty(t, g.Edges)
}
