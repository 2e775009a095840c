package scripts_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/targetgraph/internal/depgraph"
	"github.com/jward/targetgraph/internal/runtime"
	"github.com/jward/targetgraph/scripts"
)

func TestFS_ContainsThirdPartyPolicy(t *testing.T) {
	t.Parallel()
	data, err := fs.ReadFile(scripts.FS, scripts.ThirdPartyPolicy)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mark_external")
}

func TestThirdPartyPolicy(t *testing.T) {
	t.Parallel()
	vendored := depgraph.MustParseLabel("//third_party/jsr305:jsr305")
	kotlin := depgraph.MustParseLabel("//app/ui:ui")
	app := depgraph.MustParseLabel("//app:app")
	guava := depgraph.MustParseLabel("@maven//:guava")

	targets := []depgraph.TargetInfo{
		{Label: app, Kind: "java_binary", Dependencies: []depgraph.Dependency{
			{Label: kotlin, Type: depgraph.Compile},
			{Label: vendored, Type: depgraph.Compile},
		}},
		{Label: kotlin, Kind: "kt_jvm_library"},
		{Label: vendored, Kind: "java_import"},
		{Label: guava, Kind: "jvm_import"},
	}

	rt := runtime.NewRuntime(nil, "", runtime.WithRuntimeFS(scripts.FS))
	marks, err := rt.EvaluatePolicy(context.Background(), scripts.ThirdPartyPolicy, targets)
	require.NoError(t, err)

	assert.True(t, marks.External(vendored))
	assert.True(t, marks.Strict(kotlin))
	assert.False(t, marks.External(app))
	assert.False(t, marks.External(guava), "only main-repo third_party packages are marked")
	assert.Equal(t, 2, marks.Len())
}
