package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/targetgraph"
	"github.com/jward/targetgraph/internal/config"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findRepoRoot(root))
}

func TestFindRepoRoot_ModuleBazel(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "MODULE.bazel"), nil, 0o644))
	deep := filepath.Join(root, "java", "com", "example")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findRepoRoot(deep))
}

func TestFindRepoRoot_NoMarker(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	assert.Equal(t, dir, findRepoRoot(dir))
}

func TestResolveDBPath(t *testing.T) {
	cfg := config.Default()

	flagDB = ""
	assert.Equal(t, filepath.Join("/repo", ".targetgraph", "graph.db"), resolveDBPath("/repo", cfg))

	flagDB = "custom.db"
	assert.Equal(t, filepath.Join("/repo", "custom.db"), resolveDBPath("/repo", cfg))

	flagDB = "/abs/graph.db"
	assert.Equal(t, "/abs/graph.db", resolveDBPath("/repo", cfg))
	flagDB = ""
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), `invalid format "yaml"`)
}

func TestBuildSort(t *testing.T) {
	flagSort, flagOrder = "dependent_count", "desc"
	s := buildSort()
	assert.Equal(t, targetgraph.SortByDependentCount, s.Field)
	assert.Equal(t, targetgraph.Desc, s.Order)

	flagSort, flagOrder = "bogus", "sideways"
	s = buildSort()
	assert.Equal(t, targetgraph.SortByLabel, s.Field)
	assert.Equal(t, targetgraph.Asc, s.Order)
	flagSort, flagOrder = "", "asc"
}

// =============================================================================
// Text formatting
// =============================================================================

func TestOutputResultText_Labels(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Results: []string{"//a:a", "//b:b"}})
	require.NoError(t, err)
	assert.Equal(t, "//a:a\n//b:b\n", buf.String())
}

func TestOutputResultText_PaginationFooter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	total := 7
	err := outputResultText(&buf, CLIResult{
		Results:    []CLIStoredTarget{{Label: "//a:a", Kind: "java_library", DependencyCount: 2}},
		TotalCount: &total,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "LABEL")
	assert.Contains(t, buf.String(), "java_library")
	assert.Contains(t, buf.String(), "Showing 1 of 7 results")
}

func TestOutputResultText_Cycles(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, outputResultText(&buf, CLIResult{Results: CLICycles{}}))
	assert.Equal(t, "No cycles\n", buf.String())

	buf.Reset()
	require.NoError(t, outputResultText(&buf, CLIResult{Results: CLICycles{{"//a:a", "//b:b", "//a:a"}}}))
	assert.Equal(t, "//a:a -> //b:b -> //a:a\n", buf.String())
}

func TestOutputResultText_SyncRuns(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	runs := []CLISyncRun{{
		ID:          "run-1",
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Depth:       1,
		TargetCount: 3,
		Roots:       []string{"//app:app"},
	}}
	require.NoError(t, outputResultText(&buf, CLIResult{Results: runs}))
	assert.Contains(t, buf.String(), "run-1")
	assert.Contains(t, buf.String(), "2026-01-02 03:04:05")
	assert.Contains(t, buf.String(), "//app:app")
}

func TestOutputResultText_Unsupported(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Results: 42})
	assert.ErrorContains(t, err, "unsupported result type")
}

func TestTargetToCLI(t *testing.T) {
	t.Parallel()
	a, err := targetgraph.ParseLabel("//a:a")
	require.NoError(t, err)
	b, err := targetgraph.ParseLabel("@maven//:guava")
	require.NoError(t, err)

	got := targetToCLI(targetgraph.TargetInfo{
		Label: a,
		Kind:  "java_library",
		Dependencies: []targetgraph.Dependency{
			{Label: b, Type: targetgraph.Runtime},
		},
	})
	assert.Equal(t, CLITarget{
		Label:        "//a:a",
		Kind:         "java_library",
		Dependencies: []CLIDependency{{Label: "@maven//:guava", Type: "RUNTIME"}},
	}, got)
}

func TestIngestResultToCLI_NonNilSlices(t *testing.T) {
	t.Parallel()
	got := ingestResultToCLI(&targetgraph.IngestResult{Unchanged: 4})
	assert.NotNil(t, got.Added)
	assert.NotNil(t, got.Changed)
	assert.NotNil(t, got.Removed)
	assert.NotNil(t, got.Affected)
	assert.Equal(t, 4, got.Unchanged)
}
