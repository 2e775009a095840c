package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/targetgraph/internal/depgraph"
	"github.com/jward/targetgraph/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTarget(t *testing.T, s *store.Store, label, kind string, deps ...string) {
	t.Helper()
	id, err := s.InsertTarget(&store.Target{Label: label, Kind: kind, Hash: "h", Source: "BUILD", LastIngested: time.Now()})
	require.NoError(t, err)
	for i, d := range deps {
		_, err := s.InsertDependency(&store.Dependency{TargetID: id, Label: d, DepType: "COMPILE", Ordinal: i})
		require.NoError(t, err)
	}
}

func policyTargets() []depgraph.TargetInfo {
	return []depgraph.TargetInfo{
		{
			Label: depgraph.MustParseLabel("//app:main"),
			Kind:  "java_binary",
			Dependencies: []depgraph.Dependency{
				{Label: depgraph.MustParseLabel("@maven//:guava"), Type: depgraph.Compile},
			},
		},
		{Label: depgraph.MustParseLabel("//third_party/vendored:lib"), Kind: "java_import"},
		{Label: depgraph.MustParseLabel("@maven//:guava"), Kind: "jvm_import"},
		{Label: depgraph.MustParseLabel("@tools//rules:gen"), Kind: "kt_jvm_library"},
	}
}

// =============================================================================
// Policy evaluation
// =============================================================================

func TestEvaluatePolicy_MarksByKindAndPackage(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	script := `
for i := 0; i < len(targets); i++ {
    t := targets[i]
    if t["package"] == "third_party/vendored" {
        mark_external(t["label"])
    }
    if t["repo"] == "tools" {
        mark_workspace(t["label"])
    }
    if t["kind"] == "kt_jvm_library" {
        mark_strict(t["label"])
    }
}
`
	marks, err := rt.EvaluatePolicySource(context.Background(), script, policyTargets())
	require.NoError(t, err)

	vendored := depgraph.MustParseLabel("//third_party/vendored:lib")
	gen := depgraph.MustParseLabel("@tools//rules:gen")
	assert.True(t, marks.External(vendored))
	assert.False(t, marks.Workspace(vendored))
	assert.True(t, marks.Workspace(gen))
	assert.True(t, marks.Strict(gen))
	assert.False(t, marks.External(depgraph.MustParseLabel("@maven//:guava")))
	assert.Equal(t, 3, marks.Len())
}

func TestEvaluatePolicy_TargetsGlobalShape(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	script := `
assert(len(targets) == 4, 'expected 4 targets, got {len(targets)}')
first := targets[0]
assert(first["label"] == "//app:main", "first label")
assert(first["main"] == true, "main repo flag")
deps := first["deps"]
assert(len(deps) == 1, "one dep")
assert(deps[0]["label"] == "@maven//:guava", "dep label")
assert(deps[0]["type"] == "COMPILE", "dep type")
guava := targets[2]
assert(guava["repo"] == "maven", "repo without @")
assert(guava["main"] == false, "external repo flag")
`
	_, err := rt.EvaluatePolicySource(context.Background(), script, policyTargets())
	require.NoError(t, err)
}

func TestEvaluatePolicy_LastMarkWins(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	script := `
mark_external("//a:a")
mark_workspace("//a:a")
mark_workspace("//b:b")
mark_external("//b:b")
`
	marks, err := rt.EvaluatePolicySource(context.Background(), script, nil)
	require.NoError(t, err)
	a := depgraph.MustParseLabel("//a:a")
	b := depgraph.MustParseLabel("//b:b")
	assert.True(t, marks.Workspace(a))
	assert.False(t, marks.External(a))
	assert.True(t, marks.External(b))
	assert.False(t, marks.Workspace(b))
}

func TestEvaluatePolicy_InvalidLabel(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	_, err := rt.EvaluatePolicySource(context.Background(), `mark_external("not a label")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark_external")
}

func TestEvaluatePolicy_WrongArgCount(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	_, err := rt.EvaluatePolicySource(context.Background(), `mark_strict()`, nil)
	require.Error(t, err)
}

func TestEvaluatePolicy_FromScriptFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy.risor"), []byte(`mark_external("//vendor:x")`), 0644))

	rt := NewRuntime(nil, dir)
	marks, err := rt.EvaluatePolicy(context.Background(), "policy.risor", nil)
	require.NoError(t, err)
	assert.True(t, marks.External(depgraph.MustParseLabel("//vendor:x")))
}

func TestEvaluatePolicy_MissingScript(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, t.TempDir())
	_, err := rt.EvaluatePolicy(context.Background(), "nope.risor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load policy")
}

// =============================================================================
// Store bridge functions
// =============================================================================

func TestStoreFuncs_Queries(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedTarget(t, s, "//app:a", "java_binary", "//lib:b", "@maven//:guava")
	seedTarget(t, s, "//lib:b", "java_library", "@maven//:guava")

	rt := NewRuntime(s, "")
	script := `
all := stored_targets()
assert(len(all) == 2, 'expected 2 stored targets, got {len(all)}')

bins := targets_by_kind("java_binary")
assert(len(bins) == 1, "one binary")
assert(bins[0]["label"] == "//app:a", "binary label")

deps := dependencies_of("//app:a")
assert(len(deps) == 2, "two deps")
assert(deps[1]["label"] == "@maven//:guava", "declaration order")

none := dependencies_of("//missing:x")
assert(len(none) == 0, "unknown target has no deps")

users := dependents_of("@maven//:guava")
assert(len(users) == 2, 'expected 2 dependents, got {len(users)}')

rows := db_query("SELECT COUNT(*) AS n FROM dependencies WHERE label = ?", "//lib:b")
assert(rows[0]["n"] == 1, "db_query count")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestStoreFuncs_DBQueryRejectsWrites(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	rt := NewRuntime(s, "")

	err := rt.RunSource(context.Background(), `db_query("DELETE FROM targets")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only SELECT")
}

func TestStoreFuncs_AbsentWithoutStore(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")
	err := rt.RunSource(context.Background(), `stored_targets()`, nil)
	require.Error(t, err)
}

// =============================================================================
// Logging
// =============================================================================

func TestLogObject_ForwardsToSlog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := NewRuntime(nil, "", WithRuntimeLogger(logger))

	err := rt.RunSource(context.Background(), `
log.Info("classifying")
log.Warn("odd target")
`, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "classifying")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "source=policy")
}

// =============================================================================
// Script loading
// =============================================================================

func TestLoadScript_FromFSFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"policy/main.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("policy/main.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFSFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "", WithRuntimeFS(fstest.MapFS{}))

	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load policy")
}

func TestLoadScript_FromFSFS_StripsLeadingSeparator(t *testing.T) {
	t.Parallel()

	content := `y := 99`
	mapFS := fstest.MapFS{
		"policy/main.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("/policy/main.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FallsBackToDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `z := 7`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(content), 0644))

	rt := NewRuntime(nil, dir)

	got, err := rt.LoadScript("test.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRunScript_FromFSFS(t *testing.T) {
	mapFS := fstest.MapFS{
		"test.risor": &fstest.MapFile{Data: []byte(`result := 1 + 1`)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))
	err := rt.RunScript(context.Background(), "test.risor", nil)
	require.NoError(t, err)
}

// =============================================================================
// Importer wiring
// =============================================================================

func TestImport_FSImporter(t *testing.T) {
	// FSImporter resolves "lib_helpers" by trying name + ".risor".
	mapFS := fstest.MapFS{
		"lib_helpers.risor": &fstest.MapFile{Data: []byte(`
func is_vendored(pkg) {
	return pkg == "third_party"
}
`)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	script := `
import lib_helpers

assert(lib_helpers.is_vendored("third_party"), "expected vendored")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestImport_PolicyHelpersSeeMarkBuiltins(t *testing.T) {
	// Imported modules can call host-provided globals such as mark_external.
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.risor"), []byte(`
func vendor(label) {
	mark_external(label)
}
`), 0644))

	rt := NewRuntime(nil, dir)
	marks, err := rt.EvaluatePolicySource(context.Background(), `
import rules
rules.vendor("//third_party:x")
`, nil)
	require.NoError(t, err)
	assert.True(t, marks.External(depgraph.MustParseLabel("//third_party:x")))
}

func TestNewRuntime_Defaults(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "/some/dir")
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.Equal(t, "/some/dir", rt.scriptsDir)
	assert.NotNil(t, rt.logger)
}
