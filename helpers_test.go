package targetgraph

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/targetgraph/internal/depgraph"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func lbl(s string) Label {
	return depgraph.MustParseLabel(s)
}

// tgt builds a descriptor. Dependencies are compile-time unless prefixed
// with "runtime:".
func tgt(label, kind string, deps ...string) TargetInfo {
	t := TargetInfo{Label: lbl(label), Kind: kind}
	for _, d := range deps {
		typ := Compile
		if rest, ok := strings.CutPrefix(d, "runtime:"); ok {
			d, typ = rest, Runtime
		}
		t.Dependencies = append(t.Dependencies, Dependency{Label: lbl(d), Type: typ})
	}
	return t
}

func labelsOf(targets []TargetInfo) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.Label.String()
	}
	return out
}

func labelStrings(labels []Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.String()
	}
	return out
}

// diamondUniverse is a→b, a→c, b→d, c→d.
func diamondUniverse() []TargetInfo {
	return []TargetInfo{
		tgt("//a:a", "java_binary", "//b:b", "//c:c"),
		tgt("//b:b", "java_library", "//d:d"),
		tgt("//c:c", "java_library", "//d:d"),
		tgt("//d:d", "java_library"),
	}
}
