package runtime

import (
	"context"
	"sync"

	"github.com/risor-io/risor/object"

	"github.com/jward/targetgraph/internal/depgraph"
)

// Marks holds the classification overrides applied by a policy script.
// Marking a label external clears a workspace mark for it and vice versa;
// the last call wins.
type Marks struct {
	mu        sync.Mutex
	external  map[depgraph.Label]bool
	workspace map[depgraph.Label]bool
	strict    map[depgraph.Label]bool
}

func newMarks() *Marks {
	return &Marks{
		external:  make(map[depgraph.Label]bool),
		workspace: make(map[depgraph.Label]bool),
		strict:    make(map[depgraph.Label]bool),
	}
}

// External reports whether l was explicitly marked external.
func (m *Marks) External(l depgraph.Label) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.external[l]
}

// Workspace reports whether l was explicitly marked as workspace code.
func (m *Marks) Workspace(l depgraph.Label) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workspace[l]
}

// Strict reports whether l was marked as enforcing strict deps.
func (m *Marks) Strict(l depgraph.Label) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strict[l]
}

// Len returns the total number of marks.
func (m *Marks) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.external) + len(m.workspace) + len(m.strict)
}

func (m *Marks) markExternal(l depgraph.Label) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.external[l] = true
	delete(m.workspace, l)
}

func (m *Marks) markWorkspace(l depgraph.Label) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspace[l] = true
	delete(m.external, l)
}

func (m *Marks) markStrict(l depgraph.Label) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strict[l] = true
}

// EvaluatePolicy runs the policy script at scriptPath against targets and
// returns the marks it applied.
func (r *Runtime) EvaluatePolicy(ctx context.Context, scriptPath string, targets []depgraph.TargetInfo) (*Marks, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.evaluatePolicy(ctx, src, scriptPath, targets)
}

// EvaluatePolicySource is EvaluatePolicy for inline source.
func (r *Runtime) EvaluatePolicySource(ctx context.Context, source string, targets []depgraph.TargetInfo) (*Marks, error) {
	return r.evaluatePolicy(ctx, source, "<inline>", targets)
}

func (r *Runtime) evaluatePolicy(ctx context.Context, source, label string, targets []depgraph.TargetInfo) (*Marks, error) {
	marks := newMarks()
	globals := map[string]any{
		"targets":        targetsToList(targets),
		"mark_external":  makeMarkFn("mark_external", marks.markExternal),
		"mark_workspace": makeMarkFn("mark_workspace", marks.markWorkspace),
		"mark_strict":    makeMarkFn("mark_strict", marks.markStrict),
	}
	if err := r.eval(ctx, source, label, globals); err != nil {
		return nil, err
	}
	r.logger.Debug("policy evaluated", "script", label, "targets", len(targets), "marks", marks.Len())
	return marks, nil
}

// makeMarkFn creates a builtin that parses its single label argument and
// records it with mark.
//
// mark_external(label) -> nil
func makeMarkFn(name string, mark func(depgraph.Label)) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		s, err := toString(args[0])
		if err != nil {
			return object.Errorf("%s: %v", name, err)
		}
		l, err := depgraph.ParseLabel(s)
		if err != nil {
			return object.Errorf("%s: %v", name, err)
		}
		mark(l)
		return object.Nil
	})
}

// targetsToList converts descriptors into the script-visible "targets"
// global: a list of maps with label, kind, repo, package, name and deps.
func targetsToList(targets []depgraph.TargetInfo) object.Object {
	results := make([]object.Object, 0, len(targets))
	for _, t := range targets {
		deps := make([]object.Object, len(t.Dependencies))
		for i, d := range t.Dependencies {
			deps[i] = object.NewMap(map[string]object.Object{
				"label": object.NewString(d.Label.String()),
				"type":  object.NewString(d.Type.String()),
			})
		}
		results = append(results, object.NewMap(map[string]object.Object{
			"label":   object.NewString(t.Label.String()),
			"kind":    object.NewString(t.Kind),
			"repo":    object.NewString(t.Label.Repo),
			"package": object.NewString(t.Label.Package),
			"name":    object.NewString(t.Label.Name),
			"main":    object.NewBool(t.Label.IsMainRepo()),
			"deps":    object.NewList(deps),
		}))
	}
	return object.NewList(results)
}
