package targetgraph

import (
	"context"
	"fmt"

	"github.com/jward/targetgraph/internal/config"
	tgruntime "github.com/jward/targetgraph/internal/runtime"
)

// Predicates builds the classification predicates for g from the Engine's
// configuration, then applies the policy script when one is configured.
func (e *Engine) Predicates(ctx context.Context, g *Graph) (Predicates, error) {
	var marks *tgruntime.Marks
	if e.cfg.PolicyScript != "" {
		var err error
		marks, err = e.runtime.EvaluatePolicy(ctx, e.cfg.PolicyScript, g.Targets())
		if err != nil {
			return Predicates{}, fmt.Errorf("targetgraph: predicates: %w", err)
		}
		e.logger.Debug("policy applied", "script", e.cfg.PolicyScript, "marks", marks.Len())
	}
	return rulePredicates(e.cfg, g, marks), nil
}

// rulePredicates implements the default rules: a label is external when it
// lives in a repository other than the main one that is not listed as a
// workspace repository, and a target enforces strict deps when its kind is
// one of the configured strict kinds. marks may be nil.
func rulePredicates(cfg config.Config, g *Graph, marks *tgruntime.Marks) Predicates {
	workspaceRepos := make(map[string]bool, len(cfg.WorkspaceRepos))
	for _, r := range cfg.WorkspaceRepos {
		workspaceRepos[r] = true
	}
	strictKinds := make(map[string]bool, len(cfg.StrictDepsKinds))
	for _, k := range cfg.StrictDepsKinds {
		strictKinds[k] = true
	}

	isExternal := func(l Label) bool {
		if marks != nil {
			if marks.External(l) {
				return true
			}
			if marks.Workspace(l) {
				return false
			}
		}
		return !l.IsMainRepo() && !workspaceRepos[l.Repo]
	}
	return Predicates{
		IsExternal: isExternal,
		IsWorkspace: func(l Label) bool {
			return !isExternal(l)
		},
		SupportsStrictDeps: func(l Label) bool {
			if marks != nil && marks.Strict(l) {
				return true
			}
			t, ok := g.Target(l)
			return ok && strictKinds[t.Kind]
		},
	}
}
