// Package targetgraph is a dependency-graph engine over Bazel build
// targets. It stores a universe of target descriptors in SQLite, answers
// graph queries over it, and decides which targets a project view
// materializes as source and which it consumes as prebuilt libraries.
//
// # Pipeline
//
//  1. Ingest: target descriptors arrive either as JSON (the output of a
//     Bazel query or aspect) or by statically reading BUILD files with
//     tree-sitter. Each target is fingerprinted; unchanged targets are
//     skipped and the blast radius of every change is reported.
//
//  2. Graph: the stored universe is loaded in bulk into an immutable,
//     index-based graph with memoized transitive closures. Built graphs are
//     cached by universe fingerprint and root set.
//
//  3. Sync: a depth-bounded expansion from the root targets splits the
//     universe into materialized targets and boundary dependencies, then
//     filters libraries down to the ones a module actually reaches.
//
// # Usage
//
//	e, err := targetgraph.New(".targetgraph/graph.db", targetgraph.WithConfig(cfg))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	_, err = e.IngestBuildFiles(ctx, "path/to/workspace")
//	res, err := e.Sync(ctx, targetgraph.SyncRequest{Roots: roots, Depth: 1})
//
//	deps, err := e.Query().TransitiveDependencies(ctx, label)
//
// # Predicates
//
// Expansion is steered by three predicates: whether a label is external,
// whether a target enforces strict deps, and whether a label is workspace
// code. The defaults come from the project configuration; an optional Risor
// policy script can mark individual targets. See the internal/runtime
// package for the globals exposed to policy scripts.
package targetgraph
