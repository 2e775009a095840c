// Package buildfile reads Bazel BUILD files statically with tree-sitter's
// python grammar and turns top-level rule calls into target descriptors.
//
// Only literal structure is understood: string labels, lists of strings
// and list concatenation. Anything computed (glob, select, variables,
// comprehensions) is skipped rather than guessed.
package buildfile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/jward/targetgraph/internal/depgraph"
)

// DefaultAttributes maps dependency-carrying rule attributes to the edge
// type they produce.
var DefaultAttributes = map[string]depgraph.DependencyType{
	"deps":                depgraph.Compile,
	"exports":             depgraph.Compile,
	"implementation_deps": depgraph.Compile,
	"plugins":             depgraph.Compile,
	"runtime_deps":        depgraph.Runtime,
	"data":                depgraph.Runtime,
}

var (
	grammar     *sitter.Language
	grammarOnce sync.Once
)

func language() *sitter.Language {
	grammarOnce.Do(func() {
		grammar = python.GetLanguage()
	})
	return grammar
}

// Parse returns one descriptor per top-level rule call in src that has a
// literal string name. Relative labels resolve against pkg. Unparseable
// labels inside dependency lists are skipped; a malformed file is an error.
func Parse(ctx context.Context, src []byte, pkg string) ([]depgraph.TargetInfo, error) {
	return ParseWithAttributes(ctx, src, pkg, DefaultAttributes)
}

// ParseWithAttributes is Parse with a caller-supplied attribute table.
func ParseWithAttributes(ctx context.Context, src []byte, pkg string, attrs map[string]depgraph.DependencyType) ([]depgraph.TargetInfo, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("buildfile: parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("buildfile: syntax error in package %q", pkg)
	}

	r := &reader{src: src, pkg: pkg, attrs: attrs}
	var targets []depgraph.TargetInfo
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		call := stmt.NamedChild(0)
		if call.Type() != "call" {
			continue
		}
		if t, ok := r.rule(call); ok {
			targets = append(targets, t)
		}
	}
	return targets, nil
}

type reader struct {
	src   []byte
	pkg   string
	attrs map[string]depgraph.DependencyType
}

// rule converts one call expression into a descriptor. ok is false for
// calls without a literal name (load, package, licenses, macros that
// compute their name).
func (r *reader) rule(call *sitter.Node) (depgraph.TargetInfo, bool) {
	kind := r.kind(call.ChildByFieldName("function"))
	args := call.ChildByFieldName("arguments")
	if kind == "" || args == nil {
		return depgraph.TargetInfo{}, false
	}

	var (
		name string
		deps []depgraph.Dependency
		seen = make(map[depgraph.Dependency]bool)
	)
	count := int(args.NamedChildCount())
	for i := 0; i < count; i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "keyword_argument" {
			continue
		}
		key := arg.ChildByFieldName("name")
		value := arg.ChildByFieldName("value")
		if key == nil || value == nil {
			continue
		}
		attr := key.Content(r.src)
		if attr == "name" {
			if s, ok := r.stringLiteral(value); ok {
				name = s
			}
			continue
		}
		typ, ok := r.attrs[attr]
		if !ok {
			continue
		}
		for _, s := range r.stringList(value) {
			l, err := depgraph.ParseRelativeLabel(s, r.pkg)
			if err != nil {
				continue
			}
			d := depgraph.Dependency{Label: l, Type: typ}
			if !seen[d] {
				seen[d] = true
				deps = append(deps, d)
			}
		}
	}
	if name == "" {
		return depgraph.TargetInfo{}, false
	}
	return depgraph.TargetInfo{
		Label:        depgraph.Label{Package: r.pkg, Name: name},
		Kind:         kind,
		Dependencies: deps,
	}, true
}

// kind returns the rule name for identifiers and the final attribute for
// dotted calls such as native.java_library.
func (r *reader) kind(fn *sitter.Node) string {
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return fn.Content(r.src)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return attr.Content(r.src)
		}
	}
	return ""
}

// stringList flattens list literals and list concatenations into their
// string elements. Non-literal parts contribute nothing.
func (r *reader) stringList(n *sitter.Node) []string {
	switch n.Type() {
	case "list", "tuple":
		var out []string
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			if s, ok := r.stringLiteral(n.NamedChild(i)); ok {
				out = append(out, s)
			}
		}
		return out
	case "binary_operator":
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		if left == nil || right == nil {
			return nil
		}
		return append(r.stringList(left), r.stringList(right)...)
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return r.stringList(n.NamedChild(0))
		}
	case "string":
		if s, ok := r.stringLiteral(n); ok {
			return []string{s}
		}
	}
	return nil
}

// stringLiteral unquotes a plain string node. f-strings and strings with
// escapes are rejected.
func (r *reader) stringLiteral(n *sitter.Node) (string, bool) {
	if n == nil || n.Type() != "string" {
		return "", false
	}
	text := strings.TrimLeft(n.Content(r.src), "rRuU")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(text) >= 2*len(q) && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			body := text[len(q) : len(text)-len(q)]
			if strings.Contains(body, `\`) {
				return "", false
			}
			return body, true
		}
	}
	return "", false
}
