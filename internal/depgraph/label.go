package depgraph

import (
	"fmt"
	"strings"
)

// Label identifies a build target: repository, package and target name.
// The zero Repo denotes the main repository. Label is comparable and is
// used directly as a map key throughout the engine.
type Label struct {
	Repo    string
	Package string
	Name    string
}

// ParseLabel parses an absolute label. Accepted forms:
//
//	//pkg:name
//	//pkg            (name defaults to the last package segment)
//	@repo//pkg:name
//	@@repo//pkg:name (canonical repository name)
//	@repo            (shorthand for @repo//:repo)
func ParseLabel(s string) (Label, error) {
	return parseLabel(s, "", false)
}

// MustParseLabel is ParseLabel that panics on malformed input. Intended for
// tests and static tables.
func MustParseLabel(s string) Label {
	l, err := ParseLabel(s)
	if err != nil {
		panic(err)
	}
	return l
}

// ParseRelativeLabel parses s, resolving ":name" and bare "name" forms
// against pkg in the main repository.
func ParseRelativeLabel(s, pkg string) (Label, error) {
	return parseLabel(s, pkg, true)
}

func parseLabel(s, pkg string, relative bool) (Label, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Label{}, fmt.Errorf("depgraph: empty label")
	}

	var l Label
	if strings.HasPrefix(s, "@") {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "@"), "@")
		idx := strings.Index(s, "//")
		if idx < 0 {
			if s == "" || strings.ContainsAny(s, ":/") {
				return Label{}, fmt.Errorf("depgraph: invalid label %q", raw)
			}
			return Label{Repo: s, Name: s}, nil
		}
		l.Repo = s[:idx]
		s = s[idx:]
	}

	switch {
	case strings.HasPrefix(s, "//"):
		s = s[2:]
		pkgPart, name, hasName := strings.Cut(s, ":")
		l.Package = strings.TrimSuffix(pkgPart, "/")
		if hasName {
			l.Name = name
		} else {
			l.Name = l.Package[strings.LastIndex(l.Package, "/")+1:]
		}
	case relative && strings.HasPrefix(s, ":"):
		l.Package = pkg
		l.Name = s[1:]
	case relative && l.Repo == "" && !strings.Contains(s, ":"):
		l.Package = pkg
		l.Name = s
	default:
		return Label{}, fmt.Errorf("depgraph: invalid label %q", raw)
	}

	if l.Name == "" {
		return Label{}, fmt.Errorf("depgraph: label %q has no target name", raw)
	}
	return l, nil
}

// IsMainRepo reports whether the label belongs to the main repository.
func (l Label) IsMainRepo() bool {
	return l.Repo == ""
}

// String renders the label in canonical form.
func (l Label) String() string {
	var b strings.Builder
	if l.Repo != "" {
		b.WriteString("@")
		b.WriteString(l.Repo)
	}
	b.WriteString("//")
	b.WriteString(l.Package)
	b.WriteString(":")
	b.WriteString(l.Name)
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// compareLabels orders labels by repo, package, then name.
func compareLabels(a, b Label) int {
	if c := strings.Compare(a.Repo, b.Repo); c != 0 {
		return c
	}
	if c := strings.Compare(a.Package, b.Package); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
