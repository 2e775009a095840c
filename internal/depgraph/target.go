package depgraph

import (
	"fmt"
	"slices"
)

// DependencyType tags a dependency entry as compile-time or runtime-only.
type DependencyType int

const (
	Compile DependencyType = iota
	Runtime
)

// String returns the wire name of the dependency type.
func (t DependencyType) String() string {
	switch t {
	case Compile:
		return "COMPILE"
	case Runtime:
		return "RUNTIME"
	default:
		return fmt.Sprintf("DependencyType(%d)", int(t))
	}
}

// ParseDependencyType parses "COMPILE" or "RUNTIME" (case-insensitive).
func ParseDependencyType(s string) (DependencyType, error) {
	switch s {
	case "COMPILE", "compile", "Compile":
		return Compile, nil
	case "RUNTIME", "runtime", "Runtime":
		return Runtime, nil
	}
	return 0, fmt.Errorf("depgraph: unknown dependency type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t DependencyType) MarshalText() ([]byte, error) {
	if t != Compile && t != Runtime {
		return nil, fmt.Errorf("depgraph: invalid dependency type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DependencyType) UnmarshalText(text []byte) error {
	parsed, err := ParseDependencyType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Dependency is one entry of a target's ordered dependency list.
type Dependency struct {
	Label Label          `json:"label"`
	Type  DependencyType `json:"type"`
}

// TargetInfo is the immutable descriptor of a single build target.
type TargetInfo struct {
	Label        Label        `json:"label"`
	Kind         string       `json:"kind"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
}

// SortTargets orders descriptors by label, in place.
func SortTargets(targets []TargetInfo) {
	slices.SortFunc(targets, func(a, b TargetInfo) int {
		return compareLabels(a.Label, b.Label)
	})
}

// SortLabels orders labels canonically, in place.
func SortLabels(labels []Label) {
	slices.SortFunc(labels, compareLabels)
}

// LabelsOf returns the labels of the given descriptors in the same order.
func LabelsOf(targets []TargetInfo) []Label {
	labels := make([]Label, len(targets))
	for i, t := range targets {
		labels[i] = t.Label
	}
	return labels
}
