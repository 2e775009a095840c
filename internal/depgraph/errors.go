package depgraph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCyclicDependency is matched by every *CyclicDependencyError.
var ErrCyclicDependency = errors.New("depgraph: cyclic dependency")

// CyclicDependencyError reports one dependency cycle. Cycle lists the
// members in edge order with the first label repeated at the end.
type CyclicDependencyError struct {
	Cycle []Label
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, l := range e.Cycle {
		parts[i] = l.String()
	}
	return fmt.Sprintf("depgraph: cyclic dependency: %s", strings.Join(parts, " -> "))
}

func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicDependency
}
