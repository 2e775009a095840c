package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/targetgraph/internal/store"
)

// Store bridge functions. Each returns plain Risor lists and maps so
// scripts never hold Go pointers.

func makeStoredTargetsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("stored_targets", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("stored_targets", 0, len(args))
		}
		targets, err := s.Targets()
		if err != nil {
			return object.Errorf("stored_targets: %v", err)
		}
		return storeTargetsToList(targets)
	})
}

func makeTargetsByKindFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("targets_by_kind", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("targets_by_kind", 1, len(args))
		}
		kind, err := toString(args[0])
		if err != nil {
			return object.Errorf("targets_by_kind: %v", err)
		}
		targets, queryErr := s.TargetsByKind(kind)
		if queryErr != nil {
			return object.Errorf("targets_by_kind: %v", queryErr)
		}
		return storeTargetsToList(targets)
	})
}

func makeDependenciesOfFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("dependencies_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("dependencies_of", 1, len(args))
		}
		label, err := toString(args[0])
		if err != nil {
			return object.Errorf("dependencies_of: %v", err)
		}
		t, queryErr := s.TargetByLabel(label)
		if queryErr != nil {
			return object.Errorf("dependencies_of: %v", queryErr)
		}
		if t == nil {
			return object.NewList([]object.Object{})
		}
		deps, queryErr := s.DependenciesByTarget(t.ID)
		if queryErr != nil {
			return object.Errorf("dependencies_of: %v", queryErr)
		}
		results := make([]object.Object, 0, len(deps))
		for _, d := range deps {
			results = append(results, object.NewMap(map[string]object.Object{
				"label": object.NewString(d.Label),
				"type":  object.NewString(d.DepType),
			}))
		}
		return object.NewList(results)
	})
}

func makeDependentsOfFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("dependents_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("dependents_of", 1, len(args))
		}
		label, err := toString(args[0])
		if err != nil {
			return object.Errorf("dependents_of: %v", err)
		}
		labels, queryErr := s.DependentLabels([]string{label})
		if queryErr != nil {
			return object.Errorf("dependents_of: %v", queryErr)
		}
		return stringsToList(labels)
	})
}

// makeDBQueryFn creates a db_query bridge that executes arbitrary read-only SQL.
// Returns a list of maps (column name -> value).
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument (sql), got %d", len(args))
		}
		sqlStr, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}

		trimmed := strings.TrimSpace(strings.ToUpper(sqlStr))
		if !strings.HasPrefix(trimmed, "SELECT") {
			return object.Errorf("db_query: only SELECT queries are allowed")
		}

		var queryArgs []any
		for _, arg := range args[1:] {
			switch v := arg.(type) {
			case *object.Int:
				queryArgs = append(queryArgs, v.Value())
			case *object.Float:
				queryArgs = append(queryArgs, v.Value())
			case *object.String:
				queryArgs = append(queryArgs, v.Value())
			case *object.Bool:
				queryArgs = append(queryArgs, v.Value())
			case *object.NilType:
				queryArgs = append(queryArgs, nil)
			default:
				queryArgs = append(queryArgs, fmt.Sprintf("%v", arg))
			}
		}

		rows, queryErr := s.DB().QueryContext(ctx, sqlStr, queryArgs...)
		if queryErr != nil {
			return object.Errorf("db_query: %v", queryErr)
		}
		defer rows.Close()

		cols, colErr := rows.Columns()
		if colErr != nil {
			return object.Errorf("db_query: columns: %v", colErr)
		}

		var results []object.Object
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return object.Errorf("db_query: scan: %v", err)
			}
			row := make(map[string]object.Object, len(cols))
			for i, col := range cols {
				row[col] = sqlValueToObject(values[i])
			}
			results = append(results, object.NewMap(row))
		}
		if err := rows.Err(); err != nil {
			return object.Errorf("db_query: rows: %v", err)
		}
		if results == nil {
			results = []object.Object{}
		}
		return object.NewList(results)
	})
}

// sqlValueToObject converts a database value to a Risor object.
func sqlValueToObject(v any) object.Object {
	if v == nil {
		return object.Nil
	}
	switch val := v.(type) {
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}

func storeTargetsToList(targets []*store.Target) object.Object {
	results := make([]object.Object, 0, len(targets))
	for _, t := range targets {
		results = append(results, object.NewMap(map[string]object.Object{
			"id":     object.NewInt(t.ID),
			"label":  object.NewString(t.Label),
			"kind":   object.NewString(t.Kind),
			"source": object.NewString(t.Source),
		}))
	}
	return object.NewList(results)
}

func stringsToList(ss []string) object.Object {
	results := make([]object.Object, len(ss))
	for i, s := range ss {
		results[i] = object.NewString(s)
	}
	return object.NewList(results)
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
