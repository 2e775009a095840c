package targetgraph

import (
	"fmt"
	"strings"

	"github.com/jward/targetgraph/internal/store"
)

// --- Common Types ---

// Pagination controls offset+limit paging on list/search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// SortField specifies how to order results.
type SortField string

const (
	SortByLabel           SortField = "label"
	SortByKind            SortField = "kind"
	SortBySource          SortField = "source"
	SortByDependencyCount SortField = "dependency_count"
	SortByDependentCount  SortField = "dependent_count"
)

// SortOrder specifies ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort controls result ordering.
type Sort struct {
	Field SortField
	Order SortOrder
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// TargetResult extends a stored target with edge counts.
type TargetResult struct {
	store.Target
	DependencyCount int // declared dependency entries
	DependentCount  int // targets that declare this one as a dependency
}

// TargetFilter specifies which targets to include. All fields are optional.
type TargetFilter struct {
	Kinds       []string // match any of these kinds
	LabelPrefix *string  // e.g. "//java/com/example" or "@maven//"
	Source      *string  // exact BUILD file path
}

// --- Internal Helpers ---

// targetSortColumn returns the SQL ORDER BY expression for target queries.
// Falls back to "t.label" for unknown fields.
func targetSortColumn(field SortField) string {
	switch field {
	case SortByKind:
		return "t.kind"
	case SortBySource:
		return "t.source"
	case SortByDependencyCount:
		return "dependency_count"
	case SortByDependentCount:
		return "dependent_count"
	default:
		return "t.label"
	}
}

// sortDirection returns "ASC" or "DESC".
func sortDirection(order SortOrder) string {
	if order == Desc {
		return "DESC"
	}
	return "ASC"
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (f TargetFilter) where() ([]string, []any) {
	var where []string
	var args []any
	if len(f.Kinds) > 0 {
		placeholders := strings.Repeat("?,", len(f.Kinds)-1) + "?"
		where = append(where, "t.kind IN ("+placeholders+")")
		for _, k := range f.Kinds {
			args = append(args, k)
		}
	}
	if f.LabelPrefix != nil && *f.LabelPrefix != "" {
		where = append(where, "t.label LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(*f.LabelPrefix)+"%")
	}
	if f.Source != nil {
		where = append(where, "t.source = ?")
		args = append(args, *f.Source)
	}
	return where, args
}

// --- Enumeration Endpoints ---

// Targets is the primary listing/filtering endpoint over stored targets.
func (q *QueryBuilder) Targets(filter TargetFilter, sort Sort, page Pagination) (*PagedResult[TargetResult], error) {
	where, args := filter.where()
	return q.listTargets("targets", where, args, sort, page)
}

// SearchTargets performs glob-style search on target labels.
// '*' is the wildcard (mapped to SQL '%').
func (q *QueryBuilder) SearchTargets(pattern string, filter TargetFilter, sort Sort, page Pagination) (*PagedResult[TargetResult], error) {
	where, args := filter.where()
	if pattern != "" && pattern != "*" {
		likePattern := strings.ReplaceAll(escapeLike(pattern), "*", "%")
		where = append(where, "t.label LIKE ? ESCAPE '\\'")
		args = append(args, likePattern)
	}
	return q.listTargets("search targets", where, args, sort, page)
}

func (q *QueryBuilder) listTargets(op string, where []string, args []any, sort Sort, page Pagination) (*PagedResult[TargetResult], error) {
	page = page.normalize()
	db := q.engine.store.DB()

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var totalCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM targets t `+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("%s: count: %w", op, err)
	}

	dataSQL := fmt.Sprintf(
		`SELECT t.id, t.label, t.kind, t.hash, t.source, t.last_ingested,
			(SELECT COUNT(*) FROM dependencies d WHERE d.target_id = t.id) AS dependency_count,
			(SELECT COUNT(DISTINCT d.target_id) FROM dependencies d WHERE d.label = t.label) AS dependent_count
		 FROM targets t
		 %s
		 ORDER BY %s %s, t.label ASC
		 LIMIT ? OFFSET ?`,
		whereClause, targetSortColumn(sort.Field), sortDirection(sort.Order),
	)
	dataArgs := append(append([]any{}, args...), page.Limit, page.Offset)

	rows, err := db.Query(dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	items := []TargetResult{}
	for rows.Next() {
		var r TargetResult
		if err := rows.Scan(&r.ID, &r.Label, &r.Kind, &r.Hash, &r.Source, &r.LastIngested,
			&r.DependencyCount, &r.DependentCount); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return &PagedResult[TargetResult]{Items: items, TotalCount: totalCount}, nil
}
