package store

import (
	"fmt"
	"sort"
)

// DependentLabels returns the labels of stored targets that declare a
// direct dependency on any of the given labels.
func (s *Store) DependentLabels(labels []string) ([]string, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool)
	for _, chunk := range chunkStrings(labels, maxParams) {
		query := `SELECT DISTINCT t.label
			FROM dependencies d
			JOIN targets t ON t.id = d.target_id
			WHERE d.label IN (` + placeholderList(len(chunk)) + `)`
		rows, err := s.db.Query(query, stringsToArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("dependent labels: %w", err)
		}
		for rows.Next() {
			var l string
			if err := rows.Scan(&l); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan dependent label: %w", err)
			}
			seen[l] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("dependent labels: %w", err)
		}
		rows.Close()
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out, nil
}

// BlastRadius returns the given labels plus every stored target that
// reaches one of them through one or more dependency hops. Cycles are
// tolerated.
func (s *Store) BlastRadius(labels []string) ([]string, error) {
	affected := make(map[string]bool, len(labels))
	frontier := make([]string, 0, len(labels))
	for _, l := range labels {
		if !affected[l] {
			affected[l] = true
			frontier = append(frontier, l)
		}
	}
	for len(frontier) > 0 {
		dependents, err := s.DependentLabels(frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, l := range dependents {
			if !affected[l] {
				affected[l] = true
				frontier = append(frontier, l)
			}
		}
	}
	out := make([]string, 0, len(affected))
	for l := range affected {
		out = append(out, l)
	}
	sort.Strings(out)
	return out, nil
}
