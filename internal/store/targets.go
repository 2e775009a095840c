package store

import (
	"database/sql"
	"fmt"
)

// --- Target operations ---

func (s *Store) InsertTarget(t *Target) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO targets (label, kind, hash, source, last_ingested) VALUES (?, ?, ?, ?, ?)",
		t.Label, t.Kind, t.Hash, t.Source, t.LastIngested,
	)
	if err != nil {
		return 0, fmt.Errorf("insert target: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id
	return id, nil
}

func (s *Store) TargetByLabel(label string) (*Target, error) {
	t := &Target{}
	err := s.db.QueryRow(
		"SELECT id, label, kind, hash, source, last_ingested FROM targets WHERE label = ?", label,
	).Scan(&t.ID, &t.Label, &t.Kind, &t.Hash, &t.Source, &t.LastIngested)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("target by label: %w", err)
	}
	return t, nil
}

// Targets returns every stored target ordered by label.
func (s *Store) Targets() ([]*Target, error) {
	return s.queryTargets("SELECT id, label, kind, hash, source, last_ingested FROM targets ORDER BY label")
}

func (s *Store) TargetsByKind(kind string) ([]*Target, error) {
	return s.queryTargets(
		"SELECT id, label, kind, hash, source, last_ingested FROM targets WHERE kind = ? ORDER BY label", kind,
	)
}

// TargetsBySource returns the targets ingested from one BUILD file.
func (s *Store) TargetsBySource(source string) ([]*Target, error) {
	return s.queryTargets(
		"SELECT id, label, kind, hash, source, last_ingested FROM targets WHERE source = ? ORDER BY label", source,
	)
}

func (s *Store) queryTargets(query string, args ...any) ([]*Target, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()
	var targets []*Target
	for rows.Next() {
		t := &Target{}
		if err := rows.Scan(&t.ID, &t.Label, &t.Kind, &t.Hash, &t.Source, &t.LastIngested); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// TargetHashes returns label -> fingerprint for every stored target.
func (s *Store) TargetHashes() (map[string]string, error) {
	rows, err := s.db.Query("SELECT label, hash FROM targets")
	if err != nil {
		return nil, fmt.Errorf("target hashes: %w", err)
	}
	defer rows.Close()
	hashes := make(map[string]string)
	for rows.Next() {
		var label, hash string
		if err := rows.Scan(&label, &hash); err != nil {
			return nil, fmt.Errorf("scan target hash: %w", err)
		}
		hashes[label] = hash
	}
	return hashes, rows.Err()
}

func (s *Store) TargetCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM targets").Scan(&n); err != nil {
		return 0, fmt.Errorf("target count: %w", err)
	}
	return n, nil
}

// --- Dependency operations ---

func (s *Store) InsertDependency(d *Dependency) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO dependencies (target_id, label, dep_type, ordinal) VALUES (?, ?, ?, ?)",
		d.TargetID, d.Label, d.DepType, d.Ordinal,
	)
	if err != nil {
		return 0, fmt.Errorf("insert dependency: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return id, nil
}

// DependenciesByTarget returns a target's dependency entries in
// declaration order.
func (s *Store) DependenciesByTarget(targetID int64) ([]*Dependency, error) {
	return s.queryDependencies(
		"SELECT id, target_id, label, dep_type, ordinal FROM dependencies WHERE target_id = ? ORDER BY ordinal",
		targetID,
	)
}

// AllDependencies bulk-loads every dependency entry grouped by target ID,
// each group in declaration order.
func (s *Store) AllDependencies() (map[int64][]*Dependency, error) {
	deps, err := s.queryDependencies(
		"SELECT id, target_id, label, dep_type, ordinal FROM dependencies ORDER BY target_id, ordinal",
	)
	if err != nil {
		return nil, err
	}
	byTarget := make(map[int64][]*Dependency)
	for _, d := range deps {
		byTarget[d.TargetID] = append(byTarget[d.TargetID], d)
	}
	return byTarget, nil
}

func (s *Store) queryDependencies(query string, args ...any) ([]*Dependency, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()
	var deps []*Dependency
	for rows.Next() {
		d := &Dependency{}
		if err := rows.Scan(&d.ID, &d.TargetID, &d.Label, &d.DepType, &d.Ordinal); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

func (s *Store) DependencyCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM dependencies").Scan(&n); err != nil {
		return 0, fmt.Errorf("dependency count: %w", err)
	}
	return n, nil
}
