package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SetMetadata upserts a key/value pair.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value for key, or ("", false) when unset.
func (s *Store) GetMetadata(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value, true, nil
}

// --- Sync run operations ---

func (s *Store) InsertSyncRun(r *SyncRun) error {
	_, err := s.db.Exec(
		`INSERT INTO sync_runs (id, started_at, duration_ms, roots, depth, universe_hash,
			target_count, direct_dependency_count, library_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.Duration.Milliseconds(), marshalStrings(r.Roots), r.Depth, r.UniverseHash,
		r.TargetCount, r.DirectDependencyCount, r.LibraryCount,
	)
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}
	return nil
}

// LatestSyncRun returns the most recently started sync run, or nil.
func (s *Store) LatestSyncRun() (*SyncRun, error) {
	runs, err := s.SyncRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// SyncRuns returns up to limit sync runs, newest first.
func (s *Store) SyncRuns(limit int) ([]*SyncRun, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, duration_ms, roots, depth, universe_hash,
			target_count, direct_dependency_count, library_count
		 FROM sync_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sync runs: %w", err)
	}
	defer rows.Close()
	var runs []*SyncRun
	for rows.Next() {
		r := &SyncRun{}
		var roots string
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &durationMS, &roots, &r.Depth, &r.UniverseHash,
			&r.TargetCount, &r.DirectDependencyCount, &r.LibraryCount); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		r.Roots = unmarshalStrings(roots)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
