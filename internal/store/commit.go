package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// IDs and dependency rows are rewritten to point at the real target IDs.
//
// Order:
//  1. Queued deletes
//  2. Targets
//  3. Dependencies (depend on target_id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteTargetsTx(tx, batch.Deletes); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	fakeToReal := make(map[int64]int64, len(batch.Targets))

	for _, t := range batch.Targets {
		realID, err := insertTargetTx(tx, &t)
		if err != nil {
			return fmt.Errorf("commit batch: target %q: %w", t.Label, err)
		}
		fakeToReal[t.ID] = realID
	}

	for _, d := range batch.Dependencies {
		if d.TargetID < 0 {
			realID, ok := fakeToReal[d.TargetID]
			if !ok {
				return fmt.Errorf("commit batch: dependency %q has target_id=%d not in fakeToReal map (have %d targets)", d.Label, d.TargetID, len(batch.Targets))
			}
			d.TargetID = realID
		}
		if _, err := insertDependencyTx(tx, &d); err != nil {
			return fmt.Errorf("commit batch: dependency %q: %w", d.Label, err)
		}
	}

	return tx.Commit()
}

func insertTargetTx(tx *sql.Tx, t *Target) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO targets (label, kind, hash, source, last_ingested) VALUES (?, ?, ?, ?, ?)",
		t.Label, t.Kind, t.Hash, t.Source, t.LastIngested,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDependencyTx(tx *sql.Tx, d *Dependency) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO dependencies (target_id, label, dep_type, ordinal) VALUES (?, ?, ?, ?)",
		d.TargetID, d.Label, d.DepType, d.Ordinal,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
