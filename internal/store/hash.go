package store

import (
	"crypto/sha256"
	"fmt"
)

// ComputeTargetHash computes a deterministic fingerprint of a target's
// declared identity: label, kind and the ordered dependency list. Where
// the target was read from does NOT affect the hash.
func ComputeTargetHash(label, kind string, deps []Dependency) string {
	h := sha256.New()
	fmt.Fprintf(h, "label:%s\n", label)
	fmt.Fprintf(h, "kind:%s\n", kind)
	// Declaration order is part of a target's identity, so deps are not sorted.
	for _, d := range deps {
		fmt.Fprintf(h, "dep:%s:%s\n", d.DepType, d.Label)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// UniverseHash fingerprints the whole stored universe. It changes whenever
// any target is added, removed or changed.
func (s *Store) UniverseHash() (string, error) {
	rows, err := s.db.Query("SELECT label, hash FROM targets ORDER BY label")
	if err != nil {
		return "", fmt.Errorf("universe hash: %w", err)
	}
	defer rows.Close()

	h := sha256.New()
	for rows.Next() {
		var label, hash string
		if err := rows.Scan(&label, &hash); err != nil {
			return "", fmt.Errorf("scan universe row: %w", err)
		}
		fmt.Fprintf(h, "%s=%s\n", label, hash)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("universe hash: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
