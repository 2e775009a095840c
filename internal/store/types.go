package store

import "time"

// Target is one row of the targets table: a target descriptor minus its
// dependency list, plus the fingerprint used for incremental ingest.
type Target struct {
	ID           int64
	Label        string
	Kind         string
	Hash         string
	Source       string
	LastIngested time.Time
}

// Dependency is one entry of a target's declared dependency list.
// Ordinal preserves declaration order.
type Dependency struct {
	ID       int64
	TargetID int64
	Label    string
	DepType  string
	Ordinal  int
}

// SyncRun records one materialization request and its outcome.
type SyncRun struct {
	ID                    string
	StartedAt             time.Time
	Duration              time.Duration
	Roots                 []string
	Depth                 int
	UniverseHash          string
	TargetCount           int
	DirectDependencyCount int
	LibraryCount          int
}
