package store

// DataStore is the interface for ingest-phase data access. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// ingest) implement this interface.
type DataStore interface {
	InsertTarget(t *Target) (int64, error)
	InsertDependency(d *Dependency) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
