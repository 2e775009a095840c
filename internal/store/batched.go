package store

import "sync"

// BatchedStore buffers ingest inserts in memory using fake (negative)
// IDs. It implements DataStore so BUILD-file workers can write to it
// without knowing whether they're hitting SQLite or an in-memory buffer.
//
// Deletions queued with DeleteTargets run first in the same transaction
// as the inserts, so a replaced target is never left half-written.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Deletes      []string
	Targets      []Target
	Dependencies []Dependency

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore that commits into s.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertTarget(t *Target) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	t.ID = fakeID
	b.Targets = append(b.Targets, *t)
	return fakeID, nil
}

func (b *BatchedStore) InsertDependency(d *Dependency) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	d.ID = fakeID
	b.Dependencies = append(b.Dependencies, *d)
	return fakeID, nil
}

// DeleteTargets queues labels for removal at commit time.
func (b *BatchedStore) DeleteTargets(labels []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Deletes = append(b.Deletes, labels...)
}

// Len reports the number of buffered targets.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Targets)
}
