package checkpoint

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps snapshots in process memory, in save order per run.
// Intended for tests and single-process resume.
type MemoryStore struct {
	mu    sync.RWMutex
	byRun map[string][]Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byRun: make(map[string][]Snapshot)}
}

// Save appends the snapshot to the run's history.
func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byRun[snap.RunID] = append(s.byRun[snap.RunID], snap)

	return nil
}

// Load returns the most recent snapshot taken after the named step.
func (s *MemoryStore) Load(_ context.Context, runID, stepName string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.byRun[runID]
	for i := len(snaps) - 1; i >= 0; i-- {
		if snaps[i].StepName == stepName {
			return snaps[i], nil
		}
	}

	return Snapshot{}, fmt.Errorf("%w: run %s step %s", ErrNotFound, runID, stepName)
}

// Latest returns the run's most recent snapshot.
func (s *MemoryStore) Latest(_ context.Context, runID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.byRun[runID]
	if len(snaps) == 0 {
		return Snapshot{}, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}

	return snaps[len(snaps)-1], nil
}

// Len returns the number of snapshots held for a run.
func (s *MemoryStore) Len(runID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byRun[runID])
}
