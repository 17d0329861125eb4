package journal

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps runs in memory. It backs a disabled journal and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

func cloneRun(r *Run) *Run {
	c := *r
	c.Removed = slices.Clone(r.Removed)
	return &c
}

// Record stores a copy of run.
func (s *MemoryStore) Record(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = cloneRun(run)
	return nil
}

// Get returns a copy of the run with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRun(r), nil
}

// List returns copies of matching runs, newest first.
func (s *MemoryStore) List(ctx context.Context, query *Query) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Run
	for _, r := range s.runs {
		if query != nil && query.Target != "" && r.Target != query.Target {
			continue
		}
		if query != nil && !query.Since.IsZero() && r.StartedAt.Before(query.Since) {
			continue
		}
		results = append(results, cloneRun(r))
	}

	slices.SortFunc(results, func(a, b *Run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	offset := 0
	if query != nil {
		offset = query.Offset
	}
	if offset >= len(results) {
		return []*Run{}, nil
	}
	results = results[offset:]
	if n := query.limit(); len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Prune deletes runs started before olderThan.
func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, r := range s.runs {
		if r.StartedAt.Before(olderThan) {
			delete(s.runs, id)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored runs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
