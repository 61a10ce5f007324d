package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaskrrish/Go-QEC/internal/models/qec"
)

// MemoryStore keeps runs in a map guarded by a RWMutex
type MemoryStore struct {
	runs  map[uuid.UUID]*qec.Run
	mutex sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[uuid.UUID]*qec.Run)}
}

func (m *MemoryStore) Put(_ context.Context, run *qec.Run) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.runs[run.RunID] = cloneRun(run)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*qec.Run, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	run, exists := m.runs[id]
	if !exists {
		return nil, ErrNotFound
	}
	return cloneRun(run), nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.runs[id]; !exists {
		return ErrNotFound
	}
	delete(m.runs, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*qec.Run, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	runs := make([]*qec.Run, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, cloneRun(run))
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
	return runs, nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for id, run := range m.runs {
		if now.After(run.ExpiresAt) {
			delete(m.runs, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Close() error { return nil }
