package routing

import (
	"context"
	"errors"
	"sync"
)

// ErrGraphNotFound reports a cache store miss for an area key.
var ErrGraphNotFound = errors.New("graph not found")

// GraphStore persists built road graphs so restarts skip the expensive
// map-data download and weighting pass.
type GraphStore interface {
	LoadGraph(ctx context.Context, areaKey string) (*RoadGraph, error)
	SaveGraph(ctx context.Context, areaKey string, g *RoadGraph) error
}

// MemoryGraphStore is the in-process store, used standalone and in tests.
type MemoryGraphStore struct {
	mu     sync.RWMutex
	graphs map[string]*RoadGraph
}

func NewMemoryGraphStore() *MemoryGraphStore {
	return &MemoryGraphStore{graphs: make(map[string]*RoadGraph)}
}

func (m *MemoryGraphStore) LoadGraph(_ context.Context, areaKey string) (*RoadGraph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.graphs[areaKey]
	if !ok {
		return nil, ErrGraphNotFound
	}
	return g, nil
}

func (m *MemoryGraphStore) SaveGraph(_ context.Context, areaKey string, g *RoadGraph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graphs[areaKey] = g
	return nil
}
