// Package roster provides the collector roster stores backing the
// dispatch engine: an in-memory store for tests and single-node runs and
// a Redis store for shared deployments.
package roster

import (
	"context"
	"sync"

	"github.com/takaflow/dispatch/core/dispatch"
	"github.com/takaflow/dispatch/core/model"
)

// MemoryStore keeps the roster in process memory. Load mutations are
// serialized by a mutex.
type MemoryStore struct {
	mu         sync.RWMutex
	collectors map[string]model.Collector
	order      []string
}

// NewMemoryStore creates a store seeded with the given collectors.
func NewMemoryStore(collectors ...model.Collector) *MemoryStore {
	s := &MemoryStore{collectors: make(map[string]model.Collector, len(collectors))}
	for _, c := range collectors {
		s.put(c)
	}
	return s
}

func (s *MemoryStore) put(c model.Collector) {
	if _, exists := s.collectors[c.ID]; !exists {
		s.order = append(s.order, c.ID)
	}
	s.collectors[c.ID] = c
}

// Put inserts or replaces a collector.
func (s *MemoryStore) Put(ctx context.Context, c model.Collector) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.put(c)
	s.mu.Unlock()
	return nil
}

// Remove deletes a collector from the roster.
func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collectors[id]; !ok {
		return dispatch.ErrUnknownCollector
	}
	delete(s.collectors, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns the roster in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]model.Collector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Collector, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.collectors[id])
	}
	return out, nil
}

// Get returns one collector by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Collector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collectors[id]
	if !ok {
		return model.Collector{}, dispatch.ErrUnknownCollector
	}
	return c, nil
}

// IncrementLoad reserves one assignment slot on the collector.
func (s *MemoryStore) IncrementLoad(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collectors[id]
	if !ok {
		return dispatch.ErrUnknownCollector
	}
	c.CurrentLoad++
	s.collectors[id] = c
	return nil
}

// SetOnline flips the collector's availability.
func (s *MemoryStore) SetOnline(ctx context.Context, id string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collectors[id]
	if !ok {
		return dispatch.ErrUnknownCollector
	}
	c.Online = online
	s.collectors[id] = c
	return nil
}

// UpdateLocation moves the collector to a new position.
func (s *MemoryStore) UpdateLocation(ctx context.Context, id string, loc model.CollectorLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collectors[id]
	if !ok {
		return dispatch.ErrUnknownCollector
	}
	c.Location = loc
	s.collectors[id] = c
	return nil
}
