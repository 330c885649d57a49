// Package requeststatus caches the last known lifecycle state of every
// request the engine has touched. The cache is fed by the status update
// bus and queried by operational tooling; it is not a system of record.
package requeststatus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/takaflow/dispatch/core/model"
	"github.com/takaflow/dispatch/internal/eventbus"
)

// Status captures the current known state of a request.
type Status struct {
	RequestID          string              `json:"request_id"`
	Current            model.RequestStatus `json:"current_status"`
	MatchedCollectorID string              `json:"matched_collector_id,omitempty"`
	ETA                string              `json:"eta,omitempty"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Filter narrows List results.
type Filter struct {
	Status      *model.RequestStatus
	CollectorID string
}

// Store tracks request lifecycle state.
type Store interface {
	Apply(update model.StatusUpdate) error
	Get(id string) (Status, bool)
	List(f Filter) []Status
}

// MemoryStore is the in-process Store used by the service.
type MemoryStore struct {
	mu   sync.RWMutex
	now  func() time.Time
	data map[string]Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, data: map[string]Status{}}
}

// Apply folds one status update into the cache. Updates that would skip a
// lifecycle step are rejected so a stale replay cannot regress a request.
func (s *MemoryStore) Apply(update model.StatusUpdate) error {
	next, err := model.ParseRequestStatus(update.Status)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, known := s.data[update.RequestID]
	if known && !st.Current.CanTransition(next) {
		return fmt.Errorf("request %s: illegal transition %s -> %s", update.RequestID, st.Current, next)
	}
	st.RequestID = update.RequestID
	st.Current = next
	st.UpdatedAt = s.now()
	if update.MatchedCollectorID != "" {
		st.MatchedCollectorID = update.MatchedCollectorID
	}
	if update.ETA != "" {
		st.ETA = update.ETA
	}
	s.data[update.RequestID] = st
	return nil
}

func (s *MemoryStore) Get(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[id]
	return st, ok
}

func (s *MemoryStore) List(f Filter) []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.Status != nil && st.Current != *f.Status {
			continue
		}
		if f.CollectorID != "" && st.MatchedCollectorID != f.CollectorID {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].RequestID < res[j].RequestID })
	return res
}

// Follow consumes the status bus into the store until ctx is done or the
// bus closes. Rejected updates are dropped; the bus is best-effort anyway.
func Follow(ctx context.Context, bus *eventbus.Bus[model.StatusUpdate], store Store) {
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)
	for {
		select {
		case update, ok := <-ch:
			if !ok {
				return
			}
			_ = store.Apply(update)
		case <-ctx.Done():
			return
		}
	}
}
