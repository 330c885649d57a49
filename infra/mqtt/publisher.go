package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/takaflow/dispatch/core/model"
)

// MockTransport is an in-memory Notifier and StatusPublisher used in tests
// and by the simulator.
type MockTransport struct {
	mu        sync.Mutex
	Proposals map[string][]string
	Updates   []model.StatusUpdate
	FailIDs   map[string]bool
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Proposals: make(map[string][]string),
		FailIDs:   make(map[string]bool),
	}
}

// NotifyCollector records the proposal or fails when configured to.
func (m *MockTransport) NotifyCollector(ctx context.Context, c model.Collector, req model.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[c.ID] {
		return fmt.Errorf("publish failed")
	}
	m.Proposals[c.ID] = append(m.Proposals[c.ID], req.ID)
	return nil
}

// PublishStatus records the update.
func (m *MockTransport) PublishStatus(ctx context.Context, update model.StatusUpdate) error {
	m.mu.Lock()
	m.Updates = append(m.Updates, update)
	m.mu.Unlock()
	return nil
}

// Published returns a copy of the recorded status updates.
func (m *MockTransport) Published() []model.StatusUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.StatusUpdate, len(m.Updates))
	copy(out, m.Updates)
	return out
}
