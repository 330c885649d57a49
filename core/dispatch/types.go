package dispatch

import (
	"context"
	"errors"

	"github.com/takaflow/dispatch/core/model"
)

// RosterStore serves the live collector roster and owns the shared load
// counters. Implementations must serialize load mutations.
type RosterStore interface {
	// List returns every known collector.
	List(ctx context.Context) ([]model.Collector, error)
	// Get returns one collector by id.
	Get(ctx context.Context, id string) (model.Collector, error)
	// IncrementLoad reserves one assignment slot on the collector.
	IncrementLoad(ctx context.Context, id string) error
}

// Notifier delivers a match proposal to a collector. Implementations may
// be asynchronous; the engine does not block scoring on their completion.
type Notifier interface {
	NotifyCollector(ctx context.Context, collector model.Collector, req model.ServiceRequest) error
}

// StatusPublisher hands a status update to the real-time transport. The
// transport itself is outside this module; only the payload shape is owned
// here.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, update model.StatusUpdate) error
}

// ErrUnknownCollector is returned by roster stores for missing ids.
var ErrUnknownCollector = errors.New("unknown collector")
