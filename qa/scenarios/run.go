package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/takaflow/dispatch/core/conditions"
	"github.com/takaflow/dispatch/core/dispatch"
	coremetrics "github.com/takaflow/dispatch/core/metrics"
	"github.com/takaflow/dispatch/core/model"
	"github.com/takaflow/dispatch/infra/logger"
	"github.com/takaflow/dispatch/infra/metrics"
	"github.com/takaflow/dispatch/infra/mqtt"
	"github.com/takaflow/dispatch/infra/roster"
	"github.com/takaflow/dispatch/internal/eventbus"
)

// RunScenario replays one scenario file against a fresh engine and checks
// the expected match count.
func RunScenario(t *testing.T, sc *Scenario) {
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	collectors := make([]model.Collector, len(sc.Collectors))
	for i, def := range sc.Collectors {
		collectors[i] = def.ToModel()
	}
	store := roster.NewMemoryStore(collectors...)

	transport := mqtt.NewMockTransport()
	for _, id := range sc.FailCollectors {
		transport.FailIDs[id] = true
	}

	cond := conditions.NewSeededStore(1)
	bus := eventbus.New[model.StatusUpdate]()

	engine, err := dispatch.NewEngine(dispatch.Config{}, store, cond, nil, transport, transport, sink, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	matched := 0
	for i, def := range sc.Requests {
		for id, after := range sc.OfflineAfter {
			if i >= after {
				if err := store.SetOnline(ctx, id, false); err != nil {
					t.Fatalf("offline %s: %v", id, err)
				}
			}
		}
		_, _, ok, err := engine.Dispatch(ctx, def.ToModel())
		if err != nil {
			t.Fatalf("dispatch %s: %v", def.ID, err)
		}
		if ok {
			matched++
		}
	}

	if matched != sc.Expected.Matched {
		t.Errorf("scenario %s expected %d matched, got %d", sc.Name, sc.Expected.Matched, matched)
	}
	if sc.Expected.Proposals != nil {
		proposals := 0
		for _, reqs := range transport.Proposals {
			proposals += len(reqs)
		}
		if proposals != *sc.Expected.Proposals {
			t.Errorf("scenario %s expected %d proposals, got %d", sc.Name, *sc.Expected.Proposals, proposals)
		}
	}
}
