package simulator

import (
	"context"
	"fmt"

	"github.com/takaflow/dispatch/core/conditions"
	"github.com/takaflow/dispatch/core/dispatch"
	"github.com/takaflow/dispatch/core/logger"
	"github.com/takaflow/dispatch/core/model"
	"github.com/takaflow/dispatch/infra/mqtt"
	"github.com/takaflow/dispatch/infra/roster"
)

// Result summarizes one simulation run.
type Result struct {
	Requests  int
	Matched   int
	Unmatched int
	Proposals int
	Routes    int
	RouteKm   float64
}

// Run generates a synthetic roster and request batch, dispatches every
// request through an in-memory engine and plans one route per online
// collector. The transport is mocked; nothing leaves the process.
func Run(cfg Config, dispatchCfg dispatch.Config, log logger.Logger) (Result, error) {
	gen := New(cfg)
	min, max := gen.Bounds()
	cond := conditions.NewSeededStore(cfg.Seed)
	if err := cond.Load(context.Background(), conditions.GenerateStaticTable(min, max, 200, cfg.Seed)); err != nil {
		return Result{}, err
	}

	store := roster.NewMemoryStore(gen.Roster()...)
	transport := mqtt.NewMockTransport()

	engine, err := dispatch.NewEngine(dispatchCfg, store, cond, nil, transport, transport, nil, nil, log)
	if err != nil {
		return Result{}, fmt.Errorf("build engine: %w", err)
	}

	ctx := context.Background()
	var res Result
	requests := gen.Requests()
	res.Requests = len(requests)

	pending := make([]model.ServiceRequest, 0, len(requests))
	for _, req := range requests {
		updated, _, ok, err := engine.Dispatch(ctx, req)
		if err != nil {
			return res, fmt.Errorf("dispatch %s: %w", req.ID, err)
		}
		if ok {
			res.Matched++
		} else {
			res.Unmatched++
			pending = append(pending, updated)
		}
	}
	for _, ids := range transport.Proposals {
		res.Proposals += len(ids)
	}

	collectors, err := store.List(ctx)
	if err != nil {
		return res, err
	}
	for _, c := range collectors {
		if !c.Online {
			continue
		}
		route := engine.OptimizeRoute(ctx, c, pending, nil)
		if route.Empty() {
			continue
		}
		res.Routes++
		res.RouteKm += route.TotalDistance
	}
	return res, nil
}
