package conditions

import (
	"context"
	"math/rand"
	"sync"

	"github.com/takaflow/dispatch/core/geo"
	"github.com/takaflow/dispatch/core/model"
)

// Provider supplies traffic cells to a Store. Two variants exist: the
// static randomized table used in development and tests, and the live
// feed fed by an external traffic source.
type Provider interface {
	Cells(ctx context.Context) (map[string]model.TrafficCell, error)
}

// StaticTable is a fixed set of traffic cells, optionally generated at
// random over a bounding box. It stands in for a real traffic feed.
type StaticTable struct {
	cells map[string]model.TrafficCell
}

// NewStaticTable wraps an explicit cell table.
func NewStaticTable(cells map[string]model.TrafficCell) *StaticTable {
	cp := make(map[string]model.TrafficCell, len(cells))
	for k, c := range cells {
		cp[k] = c
	}
	return &StaticTable{cells: cp}
}

// GenerateStaticTable seeds n random cells inside the bounding box spanned
// by min and max, with congestion levels drawn uniformly.
func GenerateStaticTable(min, max model.Coordinates, n int, seed int64) *StaticTable {
	rng := rand.New(rand.NewSource(seed))
	cells := make(map[string]model.TrafficCell, n)
	for i := 0; i < n; i++ {
		c := model.Coordinates{
			Lat: min.Lat + rng.Float64()*(max.Lat-min.Lat),
			Lng: min.Lng + rng.Float64()*(max.Lng-min.Lng),
		}
		level := model.CongestionLevel(rng.Intn(3))
		cells[geo.GridKey(c)] = CellForLevel(level)
	}
	return &StaticTable{cells: cells}
}

// Cells implements Provider.
func (t *StaticTable) Cells(ctx context.Context) (map[string]model.TrafficCell, error) {
	cp := make(map[string]model.TrafficCell, len(t.cells))
	for k, c := range t.cells {
		cp[k] = c
	}
	return cp, nil
}

// CellUpdate is one cell observation arriving from an external feed.
type CellUpdate struct {
	Coordinates model.Coordinates
	Cell        model.TrafficCell
}

// Feed accumulates cell updates pushed by an external traffic source and
// exposes the merged view as a Provider. The feed itself (transport,
// parsing) lives outside this module; only its delivery channel crosses
// the boundary.
type Feed struct {
	mu    sync.Mutex
	cells map[string]model.TrafficCell
	ch    <-chan CellUpdate
}

// NewFeed creates a provider draining updates from ch.
func NewFeed(ch <-chan CellUpdate) *Feed {
	return &Feed{cells: make(map[string]model.TrafficCell), ch: ch}
}

// Cells drains all pending updates without blocking, then returns the
// merged table.
func (f *Feed) Cells(ctx context.Context) (map[string]model.TrafficCell, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
drain:
	for {
		select {
		case u, ok := <-f.ch:
			if !ok {
				break drain
			}
			f.cells[geo.GridKey(u.Coordinates)] = u.Cell
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			break drain
		}
	}
	cp := make(map[string]model.TrafficCell, len(f.cells))
	for k, c := range f.cells {
		cp[k] = c
	}
	return cp, nil
}
