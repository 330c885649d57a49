// Package conditions holds the process-wide traffic and weather state
// consulted by travel-time estimation and route planning. All state is
// owned by an explicit Store passed into the engine, never a package-level
// singleton, so tests can run in isolation.
package conditions

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/takaflow/dispatch/core/geo"
	"github.com/takaflow/dispatch/core/model"
)

// refreshToggleChance is the per-cell probability that a refresh cycle
// flips the cell between medium and high congestion.
const refreshToggleChance = 0.2

// Store is a mutable traffic-by-cell table plus the single global weather
// value. It is safe for concurrent reads interleaved with refreshes.
type Store struct {
	mu      sync.RWMutex
	cells   map[string]model.TrafficCell
	weather model.WeatherState
	rng     *rand.Rand
}

// NewStore creates an empty store with a time-seeded RNG.
func NewStore() *Store {
	return NewSeededStore(time.Now().UnixNano())
}

// NewSeededStore creates an empty store whose refresh randomness is
// reproducible from the given seed.
func NewSeededStore(seed int64) *Store {
	return &Store{
		cells: make(map[string]model.TrafficCell),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// SetCell records the traffic state for the cell containing c.
func (s *Store) SetCell(c model.Coordinates, cell model.TrafficCell) {
	s.mu.Lock()
	s.cells[geo.GridKey(c)] = cell
	s.mu.Unlock()
}

// TrafficAt looks up the traffic cell containing c. Absence implies free
// flow; callers apply their own base speed and a delay factor of 1.
func (s *Store) TrafficAt(c model.Coordinates) (model.TrafficCell, bool) {
	s.mu.RLock()
	cell, ok := s.cells[geo.GridKey(c)]
	s.mu.RUnlock()
	return cell, ok
}

// Weather returns the current global weather state.
func (s *Store) Weather() model.WeatherState {
	s.mu.RLock()
	w := s.weather
	s.mu.RUnlock()
	return w
}

// SetWeather replaces the global weather value read by all
// condition-aware calculations.
func (s *Store) SetWeather(w model.WeatherState) {
	s.mu.Lock()
	s.weather = w
	s.mu.Unlock()
}

// Len returns the number of known traffic cells.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}

// Load replaces the traffic table with the provider's current cells.
func (s *Store) Load(ctx context.Context, p Provider) error {
	cells, err := p.Cells(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cells = make(map[string]model.TrafficCell, len(cells))
	for k, c := range cells {
		s.cells[k] = c
	}
	s.mu.Unlock()
	return nil
}

// RefreshTraffic performs one probabilistic mutation cycle: each cell has
// a ~20% chance of toggling between medium and high congestion, with the
// delay factor and average speed adjusted to match. It is driven by an
// external scheduler; the store owns no clock. The number of mutated
// cells is returned.
func (s *Store) RefreshTraffic() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutated := 0
	for key, cell := range s.cells {
		if s.rng.Float64() >= refreshToggleChance {
			continue
		}
		switch cell.Congestion {
		case model.CongestionMedium:
			s.cells[key] = CellForLevel(model.CongestionHigh)
		case model.CongestionHigh:
			s.cells[key] = CellForLevel(model.CongestionMedium)
		default:
			continue
		}
		mutated++
	}
	return mutated
}

// CellForLevel returns the canonical traffic cell for a congestion level.
func CellForLevel(level model.CongestionLevel) model.TrafficCell {
	switch level {
	case model.CongestionHigh:
		return model.TrafficCell{Congestion: model.CongestionHigh, AverageSpeed: 12, DelayFactor: 2.0}
	case model.CongestionMedium:
		return model.TrafficCell{Congestion: model.CongestionMedium, AverageSpeed: 25, DelayFactor: 1.4}
	default:
		return model.TrafficCell{Congestion: model.CongestionLow, AverageSpeed: 40, DelayFactor: 1.0}
	}
}
