package jobs

import (
	"testing"

	"github.com/takaflow/dispatch/core/conditions"
	"github.com/takaflow/dispatch/core/metrics"
	"github.com/takaflow/dispatch/core/model"
	"github.com/takaflow/dispatch/infra/logger"
)

type countingSink struct {
	calls   int
	cells   int
	mutated int
}

func (s *countingSink) RecordMatch([]metrics.MatchRecord) error { return nil }
func (s *countingSink) RecordRoute(metrics.RouteRecord) error   { return nil }
func (s *countingSink) RecordTrafficRefresh(cells, mutated int) error {
	s.calls++
	s.cells = cells
	s.mutated = mutated
	return nil
}

func TestTrafficRefresher_Run(t *testing.T) {
	store := conditions.NewSeededStore(7)
	for i := 0; i < 40; i++ {
		store.SetCell(model.Coordinates{Lat: float64(i) * 0.01, Lng: 36.8}, conditions.CellForLevel(model.CongestionMedium))
	}

	sink := &countingSink{}
	r := NewTrafficRefresher(store, "@every 1h", sink, logger.NopLogger{})
	r.Run()

	if sink.calls != 1 {
		t.Fatalf("refresh not recorded, calls=%d", sink.calls)
	}
	if sink.cells != 40 {
		t.Errorf("recorded cells = %d, want 40", sink.cells)
	}
	if sink.mutated < 0 || sink.mutated > 40 {
		t.Errorf("mutated out of range: %d", sink.mutated)
	}
}

func TestTrafficRefresher_StartStop(t *testing.T) {
	store := conditions.NewSeededStore(7)
	r := NewTrafficRefresher(store, "@every 1h", nil, logger.NopLogger{})
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.UpdateSchedule("@every 30m"); err != nil {
		t.Fatalf("update: %v", err)
	}
	r.Stop()
}

func TestTrafficRefresher_BadSpec(t *testing.T) {
	store := conditions.NewSeededStore(7)
	r := NewTrafficRefresher(store, "not a spec", nil, logger.NopLogger{})
	if err := r.Start(); err == nil {
		t.Fatal("invalid cron spec must fail")
	}
}
