// Package metrics defines the observability ports of the dispatch engine.
// Concrete sinks (Prometheus, InfluxDB) live under infra/metrics.
package metrics

import (
	"time"

	"github.com/takaflow/dispatch/core/model"
)

// MatchRecord captures one collector ranked against a request.
type MatchRecord struct {
	RequestID     string
	CollectorID   string
	WasteType     model.WasteType
	Urgency       model.Urgency
	DistanceKm    float64
	EstimatedTime float64
	Score         float64
	Matched       bool
	Time          time.Time
}

// RouteRecord captures one produced route plan.
type RouteRecord struct {
	CollectorID   string
	Stops         int
	TotalDistance float64
	DurationMin   float64
	Earnings      float64
	Efficiency    float64
	TimeSavedMin  float64
	Time          time.Time
}

// Sink records engine outcomes for observability purposes.
type Sink interface {
	RecordMatch(recs []MatchRecord) error
	RecordRoute(rec RouteRecord) error
}

// ConditionRecorder is an optional extension for sinks that track the
// condition model state.
type ConditionRecorder interface {
	RecordTrafficRefresh(cells, mutated int) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordMatch([]MatchRecord) error { return nil }
func (NopSink) RecordRoute(RouteRecord) error   { return nil }
