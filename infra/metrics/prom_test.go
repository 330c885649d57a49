package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/takaflow/dispatch/core/metrics"
	"github.com/takaflow/dispatch/core/model"
)

func TestPromSink_RecordMatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	recs := []coremetrics.MatchRecord{
		{WasteType: model.WastePlastic, Urgency: model.UrgencyNormal, DistanceKm: 2.5, Matched: true},
		{WasteType: model.WastePlastic, Urgency: model.UrgencyNormal, DistanceKm: 7.1},
	}
	if err := sink.RecordMatch(recs); err != nil {
		t.Fatalf("record: %v", err)
	}

	ps := sink.(*PromSink)
	if got := testutil.ToFloat64(ps.matches.WithLabelValues("plastic", "normal", "true")); got != 1 {
		t.Errorf("matched counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ps.matches.WithLabelValues("plastic", "normal", "false")); got != 1 {
		t.Errorf("unmatched counter = %v, want 1", got)
	}
}

func TestPromSink_ReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	// Building a second sink on the same registry reuses the collectors.
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration: %v", err)
	}
}

func TestPromSink_RecordRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.RecordRoute(coremetrics.RouteRecord{Stops: 4, TotalDistance: 15, Efficiency: 80}); err != nil {
		t.Fatalf("record: %v", err)
	}
	ps := sink.(*PromSink)
	if got := testutil.ToFloat64(ps.efficiency); got != 80 {
		t.Errorf("efficiency gauge = %v, want 80", got)
	}
}
