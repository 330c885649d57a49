package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/takaflow/dispatch/core/metrics"
)

func TestInfluxSink_RecordRoute(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	rec := coremetrics.RouteRecord{
		CollectorID:   "col1",
		Stops:         3,
		TotalDistance: 12.3456,
		DurationMin:   48.5,
		Earnings:      1500,
		Efficiency:    67.2,
		TimeSavedMin:  11,
		Time:          now,
	}

	if err := sink.RecordRoute(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("route_plan").
		AddTag("collector_id", "col1").
		AddTag("component", "route_planner").
		AddField("stops", 3).
		AddField("distance_km", 12.346).
		AddField("duration_min", 48.5).
		AddField("earnings", 1500.0).
		AddField("efficiency", 67.2).
		AddField("time_saved_min", 11.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSink_RecordMatch(t *testing.T) {
	var lines []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		lines = append(lines, strings.TrimSpace(string(data)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	recs := []coremetrics.MatchRecord{
		{RequestID: "r1", CollectorID: "a", Score: 85, Matched: true, Time: time.Now()},
		{RequestID: "r1", CollectorID: "b", Score: 60, Time: time.Now()},
	}
	if err := sink.RecordMatch(recs); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d writes, want one per candidate", len(lines))
	}
	if !strings.Contains(lines[0], "matched=true") || !strings.Contains(lines[1], "matched=false") {
		t.Errorf("matched tag missing: %v", lines)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatal("health endpoint was not consulted")
	}
}
