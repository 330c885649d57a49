package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/takaflow/dispatch/core/model"
)

func sampleRoute() model.OptimizedRoute {
	return model.OptimizedRoute{
		CollectorID: "col1",
		Requests:    []model.ServiceRequest{{ID: "r1"}, {ID: "r2"}},
		Waypoints: []model.Waypoint{
			{
				Coordinates:      model.Coordinates{Lat: -1.2864, Lng: 36.8172},
				WasteType:        model.WastePlastic,
				QuantityKg:       25,
				EstimatedArrival: time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
			},
			{
				Coordinates:      model.Coordinates{Lat: -1.2900, Lng: 36.8200},
				WasteType:        model.WasteOrganic,
				QuantityKg:       10,
				EstimatedArrival: time.Date(2026, 3, 10, 14, 45, 0, 0, time.UTC),
			},
		},
		TotalDistance: 4.2,
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []model.OptimizedRoute{sampleRoute()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 stops, got %d lines", len(lines))
	}
	if lines[0] != "collector_id,stop,request_id,waste_type,quantity_kg,lat,lng,eta" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "col1,1,r1,plastic,25,") {
		t.Fatalf("unexpected first stop row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "2026-03-10T14:45:00Z") {
		t.Fatalf("eta missing from second row: %s", lines[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []model.OptimizedRoute{sampleRoute()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"collector_id":"col1"`) || !strings.Contains(out, `"total_distance_km":4.2`) {
		t.Fatalf("unexpected json: %s", out)
	}
}
