package dispatch

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/takaflow/dispatch/core/geo"
	"github.com/takaflow/dispatch/core/model"
)

func newTestPlanner() *RoutePlanner {
	p := NewRoutePlanner(testEstimator(), nil, NewCompatibilityFilter())
	p.Now = func() time.Time {
		return time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)
	}
	return p
}

func requestAt(id string, at model.Coordinates, price float64) model.ServiceRequest {
	return model.ServiceRequest{
		ID:         id,
		ClientID:   "client-" + id,
		WasteType:  model.WastePlastic,
		QuantityKg: 20,
		Location:   model.Location{Address: id, Coordinates: at},
		Urgency:    model.UrgencyNormal,
		Price:      model.PriceEstimate{FinalPrice: price, Currency: "KES"},
		Status:     model.StatusPending,
	}
}

func TestOptimize_ZeroValuePlannerUsesWallClock(t *testing.T) {
	p := &RoutePlanner{est: testEstimator(), filter: NewCompatibilityFilter(), MaxStops: 8}
	c := onlineCollector("c1", testOrigin)

	route := p.Optimize(c, []model.ServiceRequest{requestAt("r1", offsetKm(testOrigin, 2), 100)}, nil)
	if len(route.Waypoints) != 1 {
		t.Fatalf("got %d waypoints", len(route.Waypoints))
	}
	if route.Waypoints[0].EstimatedArrival.IsZero() {
		t.Error("nil clock must fall back to the wall clock")
	}
}

func TestOptimize_NearestNeighborOrder(t *testing.T) {
	p := newTestPlanner()
	c := onlineCollector("c1", testOrigin)

	// Input deliberately shuffled; with no traffic or weather the greedy
	// pass must visit by plain distance: 2 km, 5 km, 9 km.
	reqs := []model.ServiceRequest{
		requestAt("r5", offsetKm(testOrigin, 5), 300),
		requestAt("r9", offsetKm(testOrigin, 9), 200),
		requestAt("r2", offsetKm(testOrigin, 2), 100),
	}
	route := p.Optimize(c, reqs, nil)

	if len(route.Requests) != 3 {
		t.Fatalf("got %d stops, want 3", len(route.Requests))
	}
	wantOrder := []string{"r2", "r5", "r9"}
	for i, want := range wantOrder {
		if route.Requests[i].ID != want {
			t.Errorf("stop %d = %s, want %s", i, route.Requests[i].ID, want)
		}
	}
	if want := 600.0; route.TotalEarnings != want {
		t.Errorf("earnings = %v, want exact sum %v", route.TotalEarnings, want)
	}
	if route.CollectorID != "c1" {
		t.Errorf("collector id = %s", route.CollectorID)
	}
}

func TestOptimize_EmptyCompatibleSet(t *testing.T) {
	p := newTestPlanner()
	c := onlineCollector("c1", testOrigin)

	incompatible := requestAt("r1", testOrigin, 100)
	incompatible.WasteType = model.WasteHazardous

	route := p.Optimize(c, []model.ServiceRequest{incompatible}, nil)
	if !route.Empty() {
		t.Fatal("incompatible-only input must produce an empty route")
	}
	if route.TotalDistance != 0 || route.TotalEarnings != 0 || route.DurationMin != 0 {
		t.Errorf("empty route must carry zero totals: %+v", route)
	}
	if route.CollectorID != "c1" {
		t.Error("empty route still names its collector")
	}
}

func TestOptimize_TruncatesToMaxStops(t *testing.T) {
	p := newTestPlanner()
	c := onlineCollector("c1", testOrigin)

	var reqs []model.ServiceRequest
	for i := 0; i < 12; i++ {
		reqs = append(reqs, requestAt(fmt.Sprintf("r%d", i), offsetKm(testOrigin, float64(i)), 100))
	}
	route := p.Optimize(c, reqs, nil)
	if len(route.Requests) != 8 {
		t.Fatalf("got %d stops, want the 8-stop cap", len(route.Requests))
	}
	if len(route.Waypoints) != 8 {
		t.Fatalf("waypoints %d, want 8", len(route.Waypoints))
	}
}

func TestOptimize_EmergencySurvivesTruncation(t *testing.T) {
	p := newTestPlanner()
	c := onlineCollector("c1", testOrigin)

	var reqs []model.ServiceRequest
	for i := 0; i < 8; i++ {
		reqs = append(reqs, requestAt(fmt.Sprintf("n%d", i), offsetKm(testOrigin, 1), 100))
	}
	emergency := requestAt("emergency", offsetKm(testOrigin, 10), 100)
	emergency.Urgency = model.UrgencyEmergency
	reqs = append(reqs, emergency)

	route := p.Optimize(c, reqs, nil)
	if len(route.Requests) != 8 {
		t.Fatalf("got %d stops, want 8", len(route.Requests))
	}
	found := false
	for _, r := range route.Requests {
		if r.ID == "emergency" {
			found = true
		}
	}
	if !found {
		t.Error("the emergency request must outrank a nearby normal one")
	}
}

func TestOptimize_AccumulationMonotonic(t *testing.T) {
	p := newTestPlanner()
	c := onlineCollector("c1", testOrigin)

	reqs := []model.ServiceRequest{
		requestAt("a", offsetKm(testOrigin, 3), 100),
		requestAt("b", offsetKm(testOrigin, 6), 100),
		requestAt("c", offsetKm(testOrigin, 9), 100),
	}
	route := p.Optimize(c, reqs, nil)

	for i := 1; i < len(route.Waypoints); i++ {
		if !route.Waypoints[i].EstimatedArrival.After(route.Waypoints[i-1].EstimatedArrival) {
			t.Errorf("waypoint %d ETA not after waypoint %d", i, i-1)
		}
	}
	if route.TotalDistance <= 0 || route.DurationMin <= 0 {
		t.Errorf("totals must be positive for a 3-stop route: %+v", route)
	}
	// Duration includes at least the dwell time of every stop.
	if route.DurationMin < 3*5 {
		t.Errorf("duration %v below minimum dwell accumulation", route.DurationMin)
	}
}

func TestOptimize_GainNonNegative(t *testing.T) {
	p := newTestPlanner()
	c := onlineCollector("c1", testOrigin)

	// Worst naive order: farthest first.
	reqs := []model.ServiceRequest{
		requestAt("far", offsetKm(testOrigin, 9), 100),
		requestAt("mid", offsetKm(testOrigin, 5), 100),
		requestAt("near", offsetKm(testOrigin, 2), 100),
	}
	route := p.Optimize(c, reqs, nil)

	g := route.Gain
	if g.TimeSavedMin < 0 || g.FuelSavedL < 0 || g.AdditionalEarnings < 0 {
		t.Fatalf("gain fields must be non-negative: %+v", g)
	}
	if want := math.Round(g.TimeSavedMin * 2); g.AdditionalEarnings != want {
		t.Errorf("additional earnings %v, want round(timeSaved*2) = %v", g.AdditionalEarnings, want)
	}
}

func TestOptimize_CustomOrigin(t *testing.T) {
	p := newTestPlanner()
	c := onlineCollector("c1", offsetKm(testOrigin, 50)) // stale roster position

	origin := offsetKm(testOrigin, 1)
	reqs := []model.ServiceRequest{requestAt("a", testOrigin, 100)}
	route := p.Optimize(c, reqs, &origin)
	// Compatibility still uses the roster position, so this is empty; with
	// the collector nearby the origin drives the first hop instead.
	if !route.Empty() {
		t.Fatal("stale far-away roster position keeps requests incompatible")
	}

	c = onlineCollector("c1", testOrigin)
	route = p.Optimize(c, reqs, &origin)
	if route.Empty() {
		t.Fatal("expected one stop")
	}
	wantDist := p.est.AdjustedDistanceKm(origin, testOrigin)
	if math.Abs(route.TotalDistance-wantDist) > 1e-9 {
		t.Errorf("first hop must start at the provided origin: got %v want %v", route.TotalDistance, wantDist)
	}
}

func TestDwellMinutes_Clamped(t *testing.T) {
	cases := []struct {
		qty  float64
		want float64
	}{
		{10, 5},
		{50, 5},
		{80, 8},
		{150, 15},
		{400, 15},
	}
	for _, tc := range cases {
		if got := dwellMinutes(tc.qty); got != tc.want {
			t.Errorf("dwell(%v) = %v, want %v", tc.qty, got, tc.want)
		}
	}
}

func TestEfficiency_Bounded(t *testing.T) {
	if got := efficiencyScore(10000, 1, 1); got != 100 {
		t.Errorf("efficiency must cap at 100, got %v", got)
	}
	if got := efficiencyScore(0, 10, 60); got != 0 {
		t.Errorf("zero earnings should score 0, got %v", got)
	}
	if got := efficiencyScore(100, 0, 0); got != 0 {
		t.Errorf("degenerate route must not divide by zero, got %v", got)
	}
}

func TestImproveOrder_NeverWorse(t *testing.T) {
	p := newTestPlanner()

	// A zig-zag layout where greedy from the origin is suboptimal.
	coords := []model.Coordinates{
		offsetKm(testOrigin, 1),
		{Lat: testOrigin.Lat + 1.0/111, Lng: testOrigin.Lng + 8.0/111},
		offsetKm(testOrigin, 2),
		{Lat: testOrigin.Lat + 2.0/111, Lng: testOrigin.Lng + 8.0/111},
	}
	selected := make([]prioritized, len(coords))
	for i, xy := range coords {
		selected[i] = prioritized{req: requestAt(fmt.Sprintf("r%d", i), xy, 100), origIdx: i}
	}

	greedy := p.greedyOrder(testOrigin, selected)
	improved := p.improveOrder(testOrigin, selected, greedy, 3)

	dg := p.orderDistance(testOrigin, selected, greedy)
	di := p.orderDistance(testOrigin, selected, improved)
	if di > dg+1e-9 {
		t.Fatalf("2-opt must never lengthen the route: %v > %v", di, dg)
	}
	if len(improved) != len(greedy) {
		t.Fatalf("order length changed: %d vs %d", len(improved), len(greedy))
	}
}

func TestOptimize_ConditionAdjustedDistance(t *testing.T) {
	// High congestion at one destination doubles its adjusted distance,
	// flipping the greedy choice.
	congested := offsetKm(testOrigin, 2)
	clear := offsetKm(testOrigin, 3)

	cond := condStub{cells: map[string]model.TrafficCell{
		geo.GridKey(congested): {Congestion: model.CongestionHigh, AverageSpeed: 12, DelayFactor: 2},
	}}
	est := geo.NewEstimator(cond)
	est.Now = func() time.Time { return time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC) }
	p := NewRoutePlanner(est, cond, NewCompatibilityFilter())
	p.Now = est.Now

	c := onlineCollector("c1", testOrigin)
	route := p.Optimize(c, []model.ServiceRequest{
		requestAt("congested", congested, 100),
		requestAt("clear", clear, 100),
	}, nil)

	if len(route.Requests) != 2 {
		t.Fatalf("got %d stops", len(route.Requests))
	}
	if route.Requests[0].ID != "clear" {
		t.Errorf("first stop should avoid the congested cell, got %s", route.Requests[0].ID)
	}
}

type condStub struct {
	cells   map[string]model.TrafficCell
	weather model.WeatherState
}

func (s condStub) TrafficAt(c model.Coordinates) (model.TrafficCell, bool) {
	cell, ok := s.cells[geo.GridKey(c)]
	return cell, ok
}

func (s condStub) Weather() model.WeatherState { return s.weather }
