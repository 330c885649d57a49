package model

import "time"

// MatchResult ranks one collector against a service request.
type MatchResult struct {
	Collector     Collector
	DistanceKm    float64
	EstimatedTime float64 // minutes
	Score         float64
	Reasons       []string
}

// StatusUpdate is the payload handed to the real-time transport when a
// request is matched. Field names follow the wire contract consumed by the
// client applications.
type StatusUpdate struct {
	RequestID          string `json:"requestId"`
	Status             string `json:"status"`
	MatchedCollectorID string `json:"matchedCollectorId"`
	MatchedCollector   string `json:"matchedCollectorName"`
	CollectorPhone     string `json:"collectorPhone"`
	ETA                string `json:"eta"`
}

// Waypoint is one stop in an ordered pickup route.
type Waypoint struct {
	Coordinates      Coordinates `json:"coordinates"`
	Address          string      `json:"address"`
	EstimatedArrival time.Time   `json:"estimated_arrival"`
	WasteType        WasteType   `json:"waste_type"`
	QuantityKg       float64     `json:"quantity_kg"`
}

// OptimizationGain quantifies the benefit of the optimized route against
// the naive visit-in-submission-order baseline. All fields are >= 0.
type OptimizationGain struct {
	TimeSavedMin       float64 `json:"time_saved_min"`
	FuelSavedL         float64 `json:"fuel_saved_l"`
	AdditionalEarnings float64 `json:"additional_earnings"`
}

// OptimizedRoute is a sequenced multi-stop pickup plan for one collector.
type OptimizedRoute struct {
	CollectorID   string           `json:"collector_id"`
	Requests      []ServiceRequest `json:"requests"`
	Waypoints     []Waypoint       `json:"waypoints"`
	TotalDistance float64          `json:"total_distance_km"`
	DurationMin   float64          `json:"estimated_duration_min"`
	TotalEarnings float64          `json:"total_earnings"`
	Efficiency    float64          `json:"efficiency"` // 0 to 100
	Gain          OptimizationGain `json:"optimization"`
}

// Empty reports whether the route contains no stops. An empty route is the
// explicit "nothing to optimize" outcome, not an error.
func (r OptimizedRoute) Empty() bool {
	return len(r.Waypoints) == 0
}
