package dispatch

import (
	"math"
	"time"

	"github.com/takaflow/dispatch/core/geo"
	"github.com/takaflow/dispatch/core/model"
)

// Priority weights used when selecting which requests enter a route.
const (
	priorityNormal    = 10.0
	priorityUrgent    = 25.0
	priorityEmergency = 40.0

	proximityBase   = 50.0
	proximityPerKm  = 2.0
	pricePerPoint   = 10.0
	asapBonus       = 20.0
	trafficPenHigh  = 20.0
	trafficPenMed   = 10.0
	fuelPerKmLitres = 0.1
	earningsPerMin  = 2.0

	// Per-stop scheduling buffer added to waypoint ETAs.
	stopBufferMin = 10.0
)

// RoutePlanner prioritizes a request set for one collector and sequences a
// multi-stop pickup route with a greedy nearest-neighbor pass over
// condition-adjusted distances.
type RoutePlanner struct {
	est    *geo.Estimator
	cond   geo.ConditionSource
	filter CompatibilityFilter

	// MaxStops caps the route length; lower-priority requests beyond the
	// cap are dropped, not reconsidered. This is a capacity guardrail,
	// not a joint vehicle-routing optimization.
	MaxStops int
	// TwoOptPasses > 0 enables the optional local-improvement pass.
	TwoOptPasses int
	// Now is injectable for deterministic waypoint ETAs in tests.
	Now func() time.Time
}

// NewRoutePlanner creates a planner with the default stop cap.
func NewRoutePlanner(est *geo.Estimator, cond geo.ConditionSource, filter CompatibilityFilter) *RoutePlanner {
	return &RoutePlanner{
		est:      est,
		cond:     cond,
		filter:   filter,
		MaxStops: 8,
		Now:      time.Now,
	}
}

// clock returns the injected Now, falling back to the wall clock so
// zero-value planners stay usable.
func (p *RoutePlanner) clock() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// prioritized pairs a request with its composite priority score and its
// position in the incoming slice, which defines the naive baseline order.
type prioritized struct {
	req     model.ServiceRequest
	score   float64
	origIdx int
}

// priorityScore mixes urgency, proximity to the collector, price, client
// time preference and the traffic state at the destination cell.
func (p *RoutePlanner) priorityScore(req model.ServiceRequest, origin model.Coordinates) float64 {
	score := urgencyWeight(req.Urgency)

	dist := geo.HaversineKm(origin, req.Location.Coordinates)
	score += math.Max(0, proximityBase-proximityPerKm*dist)
	score += req.Price.FinalPrice / pricePerPoint
	if req.PreferredTime == model.PreferASAP {
		score += asapBonus
	}
	if p.cond != nil {
		if cell, ok := p.cond.TrafficAt(req.Location.Coordinates); ok {
			switch cell.Congestion {
			case model.CongestionHigh:
				score -= trafficPenHigh
			case model.CongestionMedium:
				score -= trafficPenMed
			}
		}
	}
	return score
}

func urgencyWeight(u model.Urgency) float64 {
	switch u {
	case model.UrgencyEmergency:
		return priorityEmergency
	case model.UrgencyUrgent:
		return priorityUrgent
	default:
		return priorityNormal
	}
}

// Optimize builds a sequenced route for the collector over the available
// requests. A nil origin starts from the collector's last known location.
// An empty compatible set yields an explicit empty route, not an error.
func (p *RoutePlanner) Optimize(c model.Collector, available []model.ServiceRequest, origin *model.Coordinates) model.OptimizedRoute {
	route := model.OptimizedRoute{CollectorID: c.ID}

	start := c.Location.Coordinates
	if origin != nil {
		start = *origin
	}

	compatible := p.filter.Filter(c, available)
	if len(compatible) == 0 {
		return route
	}

	selected := p.selectRequests(compatible, start)

	order := p.greedyOrder(start, selected)
	if p.TwoOptPasses > 0 {
		order = p.improveOrder(start, selected, order, p.TwoOptPasses)
	}

	now := p.clock()

	var cumTravelMin float64
	current := start
	for i, idx := range order {
		req := selected[idx].req
		dest := req.Location.Coordinates

		route.TotalDistance += p.est.AdjustedDistanceKm(current, dest)
		hopMin := p.est.TravelTimeMin(current, dest, geo.ModelConditionAware)
		cumTravelMin += hopMin
		route.DurationMin += hopMin + dwellMinutes(req.QuantityKg)
		route.TotalEarnings += req.Price.FinalPrice

		route.Requests = append(route.Requests, req)
		route.Waypoints = append(route.Waypoints, model.Waypoint{
			Coordinates:      dest,
			Address:          req.Location.Address,
			EstimatedArrival: now.Add(time.Duration((cumTravelMin + stopBufferMin*float64(i)) * float64(time.Minute))),
			WasteType:        req.WasteType,
			QuantityKg:       req.QuantityKg,
		})
		current = dest
	}

	route.Efficiency = efficiencyScore(route.TotalEarnings, route.TotalDistance, route.DurationMin)
	route.Gain = p.estimateGain(start, selected, route)
	return route
}

// selectRequests sorts compatible requests by composite priority and keeps
// the top MaxStops of them.
func (p *RoutePlanner) selectRequests(compatible []model.ServiceRequest, origin model.Coordinates) []prioritized {
	list := make([]prioritized, len(compatible))
	for i, req := range compatible {
		list[i] = prioritized{req: req, score: p.priorityScore(req, origin), origIdx: i}
	}
	// Insertion sort by score descending; request sets are small.
	for i := 1; i < len(list); i++ {
		key := list[i]
		j := i - 1
		for j >= 0 && list[j].score < key.score {
			list[j+1] = list[j]
			j--
		}
		list[j+1] = key
	}
	max := p.MaxStops
	if max <= 0 {
		max = 8
	}
	if len(list) > max {
		list = list[:max]
	}
	return list
}

// greedyOrder sequences the selected requests nearest-neighbor first over
// condition-adjusted distance from the running route tail.
func (p *RoutePlanner) greedyOrder(start model.Coordinates, selected []prioritized) []int {
	order := make([]int, 0, len(selected))
	visited := make([]bool, len(selected))
	current := start
	for len(order) < len(selected) {
		best := -1
		bestDist := math.MaxFloat64
		for i := range selected {
			if visited[i] {
				continue
			}
			d := p.est.AdjustedDistanceKm(current, selected[i].req.Location.Coordinates)
			if d < bestDist {
				best = i
				bestDist = d
			}
		}
		visited[best] = true
		order = append(order, best)
		current = selected[best].req.Location.Coordinates
	}
	return order
}

// estimateGain compares the optimized route against the naive baseline
// that visits the same requests in their pre-prioritization order.
func (p *RoutePlanner) estimateGain(start model.Coordinates, selected []prioritized, optimized model.OptimizedRoute) model.OptimizationGain {
	baseline := make([]prioritized, len(selected))
	copy(baseline, selected)
	for i := 1; i < len(baseline); i++ {
		key := baseline[i]
		j := i - 1
		for j >= 0 && baseline[j].origIdx > key.origIdx {
			baseline[j+1] = baseline[j]
			j--
		}
		baseline[j+1] = key
	}

	var naiveDist, naiveDur float64
	current := start
	for _, item := range baseline {
		dest := item.req.Location.Coordinates
		naiveDist += p.est.AdjustedDistanceKm(current, dest)
		naiveDur += p.est.TravelTimeMin(current, dest, geo.ModelConditionAware) + dwellMinutes(item.req.QuantityKg)
		current = dest
	}

	timeSaved := math.Max(0, naiveDur-optimized.DurationMin)
	return model.OptimizationGain{
		TimeSavedMin:       timeSaved,
		FuelSavedL:         math.Max(0, (naiveDist-optimized.TotalDistance)*fuelPerKmLitres),
		AdditionalEarnings: math.Round(timeSaved * earningsPerMin),
	}
}

// dwellMinutes is the on-site collection time for a stop, clamped between
// five and fifteen minutes.
func dwellMinutes(quantityKg float64) float64 {
	d := quantityKg / 10
	if d < 5 {
		return 5
	}
	if d > 15 {
		return 15
	}
	return d
}

// efficiencyScore normalizes earnings per distance and per time into a
// 0-100 value.
func efficiencyScore(earnings, distanceKm, durationMin float64) float64 {
	var score float64
	if distanceKm > 0 {
		score += earnings / distanceKm * 2
	}
	if durationMin > 0 {
		score += earnings / durationMin * 5
	}
	return math.Min(100, score)
}
