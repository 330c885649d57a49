package dispatch

import (
	"github.com/takaflow/dispatch/core/geo"
	"github.com/takaflow/dispatch/core/model"
)

// CompatibilityFilter eliminates collector/request pairings that cannot be
// served: wrong specialization, quantity above vehicle capacity, or beyond
// the route-planning radius.
type CompatibilityFilter struct {
	RangeKm float64
}

// NewCompatibilityFilter returns a filter with the default 20 km radius.
func NewCompatibilityFilter() CompatibilityFilter {
	return CompatibilityFilter{RangeKm: DefaultRangeRouteKm}
}

// IsCompatible reports whether the collector can serve the request at all.
func (f CompatibilityFilter) IsCompatible(c model.Collector, req model.ServiceRequest) bool {
	if !c.Specializes(req.WasteType) {
		return false
	}
	if req.QuantityKg > c.VehicleCapacity {
		return false
	}
	return geo.HaversineKm(c.Location.Coordinates, req.Location.Coordinates) <= f.RangeKm
}

// Filter returns the subset of requests the collector can serve.
func (f CompatibilityFilter) Filter(c model.Collector, reqs []model.ServiceRequest) []model.ServiceRequest {
	var res []model.ServiceRequest
	for _, r := range reqs {
		if f.IsCompatible(c, r) {
			res = append(res, r)
		}
	}
	return res
}
