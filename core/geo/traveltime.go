package geo

import (
	"time"

	"github.com/takaflow/dispatch/core/model"
)

// ConditionSource exposes the traffic and weather state consulted by
// condition-aware travel estimates. It is implemented by conditions.Store.
type ConditionSource interface {
	TrafficAt(model.Coordinates) (model.TrafficCell, bool)
	Weather() model.WeatherState
}

// TravelTimeModel selects which estimation formula is applied.
type TravelTimeModel int

const (
	// ModelTimeOfDay is the quick estimate used during single-request
	// matching: a flat base speed degraded by rush-hour multipliers.
	ModelTimeOfDay TravelTimeModel = iota
	// ModelConditionAware is the route-planning estimate driven by the
	// traffic table and the global weather state.
	ModelConditionAware
)

// Default base speeds for the two models. The asymmetry (30 vs 40 km/h) is
// inherited from observed production behavior and deliberately not unified.
const (
	QuickBaseSpeedKmh = 30.0
	RouteBaseSpeedKmh = 40.0
)

// Estimator computes travel times between coordinates. Now is injectable so
// tests can pin the time of day; a nil Now falls back to time.Now.
type Estimator struct {
	Conditions ConditionSource
	QuickSpeed float64
	RouteSpeed float64
	Now        func() time.Time
}

// NewEstimator returns an estimator with the default base speeds.
func NewEstimator(src ConditionSource) *Estimator {
	return &Estimator{
		Conditions: src,
		QuickSpeed: QuickBaseSpeedKmh,
		RouteSpeed: RouteBaseSpeedKmh,
		Now:        time.Now,
	}
}

// TravelTimeMin estimates the travel time in minutes between from and to
// using the selected model.
func (e *Estimator) TravelTimeMin(from, to model.Coordinates, m TravelTimeModel) float64 {
	dist := HaversineKm(from, to)
	switch m {
	case ModelConditionAware:
		return dist / e.effectiveRouteSpeed(to) * 60
	default:
		return dist / e.QuickSpeed * 60 * e.timeOfDayFactor()
	}
}

// clock returns the injected Now, falling back to the wall clock so
// zero-value estimators stay usable.
func (e *Estimator) clock() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// timeOfDayFactor returns the rush-hour multiplier applied to quick
// estimates: x2 at peak, x1.3 through the working day, x1 otherwise.
func (e *Estimator) timeOfDayFactor() float64 {
	hour := e.clock().Hour()
	switch {
	case (hour >= 7 && hour < 9) || (hour >= 17 && hour < 19):
		return 2.0
	case hour >= 10 && hour < 16:
		return 1.3
	default:
		return 1.0
	}
}

// effectiveRouteSpeed resolves the speed at a destination: the traffic
// cell's average speed when one exists, otherwise the base route speed,
// both degraded by the weather speed reduction.
func (e *Estimator) effectiveRouteSpeed(dest model.Coordinates) float64 {
	speed := e.RouteSpeed
	if e.Conditions != nil {
		if cell, ok := e.Conditions.TrafficAt(dest); ok && cell.AverageSpeed > 0 {
			speed = cell.AverageSpeed
		}
		w := e.Conditions.Weather()
		speed *= 1 - w.SpeedReduction/100
	}
	if speed <= 0 {
		speed = 1 // degenerate weather input, keep estimates finite
	}
	return speed
}

// AdjustedDistanceKm is the condition-weighted distance used by the greedy
// route constructor: haversine scaled by the destination cell's delay
// factor and the weather penalty.
func (e *Estimator) AdjustedDistanceKm(from, to model.Coordinates) float64 {
	dist := HaversineKm(from, to)
	if e.Conditions == nil {
		return dist
	}
	delay := 1.0
	if cell, ok := e.Conditions.TrafficAt(to); ok && cell.DelayFactor > 1 {
		delay = cell.DelayFactor
	}
	w := e.Conditions.Weather()
	return dist * delay * (1 + w.SpeedReduction/100)
}
