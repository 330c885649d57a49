package dispatch

import "fmt"

// Default distance cutoffs. Matching deliberately uses a stricter radius
// than multi-stop route compatibility; the two constants are distinct call
// sites and must not be silently unified.
const (
	DefaultRangeMatchKm = 10.0
	DefaultRangeRouteKm = 20.0
)

// Config defines dispatch-related settings.
type Config struct {
	// RangeMatchKm is the cutoff applied inside single-request matching.
	RangeMatchKm float64 `json:"range_match_km"`
	// RangeRouteKm is the compatibility cutoff used by route planning.
	RangeRouteKm float64 `json:"range_route_km"`
	// BroadcastCount is how many top matches are notified per request.
	BroadcastCount int `json:"broadcast_count"`
	// MaxRouteStops caps how many requests a single route may sequence.
	MaxRouteStops int `json:"max_route_stops"`
	// TwoOptPasses enables the optional local-improvement pass on greedy
	// routes when > 0.
	TwoOptPasses int `json:"two_opt_passes"`
}

// SetDefaults applies the production defaults.
func (c *Config) SetDefaults() {
	if c.RangeMatchKm <= 0 {
		c.RangeMatchKm = DefaultRangeMatchKm
	}
	if c.RangeRouteKm <= 0 {
		c.RangeRouteKm = DefaultRangeRouteKm
	}
	if c.BroadcastCount <= 0 {
		c.BroadcastCount = 3
	}
	if c.MaxRouteStops <= 0 {
		c.MaxRouteStops = 8
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.RangeMatchKm > c.RangeRouteKm {
		return fmt.Errorf("match radius %.1f km exceeds route radius %.1f km", c.RangeMatchKm, c.RangeRouteKm)
	}
	if c.TwoOptPasses < 0 {
		return fmt.Errorf("two_opt_passes must not be negative")
	}
	return nil
}
