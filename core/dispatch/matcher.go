package dispatch

import (
	"sort"

	"github.com/takaflow/dispatch/core/geo"
	"github.com/takaflow/dispatch/core/model"
)

// Matcher ranks collectors against a single service request using an
// additive score. The weights can be tuned; the defaults reproduce the
// production scoring table. Scores are floored at zero and carry no upper
// bound, so callers compare relative ranking rather than magnitude.
type Matcher struct {
	SpecializationBonus   float64
	SpecializationPenalty float64
	RatingWeight          float64
	HighRatingThreshold   float64
	FastResponseMin       float64
	FastResponseBonus     float64
	SlowResponseMin       float64
	SlowResponsePenalty   float64
	LowLoadRatio          float64
	LowLoadBonus          float64
	HighLoadRatio         float64
	HighLoadPenalty       float64
	EmergencyResponseMin  float64
	EmergencyBonus        float64

	// RangeKm is the matching radius, stricter than the route
	// compatibility radius.
	RangeKm float64

	est *geo.Estimator
}

// NewMatcher returns a matcher with the production weights.
func NewMatcher(est *geo.Estimator) *Matcher {
	return &Matcher{
		SpecializationBonus:   30,
		SpecializationPenalty: 20,
		RatingWeight:          10,
		HighRatingThreshold:   4.5,
		FastResponseMin:       15,
		FastResponseBonus:     15,
		SlowResponseMin:       30,
		SlowResponsePenalty:   10,
		LowLoadRatio:          0.4,
		LowLoadBonus:          10,
		HighLoadRatio:         0.8,
		HighLoadPenalty:       10,
		EmergencyResponseMin:  10,
		EmergencyBonus:        20,
		RangeKm:               DefaultRangeMatchKm,
		est:                   est,
	}
}

// Score computes the additive match score and its ordered explanations.
// Disqualifying conditions surface as a zero score with a reason, never as
// an error.
func (m *Matcher) Score(req model.ServiceRequest, c model.Collector) (float64, []string) {
	if !c.Online {
		return 0, []string{"offline"}
	}
	if c.AtCapacity() {
		return 0, []string{"at capacity"}
	}

	var score float64
	var reasons []string

	if c.Specializes(req.WasteType) {
		score += m.SpecializationBonus
		reasons = append(reasons, "specializes")
	} else {
		score -= m.SpecializationPenalty
		reasons = append(reasons, "does not specialize")
	}

	score += c.Rating * m.RatingWeight
	if c.Rating >= m.HighRatingThreshold {
		reasons = append(reasons, "highly rated")
	}

	if c.ResponseTimeMin <= m.FastResponseMin {
		score += m.FastResponseBonus
		reasons = append(reasons, "fast response")
	} else if c.ResponseTimeMin > m.SlowResponseMin {
		score -= m.SlowResponsePenalty
		reasons = append(reasons, "slow response")
	}

	ratio := c.LoadRatio()
	if ratio <= m.LowLoadRatio {
		score += m.LowLoadBonus
		reasons = append(reasons, "low workload")
	} else if ratio >= m.HighLoadRatio {
		score -= m.HighLoadPenalty
		reasons = append(reasons, "high workload")
	}

	if req.Urgency == model.UrgencyEmergency && c.ResponseTimeMin <= m.EmergencyResponseMin {
		score += m.EmergencyBonus
		reasons = append(reasons, "emergency-ready")
	}

	if score < 0 {
		score = 0
	}
	return score, reasons
}

// Rank scores every collector against the request, drops those beyond the
// matching radius or with a zero score, and sorts the rest by score
// descending with ascending distance as the tie breaker.
func (m *Matcher) Rank(req model.ServiceRequest, roster []model.Collector) []model.MatchResult {
	var results []model.MatchResult
	for _, c := range roster {
		dist := geo.HaversineKm(c.Location.Coordinates, req.Location.Coordinates)
		if dist > m.RangeKm {
			continue
		}
		score, reasons := m.Score(req, c)
		if score <= 0 {
			continue
		}
		results = append(results, model.MatchResult{
			Collector:     c,
			DistanceKm:    dist,
			EstimatedTime: m.est.TravelTimeMin(c.Location.Coordinates, req.Location.Coordinates, geo.ModelTimeOfDay),
			Score:         score,
			Reasons:       reasons,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DistanceKm < results[j].DistanceKm
	})
	return results
}
