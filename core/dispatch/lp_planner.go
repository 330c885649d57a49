package dispatch

import (
	"github.com/takaflow/dispatch/core/model"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// FleetPlanner distributes a batch of requests across several collectors
// by solving a linear program that maximizes the total match score subject
// to each collector's free assignment slots. When the solver fails, a
// greedy score-ordered assignment is used instead.
type FleetPlanner struct {
	matcher *Matcher
	filter  CompatibilityFilter
}

// NewFleetPlanner builds a planner sharing the matching weights.
func NewFleetPlanner(matcher *Matcher, filter CompatibilityFilter) *FleetPlanner {
	return &FleetPlanner{matcher: matcher, filter: filter}
}

// lpSolve points to the function solving the assignment LP. Overridable in
// tests to simulate solver failures.
var lpSolve = solveAssignment

// solveAssignment runs the simplex algorithm over the relaxed assignment
// problem. Variables are x[i*R+j] (collector i takes request j) plus one
// slack per request so that every request row is an equality:
//
//	sum_i x[i][j] + s[j] = 1        (request served at most once)
//	sum_j x[i][j] <= slots[i]       (collector capacity)
//
// maximizing sum of score[i][j] * x[i][j].
func solveAssignment(scores [][]float64, slots []float64) ([]float64, error) {
	nC := len(slots)
	nR := 0
	if nC > 0 {
		nR = len(scores[0])
	}
	nVars := nC*nR + nR

	c := make([]float64, nVars)
	for i := 0; i < nC; i++ {
		for j := 0; j < nR; j++ {
			c[i*nR+j] = -scores[i][j]
		}
	}

	g := mat.NewDense(nC, nVars, nil)
	h := make([]float64, nC)
	for i := 0; i < nC; i++ {
		for j := 0; j < nR; j++ {
			g.Set(i, i*nR+j, 1)
		}
		h[i] = slots[i]
	}

	a := mat.NewDense(nR, nVars, nil)
	b := make([]float64, nR)
	for j := 0; j < nR; j++ {
		for i := 0; i < nC; i++ {
			a.Set(j, i*nR+j, 1)
		}
		a.Set(j, nC*nR+j, 1)
		b[j] = 1
	}

	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	return sol, err
}

// Assign solves the assignment strictly, returning the solver error when
// the LP cannot be solved. The result maps collector ids to the request
// ids they should take.
func (p *FleetPlanner) Assign(collectors []model.Collector, reqs []model.ServiceRequest) (map[string][]string, error) {
	eligible := make([]model.Collector, 0, len(collectors))
	for _, c := range collectors {
		if c.Online && !c.AtCapacity() {
			eligible = append(eligible, c)
		}
	}
	result := make(map[string][]string)
	if len(eligible) == 0 || len(reqs) == 0 {
		return result, nil
	}

	scores := make([][]float64, len(eligible))
	slots := make([]float64, len(eligible))
	for i, c := range eligible {
		slots[i] = float64(c.MaxLoad - c.CurrentLoad)
		scores[i] = make([]float64, len(reqs))
		for j, r := range reqs {
			if !p.filter.IsCompatible(c, r) {
				continue
			}
			s, _ := p.matcher.Score(r, c)
			scores[i][j] = s
		}
	}

	sol, err := lpSolve(scores, slots)
	if err != nil {
		return nil, err
	}

	nR := len(reqs)
	for j := range reqs {
		bestI := -1
		bestX := 0.5
		for i := range eligible {
			x := sol[i*nR+j]
			if x > bestX && scores[i][j] > 0 {
				bestI = i
				bestX = x
			}
		}
		if bestI >= 0 {
			id := eligible[bestI].ID
			result[id] = append(result[id], reqs[j].ID)
		}
	}
	return result, nil
}

// AssignFleet solves the LP and falls back to a greedy score-ordered
// assignment on solver failure.
func (p *FleetPlanner) AssignFleet(collectors []model.Collector, reqs []model.ServiceRequest) map[string][]string {
	res, err := p.Assign(collectors, reqs)
	if err == nil {
		return res
	}
	return p.greedyAssign(collectors, reqs)
}

type scoredPair struct {
	collectorIdx int
	requestIdx   int
	score        float64
}

// greedyAssign hands each request to the highest-scoring collector with a
// free slot, in global score order.
func (p *FleetPlanner) greedyAssign(collectors []model.Collector, reqs []model.ServiceRequest) map[string][]string {
	var pairs []scoredPair
	for i, c := range collectors {
		if !c.Online || c.AtCapacity() {
			continue
		}
		for j, r := range reqs {
			if !p.filter.IsCompatible(c, r) {
				continue
			}
			if s, _ := p.matcher.Score(r, c); s > 0 {
				pairs = append(pairs, scoredPair{collectorIdx: i, requestIdx: j, score: s})
			}
		}
	}
	for i := 1; i < len(pairs); i++ {
		key := pairs[i]
		j := i - 1
		for j >= 0 && pairs[j].score < key.score {
			pairs[j+1] = pairs[j]
			j--
		}
		pairs[j+1] = key
	}

	result := make(map[string][]string)
	usedSlots := make(map[int]int)
	takenReq := make(map[int]bool)
	for _, pr := range pairs {
		c := collectors[pr.collectorIdx]
		if takenReq[pr.requestIdx] {
			continue
		}
		if usedSlots[pr.collectorIdx] >= c.MaxLoad-c.CurrentLoad {
			continue
		}
		takenReq[pr.requestIdx] = true
		usedSlots[pr.collectorIdx]++
		result[c.ID] = append(result[c.ID], reqs[pr.requestIdx].ID)
	}
	return result
}
