package dispatch

import "github.com/takaflow/dispatch/core/model"

// improveOrder applies a bounded 2-opt pass to the greedy visiting order,
// swapping segment reversals that shorten the condition-adjusted path. The
// greedy order is already close for small stop counts, so a handful of
// passes is enough.
func (p *RoutePlanner) improveOrder(start model.Coordinates, selected []prioritized, order []int, passes int) []int {
	if len(order) < 3 {
		return order
	}
	best := append([]int(nil), order...)
	bestDist := p.orderDistance(start, selected, best)
	for pass := 0; pass < passes; pass++ {
		improved := false
		for i := 0; i < len(best)-1; i++ {
			for k := i + 1; k < len(best); k++ {
				cand := twoOptSwap(best, i, k)
				d := p.orderDistance(start, selected, cand)
				if d+1e-9 < bestDist {
					best = cand
					bestDist = d
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

// twoOptSwap reverses the segment order[i..k].
func twoOptSwap(order []int, i, k int) []int {
	out := make([]int, len(order))
	copy(out, order[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = order[j]
		pos++
	}
	copy(out[pos:], order[k+1:])
	return out
}

// orderDistance totals the condition-adjusted path length of a visiting
// order starting from the route origin.
func (p *RoutePlanner) orderDistance(start model.Coordinates, selected []prioritized, order []int) float64 {
	total := 0.0
	current := start
	for _, idx := range order {
		dest := selected[idx].req.Location.Coordinates
		total += p.est.AdjustedDistanceKm(current, dest)
		current = dest
	}
	return total
}
