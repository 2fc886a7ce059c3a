package opt

import (
	"context"
	"time"
)

// localSearch improves the tour with 2-opt reversals and or-opt
// relocations until the budget runs out or a full sweep finds nothing.
// A move is taken only when it shortens the tour and keeps every
// deadline window satisfied.
func localSearch(ctx context.Context, m matrix, stops []stop, tour []int, budget time.Duration) []int {
	if len(tour) < 2 {
		return tour
	}
	if budget <= 0 {
		budget = 500 * time.Millisecond
	}
	deadline := time.Now().Add(budget)

	best := append([]int(nil), tour...)
	bestCost := tourMinutes(m, stops, best)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return best
		default:
		}
		improved := false
		if next, cost, ok := twoOptImprove(m, stops, best, bestCost); ok {
			best, bestCost, improved = next, cost, true
		}
		if next, cost, ok := orOptImprove(m, stops, best, bestCost); ok {
			best, bestCost, improved = next, cost, true
		}
		if !improved {
			break
		}
	}
	return best
}

// twoOptImprove reverses segments, first improvement wins.
func twoOptImprove(m matrix, stops []stop, tour []int, cost float64) ([]int, float64, bool) {
	n := len(tour)
	for i := 0; i < n-1; i++ {
		for k := i + 1; k < n; k++ {
			cand := twoOptSwap(tour, i, k)
			if !feasibleTour(m, stops, cand) {
				continue
			}
			if c := tourMinutes(m, stops, cand); c+1e-6 < cost {
				return cand, c, true
			}
		}
	}
	return tour, cost, false
}

func twoOptSwap(tour []int, i, k int) []int {
	out := make([]int, len(tour))
	copy(out, tour[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = tour[j]
		pos++
	}
	copy(out[pos:], tour[k+1:])
	return out
}

// orOptImprove relocates runs of 1..3 consecutive stops.
func orOptImprove(m matrix, stops []stop, tour []int, cost float64) ([]int, float64, bool) {
	n := len(tour)
	for segLen := 1; segLen <= 3 && segLen < n; segLen++ {
		for i := 0; i+segLen <= n; i++ {
			seg := append([]int(nil), tour[i:i+segLen]...)
			rest := append(append([]int(nil), tour[:i]...), tour[i+segLen:]...)
			for pos := 0; pos <= len(rest); pos++ {
				if pos == i {
					continue
				}
				cand := make([]int, 0, n)
				cand = append(cand, rest[:pos]...)
				cand = append(cand, seg...)
				cand = append(cand, rest[pos:]...)
				if !feasibleTour(m, stops, cand) {
					continue
				}
				if c := tourMinutes(m, stops, cand); c+1e-6 < cost {
					return cand, c, true
				}
			}
		}
	}
	return tour, cost, false
}
