// Package opt orders a vehicle's delivery stops so deadlines hold and
// travel stays short. It runs a cheap construction pass plus local
// search under a strict time budget; when no feasible tour is found it
// falls back to deadline order.
package opt

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"fleetassign/internal/model"
)

// travel speed for straight-line stop-to-stop estimates, km/h.
const speedKmh = 25.0

type stop struct {
	orderID     string
	coord       model.Coordinate
	windowEnd   float64 // minutes from now, clamped to >= 1
	deadlineMin float64 // unclamped, may be negative; drives the fallback sort
	serviceMin  float64
}

// Result is an optimized visiting sequence with its travel totals.
type Result struct {
	Sequence     []string `json:"sequence"`
	TotalKm      float64  `json:"totalKm"`
	TotalMinutes float64  `json:"totalMinutes"`
	Feasible     bool     `json:"feasible"`
	Fallback     bool     `json:"fallback"`
}

// OptimizeSequence orders newOrders plus the vehicle's current orders
// into one delivery sequence starting at the vehicle's position.
func OptimizeSequence(ctx context.Context, v *model.Vehicle, newOrders []*model.Order, budget time.Duration) (Result, error) {
	now := time.Now()
	stops := collectStops(now, v, newOrders)
	switch len(stops) {
	case 0:
		return Result{Sequence: []string{}, Feasible: true}, nil
	case 1:
		km := model.HaversineKm(v.CurrentLocation, stops[0].coord)
		minutes := km/speedKmh*60 + stops[0].serviceMin
		return Result{
			Sequence:     []string{stops[0].orderID},
			TotalKm:      km,
			TotalMinutes: minutes,
			Feasible:     minutes-stops[0].serviceMin <= stops[0].windowEnd,
		}, nil
	}

	m := buildMatrix(ctx, v.CurrentLocation, stops)

	tour := cheapestInsertionSeed(m, stops)
	if !feasibleTour(m, stops, tour) {
		// Repair by deadline order before searching; local moves only
		// ever accept feasible tours.
		if alt := deadlineOrder(stops); feasibleTour(m, stops, alt) {
			tour = alt
		}
	}
	tour = localSearch(ctx, m, stops, tour, budget)

	if !feasibleTour(m, stops, tour) {
		// Deadline order is the predictable last resort.
		tour = deadlineOrder(stops)
		res := summarize(m, stops, tour)
		res.Fallback = true
		return res, nil
	}
	return summarize(m, stops, tour), nil
}

func collectStops(now time.Time, v *model.Vehicle, newOrders []*model.Order) []stop {
	var stops []stop
	add := func(o *model.Order) {
		if o == nil || o.DeliveryLocation == nil {
			return
		}
		deadline := o.MinutesUntilDeadline(now)
		window := deadline
		if window < 1 {
			window = 1
		}
		svc := o.ServiceMinutes
		if svc <= 0 {
			svc = model.ServiceTimeMinutes
		}
		stops = append(stops, stop{
			orderID:     o.ID,
			coord:       *o.DeliveryLocation,
			windowEnd:   window,
			deadlineMin: deadline,
			serviceMin:  svc,
		})
	}
	for _, o := range v.CurrentOrders {
		add(o)
	}
	for _, o := range newOrders {
		add(o)
	}
	return stops
}

// matrix holds minutes and km between depot (index 0) and stops
// (indices 1..n).
type matrix struct {
	minutes [][]float64
	km      [][]float64
}

func buildMatrix(ctx context.Context, origin model.Coordinate, stops []stop) matrix {
	n := len(stops) + 1
	coords := make([]model.Coordinate, n)
	coords[0] = origin
	for i, s := range stops {
		coords[i+1] = s.coord
	}
	m := matrix{minutes: make([][]float64, n), km: make([][]float64, n)}
	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		m.minutes[i] = make([]float64, n)
		m.km[i] = make([]float64, n)
		g.Go(func() error {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				d := model.HaversineKm(coords[i], coords[j])
				m.km[i][j] = d
				m.minutes[i][j] = d / speedKmh * 60
			}
			return nil
		})
	}
	_ = g.Wait()
	return m
}

// cheapestInsertionSeed grows the tour one stop at a time, always
// placing the cheapest (stop, position) pair next.
func cheapestInsertionSeed(m matrix, stops []stop) []int {
	n := len(stops)
	remaining := make(map[int]bool, n)
	for i := 1; i <= n; i++ {
		remaining[i] = true
	}

	// Start with the stop nearest the vehicle.
	first, bestD := 0, -1.0
	for i := range remaining {
		if bestD < 0 || m.minutes[0][i] < bestD {
			first, bestD = i, m.minutes[0][i]
		}
	}
	tour := []int{first}
	delete(remaining, first)

	for len(remaining) > 0 {
		bestStop, bestPos, bestCost := 0, 0, -1.0
		for s := range remaining {
			for pos := 0; pos <= len(tour); pos++ {
				c := insertionCost(m, tour, s, pos)
				if bestCost < 0 || c < bestCost {
					bestStop, bestPos, bestCost = s, pos, c
				}
			}
		}
		tour = append(tour, 0)
		copy(tour[bestPos+1:], tour[bestPos:])
		tour[bestPos] = bestStop
		delete(remaining, bestStop)
	}
	return tour
}

func insertionCost(m matrix, tour []int, s, pos int) float64 {
	prev := 0
	if pos > 0 {
		prev = tour[pos-1]
	}
	if pos == len(tour) {
		return m.minutes[prev][s]
	}
	next := tour[pos]
	return m.minutes[prev][s] + m.minutes[s][next] - m.minutes[prev][next]
}

// feasibleTour propagates the schedule and checks every window.
func feasibleTour(m matrix, stops []stop, tour []int) bool {
	t := 0.0
	prev := 0
	for _, idx := range tour {
		t += m.minutes[prev][idx]
		if t > stops[idx-1].windowEnd {
			return false
		}
		t += stops[idx-1].serviceMin
		prev = idx
	}
	return true
}

func tourMinutes(m matrix, stops []stop, tour []int) float64 {
	t := 0.0
	prev := 0
	for _, idx := range tour {
		t += m.minutes[prev][idx] + stops[idx-1].serviceMin
		prev = idx
	}
	return t
}

func deadlineOrder(stops []stop) []int {
	tour := make([]int, len(stops))
	for i := range tour {
		tour[i] = i + 1
	}
	sort.SliceStable(tour, func(a, b int) bool {
		return stops[tour[a]-1].deadlineMin < stops[tour[b]-1].deadlineMin
	})
	return tour
}

func summarize(m matrix, stops []stop, tour []int) Result {
	res := Result{
		Sequence: make([]string, len(tour)),
		Feasible: feasibleTour(m, stops, tour),
	}
	prev := 0
	for i, idx := range tour {
		res.Sequence[i] = stops[idx-1].orderID
		res.TotalKm += m.km[prev][idx]
		res.TotalMinutes += m.minutes[prev][idx] + stops[idx-1].serviceMin
		prev = idx
	}
	return res
}
