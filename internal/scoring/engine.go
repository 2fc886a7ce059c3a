// Package scoring evaluates how well a vehicle suits a delivery order.
// Every evaluation yields an auditable score record: the weighted
// composite, each sub-score, and plain-text reasoning.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"fleetassign/internal/config"
	"fleetassign/internal/metrics"
	"fleetassign/internal/model"
)

// simulation speed for beeline feasibility checks, km/h.
const simSpeedKmh = 25.0

// Estimator supplies leg travel times for the feasibility simulation.
// The router implements it over the road graph; tests use fixed times.
type Estimator interface {
	TravelMinutes(ctx context.Context, from, to model.Coordinate) (float64, error)
}

// BeelineEstimator is the graph-free estimator.
type BeelineEstimator struct{}

func (BeelineEstimator) TravelMinutes(_ context.Context, from, to model.Coordinate) (float64, error) {
	return model.BeelineMinutes(from, to, simSpeedKmh), nil
}

// Engine scores vehicles against orders with configured weights.
type Engine struct {
	weights config.ScoringWeights
	est     Estimator
	now     func() time.Time
}

func NewEngine(weights config.ScoringWeights, est Estimator) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if est == nil {
		est = BeelineEstimator{}
	}
	return &Engine{weights: weights, est: est, now: time.Now}, nil
}

// Score evaluates one vehicle/order pair. The zero-total outcomes
// (no capacity, infeasible route) are valid results, not errors.
func (e *Engine) Score(ctx context.Context, v *model.Vehicle, o *model.Order) (model.AssignmentScore, error) {
	now := e.now()
	s := model.AssignmentScore{
		AvailableCapacity:        v.AvailableCapacity(),
		TimeUntilDeadlineMinutes: o.MinutesUntilDeadline(now),
	}

	if v.AvailableCapacity() <= 0 || !v.IsAvailable() {
		s.Reasoning = append(s.Reasoning, fmt.Sprintf("vehicle %s has no capacity available", v.ID))
		metrics.ScoringEvaluations.WithLabelValues("no_capacity").Inc()
		return s, nil
	}

	if o.DeliveryLocation == nil {
		return s, fmt.Errorf("order %s has no delivery location", o.ID)
	}
	dest := *o.DeliveryLocation

	// The distance criterion is straight-line; the road network only
	// shapes travel times in the simulation below.
	dKm := model.HaversineKm(v.CurrentLocation, dest)
	s.DistanceToDeliveryKm = dKm
	s.DistanceScore = distanceScore(dKm)
	s.CapacityScore = float64(v.AvailableCapacity()) / float64(v.MaxCapacity)

	arrival, feasible, delayed := e.simulateRoute(ctx, now, v, o)
	s.EstimatedArrival = arrival
	if !feasible {
		s.Reasoning = append(s.Reasoning,
			fmt.Sprintf("adding order %s would delay existing deliveries past their deadlines (first miss: %s)", o.ID, delayed))
		metrics.ScoringEvaluations.WithLabelValues("infeasible").Inc()
		return model.AssignmentScore{
			AvailableCapacity:        s.AvailableCapacity,
			TimeUntilDeadlineMinutes: s.TimeUntilDeadlineMinutes,
			EstimatedArrival:         arrival,
			Reasoning:                s.Reasoning,
		}, nil
	}

	s.InterferenceScore = interferenceScore(v, dest)
	// On-time means the stop is finished by the deadline: travel plus
	// the on-site service, not travel alone.
	completion := arrival.Add(minutes(serviceMinutes(o)))
	s.WillArriveOnTime = !completion.After(o.Deadline)
	s.TimeUrgencyScore = timeUrgencyScore(o, completion)
	s.RouteCompatibilityScore = compatibilityScore(v, dest)
	s.PerformanceScore = performanceScore(v)

	w := e.weights
	total := s.DistanceScore*w.Distance +
		s.CapacityScore*w.Capacity +
		s.TimeUrgencyScore*w.TimeUrgency +
		s.RouteCompatibilityScore*w.RouteCompat +
		s.PerformanceScore*w.Performance +
		s.InterferenceScore*w.Interference
	if !s.WillArriveOnTime {
		total *= 0.3
		s.Reasoning = append(s.Reasoning, "estimated arrival misses the deadline")
	}
	s.TotalScore = clamp01(total)

	s.Reasoning = append(s.Reasoning,
		fmt.Sprintf("%.1f km to delivery (distance score %.2f)", dKm, s.DistanceScore),
		fmt.Sprintf("%d of %d slots free", v.AvailableCapacity(), v.MaxCapacity),
		fmt.Sprintf("%.0f min until deadline (urgency score %.2f)", s.TimeUntilDeadlineMinutes, s.TimeUrgencyScore),
		fmt.Sprintf("route interference score %.2f with %d current orders", s.InterferenceScore, len(v.CurrentOrders)),
	)
	metrics.ScoringEvaluations.WithLabelValues("scored").Inc()
	return s, nil
}

// distanceScore maps km to (0,1]: 1.0 at the door, ~0.17 at 20km+.
func distanceScore(dKm float64) float64 {
	return 1 / (1 + math.Min(dKm/20, 1)*5)
}

// quickDistanceScore is the cheaper curve used by fast-mode pre-ranking.
func quickDistanceScore(dKm float64) float64 {
	return 1 / (1 + dKm/20)
}

// travelMinutes asks the estimator for a leg time, degrading to the
// straight-line figure when it cannot answer.
func (e *Engine) travelMinutes(ctx context.Context, from, to model.Coordinate) float64 {
	m, err := e.est.TravelMinutes(ctx, from, to)
	if err != nil || m < 0 {
		return model.BeelineMinutes(from, to, simSpeedKmh)
	}
	return m
}

// simulateRoute walks the vehicle through its existing orders then the
// candidate, using estimator travel times plus fixed service time per
// stop. Returns the candidate's arrival, whether every existing
// deadline still holds, and the first missed order id when one does not.
func (e *Engine) simulateRoute(ctx context.Context, now time.Time, v *model.Vehicle, cand *model.Order) (arrival time.Time, feasible bool, delayedID string) {
	pos := v.CurrentLocation
	t := now
	for _, o := range v.CurrentOrders {
		if o.DeliveryLocation == nil {
			continue
		}
		t = t.Add(minutes(e.travelMinutes(ctx, pos, *o.DeliveryLocation)))
		if t.After(o.Deadline) {
			return t, false, o.ID
		}
		t = t.Add(minutes(serviceMinutes(o)))
		pos = *o.DeliveryLocation
	}
	t = t.Add(minutes(e.travelMinutes(ctx, pos, *cand.DeliveryLocation)))
	return t, true, ""
}

func serviceMinutes(o *model.Order) float64 {
	if o.ServiceMinutes > 0 {
		return o.ServiceMinutes
	}
	return model.ServiceTimeMinutes
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

// interferenceScore measures how much a detour to dest disturbs the
// vehicle's current route. Only insertion at the start or end of the
// existing sequence is evaluated; mid-route insertions are handled by
// the sequence optimizer afterwards.
func interferenceScore(v *model.Vehicle, dest model.Coordinate) float64 {
	stops := deliveryStops(v)
	if len(stops) == 0 {
		return 1.0
	}

	// With a long tail of orders only the three nearest stops matter
	// for the proximity check; insertion still happens at the route's
	// actual ends.
	considered := stops
	if len(stops) > 5 {
		considered = append([]model.Coordinate(nil), stops...)
		sort.Slice(considered, func(i, j int) bool {
			return model.HaversineKm(dest, considered[i]) < model.HaversineKm(dest, considered[j])
		})
		considered = considered[:3]
	}

	minKm := math.Inf(1)
	for _, s := range considered {
		if d := model.HaversineKm(dest, s); d < minKm {
			minKm = d
		}
	}
	if minKm > 10 {
		return 0.95
	}

	// Added minutes for the better of prepend / append, each carrying
	// the stop's service time.
	first, last := stops[0], stops[len(stops)-1]
	prepend := model.BeelineMinutes(v.CurrentLocation, dest, simSpeedKmh) +
		model.BeelineMinutes(dest, first, simSpeedKmh) +
		model.ServiceTimeMinutes
	appendT := model.BeelineMinutes(last, dest, simSpeedKmh) + model.ServiceTimeMinutes
	added := math.Min(prepend, appendT)

	switch {
	case added <= 5:
		return 1.0
	case added <= 15:
		return 1 - added/30
	case added <= 30:
		return 0.5 - (added-15)/60
	default:
		return math.Max(0, 0.3-(added-30)/120)
	}
}

func deliveryStops(v *model.Vehicle) []model.Coordinate {
	var out []model.Coordinate
	for _, o := range v.CurrentOrders {
		if o.DeliveryLocation != nil {
			out = append(out, *o.DeliveryLocation)
		}
	}
	return out
}

// timeUrgencyScore rewards comfortable margins and punishes tight or
// missed deadlines, scaled by priority. Completion includes the
// on-site service time.
func timeUrgencyScore(o *model.Order, completion time.Time) float64 {
	base := 0.2
	if !completion.After(o.Deadline) {
		margin := o.Deadline.Sub(completion).Minutes()
		base = 0.5 + math.Min(margin/120, 1)*0.5
	}
	return math.Min(base*o.Priority.Multiplier(), 1.0)
}

// compatibilityScore buckets by the nearest existing stop.
func compatibilityScore(v *model.Vehicle, dest model.Coordinate) float64 {
	stops := deliveryStops(v)
	if len(stops) == 0 {
		return 0.5
	}
	minKm := math.Inf(1)
	for _, s := range stops {
		if d := model.HaversineKm(dest, s); d < minKm {
			minKm = d
		}
	}
	switch {
	case minKm < 2:
		return 0.9
	case minKm < 5:
		return 0.7
	case minKm < 10:
		return 0.5
	default:
		return 0.3
	}
}

func performanceScore(v *model.Vehicle) float64 {
	return 0.7*v.SuccessRate + 0.3*math.Min(float64(v.TotalDeliveries)/100, 1)
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
