// Package assign runs the batch assignment pipeline: one pass over a
// list of orders against a snapshot of the fleet, committing each
// accepted assignment to the working copy so later orders see earlier
// decisions.
package assign

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleetassign/internal/config"
	"fleetassign/internal/metrics"
	"fleetassign/internal/model"
	"fleetassign/internal/scoring"
)

// Options tunes one batch run.
type Options struct {
	FastMode bool
	TopN     int
	MinScore float64
}

// OrderResult is the outcome for a single order in the batch.
type OrderResult struct {
	OrderID           string   `json:"orderId"`
	AssignedVehicleID string   `json:"assignedVehicleId,omitempty"`
	Score             float64  `json:"score"`
	ElapsedMs         float64  `json:"elapsedMs"`
	Reasons           []string `json:"reasons,omitempty"`
}

// BatchResult summarizes the whole run.
type BatchResult struct {
	BatchID    string        `json:"batchId"`
	Results    []OrderResult `json:"results"`
	Assigned   int           `json:"assigned"`
	Unassigned int           `json:"unassigned"`
	ElapsedMs  float64       `json:"elapsedMs"`
}

// Assigner wires the scoring engine and grid into the batch pipeline.
type Assigner struct {
	engine *scoring.Engine
	grid   *Grid
	cfg    config.Config
}

func NewAssigner(engine *scoring.Engine, cfg config.Config) *Assigner {
	return &Assigner{engine: engine, grid: NewGrid(cfg.Grid), cfg: cfg}
}

// AssignBatch processes orders strictly in the given sequence against
// deep copies of the vehicles. Caller state is never mutated; the
// returned vehicles reflect all committed assignments.
func (a *Assigner) AssignBatch(ctx context.Context, orders []*model.Order, vehicles []*model.Vehicle, opts Options) (BatchResult, []*model.Vehicle, error) {
	start := time.Now()
	res := BatchResult{BatchID: uuid.NewString()}

	fleet := make([]*model.Vehicle, len(vehicles))
	for i, v := range vehicles {
		fleet[i] = v.Clone()
	}

	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = a.cfg.MinAssignScore
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = a.cfg.FastTopN
	}

	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return res, fleet, err
		}
		r, err := a.assignOne(ctx, o, fleet, opts.FastMode, topN, minScore)
		if err != nil {
			return res, fleet, err
		}
		if r.AssignedVehicleID != "" {
			res.Assigned++
			metrics.Assignments.WithLabelValues("assigned").Inc()
		} else {
			res.Unassigned++
			metrics.Assignments.WithLabelValues("unassigned").Inc()
		}
		res.Results = append(res.Results, r)
	}

	res.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000
	return res, fleet, nil
}

func (a *Assigner) assignOne(ctx context.Context, o *model.Order, fleet []*model.Vehicle, fast bool, topN int, minScore float64) (OrderResult, error) {
	start := time.Now()
	out := OrderResult{OrderID: o.ID}

	candidates := fleet
	if fast {
		candidates = a.prefilter(o, fleet)
		// An emptied geographic cut falls back to the whole fleet; the
		// grid narrows candidates, it never strands an order.
		if len(candidates) == 0 {
			candidates = fleet
		}
	}

	var (
		ranked []scoring.RankedVehicle
		err    error
	)
	if fast {
		ranked, err = a.engine.RankFast(ctx, o, candidates, topN)
	} else {
		ranked, err = a.engine.Rank(ctx, o, candidates)
	}
	if err != nil {
		return out, err
	}

	out.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000
	metrics.AssignDuration.Observe(time.Since(start).Seconds())

	if len(ranked) == 0 {
		out.Reasons = []string{"no eligible vehicles"}
		return out, nil
	}
	best := ranked[0]
	out.Score = best.Score.TotalScore
	out.Reasons = best.Score.Reasoning
	if best.Score.TotalScore < minScore {
		return out, nil
	}

	commit(best.Vehicle, o)
	out.AssignedVehicleID = best.ID
	return out, nil
}

// prefilter keeps vehicles in or adjacent to the order's grid bucket
// with room for the order's slots and weight.
func (a *Assigner) prefilter(o *model.Order, fleet []*model.Vehicle) []*model.Vehicle {
	if o.DeliveryLocation == nil {
		return fleet
	}
	ob := a.grid.BucketFor(*o.DeliveryLocation)
	kg := o.TotalWeightKg()
	var out []*model.Vehicle
	for _, v := range fleet {
		if !v.IsAvailable() {
			continue
		}
		if v.MaxWeightKg > 0 && v.CurrentWeightKg+kg > v.MaxWeightKg {
			continue
		}
		if !a.grid.Near(ob, a.grid.BucketFor(v.CurrentLocation)) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// commit mutates the working-copy vehicle with the accepted order.
func commit(v *model.Vehicle, o *model.Order) {
	oc := *o
	oc.Status = model.OrderAssigned
	v.CurrentOrders = append(v.CurrentOrders, &oc)
	v.CurrentLoad++
	v.CurrentWeightKg += o.TotalWeightKg()
}
