package scoring

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"fleetassign/internal/model"
)

// RankedVehicle pairs a vehicle with its evaluation for one order.
type RankedVehicle struct {
	Vehicle *model.Vehicle        `json:"-"`
	ID      string                `json:"vehicleId"`
	Score   model.AssignmentScore `json:"score"`
}

// Rank scores every available vehicle concurrently and returns them
// best first. Ties break on vehicle id so results are deterministic.
func (e *Engine) Rank(ctx context.Context, o *model.Order, vehicles []*model.Vehicle) ([]RankedVehicle, error) {
	var (
		mu     sync.Mutex
		ranked []RankedVehicle
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, v := range vehicles {
		if !v.IsAvailable() {
			continue
		}
		v := v
		g.Go(func() error {
			s, err := e.Score(ctx, v, o)
			if err != nil {
				return err
			}
			mu.Lock()
			ranked = append(ranked, RankedVehicle{Vehicle: v, ID: v.ID, Score: s})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sortRanked(ranked)
	return ranked, nil
}

func sortRanked(ranked []RankedVehicle) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score.TotalScore != ranked[j].Score.TotalScore {
			return ranked[i].Score.TotalScore > ranked[j].Score.TotalScore
		}
		return ranked[i].ID < ranked[j].ID
	})
}

// FindBestVehicle returns the top-ranked vehicle when its score clears
// the threshold; ok=false means no acceptable vehicle, a valid outcome.
func (e *Engine) FindBestVehicle(ctx context.Context, o *model.Order, vehicles []*model.Vehicle, minScore float64) (RankedVehicle, bool, error) {
	ranked, err := e.Rank(ctx, o, vehicles)
	if err != nil {
		return RankedVehicle{}, false, err
	}
	if len(ranked) == 0 || ranked[0].Score.TotalScore < minScore {
		return RankedVehicle{}, false, nil
	}
	return ranked[0], true, nil
}

// quickScore is the fast-mode pre-ranking composite: cheap distance
// curve, slot ratio, and track record. No simulation, no interference.
func quickScore(v *model.Vehicle, o *model.Order) float64 {
	d := 0.0
	if o.DeliveryLocation != nil {
		d = model.HaversineKm(v.CurrentLocation, *o.DeliveryLocation)
	}
	return quickDistanceScore(d)*0.4 +
		float64(v.AvailableCapacity())/float64(v.MaxCapacity)*0.3 +
		performanceScore(v)*0.3
}

// RankFast pre-filters on capacity and weight, quick-ranks the
// survivors, then fully scores only the top N.
func (e *Engine) RankFast(ctx context.Context, o *model.Order, vehicles []*model.Vehicle, topN int) ([]RankedVehicle, error) {
	if topN < 1 {
		topN = 3
	}
	orderKg := o.TotalWeightKg()

	type quick struct {
		v *model.Vehicle
		s float64
	}
	var candidates []quick
	for _, v := range vehicles {
		if !v.IsAvailable() {
			continue
		}
		if v.MaxWeightKg > 0 && v.CurrentWeightKg+orderKg > v.MaxWeightKg {
			continue
		}
		candidates = append(candidates, quick{v: v, s: quickScore(v, o)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].s != candidates[j].s {
			return candidates[i].s > candidates[j].s
		}
		return candidates[i].v.ID < candidates[j].v.ID
	})
	n := int(math.Min(float64(topN), float64(len(candidates))))

	finalists := make([]*model.Vehicle, n)
	for i := 0; i < n; i++ {
		finalists[i] = candidates[i].v
	}
	return e.Rank(ctx, o, finalists)
}
