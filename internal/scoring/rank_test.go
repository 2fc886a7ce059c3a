package scoring

import (
	"context"
	"testing"

	"fleetassign/internal/model"
)

func TestRankOrdersBestFirst(t *testing.T) {
	e := newTestEngine(t)
	o := testOrder("o1", -34.90, -56.16, 180, model.PriorityMedium)
	vehicles := []*model.Vehicle{
		testVehicle("far", -34.80, -56.30, 5, 0),
		testVehicle("near", -34.905, -56.165, 5, 0),
		testVehicle("mid", -34.93, -56.19, 5, 0),
	}

	ranked, err := e.Rank(context.Background(), o, vehicles)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("ranked %d vehicles want 3", len(ranked))
	}
	if ranked[0].ID != "near" {
		t.Fatalf("best=%s want near", ranked[0].ID)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score.TotalScore > ranked[i-1].Score.TotalScore {
			t.Fatalf("ranking not descending at %d: %v > %v",
				i, ranked[i].Score.TotalScore, ranked[i-1].Score.TotalScore)
		}
	}
}

func TestRankSkipsUnavailable(t *testing.T) {
	e := newTestEngine(t)
	o := testOrder("o1", -34.90, -56.16, 180, model.PriorityMedium)
	busy := testVehicle("busy", -34.905, -56.165, 5, 0)
	busy.Status = model.VehicleOffline
	full := testVehicle("full", -34.905, -56.165, 2, 2)
	ok := testVehicle("ok", -34.93, -56.19, 5, 0)

	ranked, err := e.Rank(context.Background(), o, []*model.Vehicle{busy, full, ok})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(ranked) != 1 || ranked[0].ID != "ok" {
		t.Fatalf("ranked=%v want only ok", ranked)
	}
}

func TestRankDeterministicTieBreak(t *testing.T) {
	e := newTestEngine(t)
	o := testOrder("o1", -34.90, -56.16, 180, model.PriorityMedium)
	// Identical vehicles at the same spot tie on score.
	a := testVehicle("a", -34.905, -56.165, 5, 0)
	b := testVehicle("b", -34.905, -56.165, 5, 0)

	for i := 0; i < 5; i++ {
		ranked, err := e.Rank(context.Background(), o, []*model.Vehicle{b, a})
		if err != nil {
			t.Fatalf("rank: %v", err)
		}
		if ranked[0].ID != "a" {
			t.Fatalf("run %d: tie broke to %s, want a", i, ranked[0].ID)
		}
	}
}

func TestFindBestVehicleThreshold(t *testing.T) {
	e := newTestEngine(t)
	o := testOrder("o1", -34.90, -56.16, 180, model.PriorityMedium)
	near := testVehicle("near", -34.905, -56.165, 5, 0)

	best, ok, err := e.FindBestVehicle(context.Background(), o, []*model.Vehicle{near}, 0.3)
	if err != nil || !ok {
		t.Fatalf("best=%v ok=%v err=%v", best, ok, err)
	}
	if best.ID != "near" {
		t.Fatalf("best=%s want near", best.ID)
	}

	// An impossible threshold yields no vehicle, not an error.
	_, ok, err = e.FindBestVehicle(context.Background(), o, []*model.Vehicle{near}, 1.01)
	if err != nil {
		t.Fatalf("threshold miss errored: %v", err)
	}
	if ok {
		t.Fatal("threshold 1.01 accepted a vehicle")
	}
}

func TestFindBestVehicleNoCandidates(t *testing.T) {
	e := newTestEngine(t)
	o := testOrder("o1", -34.90, -56.16, 180, model.PriorityMedium)
	_, ok, err := e.FindBestVehicle(context.Background(), o, nil, 0.3)
	if err != nil || ok {
		t.Fatalf("empty fleet: ok=%v err=%v want false,nil", ok, err)
	}
}

func TestRankFastFiltersWeightAndLimits(t *testing.T) {
	e := newTestEngine(t)
	o := testOrder("o1", -34.90, -56.16, 180, model.PriorityMedium)
	o.Items = []model.OrderItem{{Name: "pallet", Quantity: 1, WeightKg: 300}}

	heavy := testVehicle("heavy", -34.905, -56.165, 5, 0)
	heavy.MaxWeightKg = 400
	heavy.CurrentWeightKg = 200 // 300 more would exceed 400

	fleet := []*model.Vehicle{heavy}
	for _, id := range []string{"v1", "v2", "v3", "v4", "v5"} {
		v := testVehicle(id, -34.91, -56.17, 5, 0)
		v.MaxWeightKg = 1000
		fleet = append(fleet, v)
	}

	ranked, err := e.RankFast(context.Background(), o, fleet, 3)
	if err != nil {
		t.Fatalf("rank fast: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("fast ranked %d want topN=3", len(ranked))
	}
	for _, r := range ranked {
		if r.ID == "heavy" {
			t.Fatal("overweight vehicle survived the pre-filter")
		}
	}
}

func TestQuickScoreFavorsProximity(t *testing.T) {
	o := testOrder("o1", -34.90, -56.16, 180, model.PriorityMedium)
	near := testVehicle("near", -34.905, -56.165, 5, 0)
	far := testVehicle("far", -34.80, -56.30, 5, 0)
	if quickScore(near, o) <= quickScore(far, o) {
		t.Fatal("quick score does not favor the nearer vehicle")
	}
}
