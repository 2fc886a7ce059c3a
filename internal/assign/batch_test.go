package assign

import (
	"context"
	"testing"
	"time"

	"fleetassign/internal/config"
	"fleetassign/internal/model"
	"fleetassign/internal/scoring"
)

func newTestAssigner(t *testing.T) *Assigner {
	t.Helper()
	e, err := scoring.NewEngine(config.DefaultWeights(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewAssigner(e, config.Default())
}

func batchOrder(id string, lat, lon float64) *model.Order {
	loc := model.Coordinate{Lat: lat, Lon: lon}
	return &model.Order{
		ID:               id,
		DeliveryLocation: &loc,
		Deadline:         time.Now().Add(3 * time.Hour),
		Priority:         model.PriorityMedium,
	}
}

func batchVehicle(id string, lat, lon float64, maxCap int) *model.Vehicle {
	return &model.Vehicle{
		ID:              id,
		CurrentLocation: model.Coordinate{Lat: lat, Lon: lon},
		MaxCapacity:     maxCap,
		Status:          model.VehicleAvailable,
		SuccessRate:     0.95,
		TotalDeliveries: 80,
	}
}

func TestAssignBatchCapacityExhaustion(t *testing.T) {
	a := newTestAssigner(t)
	orders := []*model.Order{
		batchOrder("o1", -34.905, -56.165),
		batchOrder("o2", -34.906, -56.166),
		batchOrder("o3", -34.907, -56.167),
		batchOrder("o4", -34.908, -56.168),
		batchOrder("o5", -34.909, -56.169),
	}
	fleet := []*model.Vehicle{batchVehicle("v1", -34.905, -56.165, 2)}

	res, working, err := a.AssignBatch(context.Background(), orders, fleet, Options{})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.Assigned != 2 || res.Unassigned != 3 {
		t.Fatalf("assigned=%d unassigned=%d want 2/3", res.Assigned, res.Unassigned)
	}
	if res.Assigned+res.Unassigned != len(orders) {
		t.Fatal("totals do not cover every order")
	}
	for _, r := range res.Results {
		if r.AssignedVehicleID == "" && len(r.Reasons) == 0 {
			t.Fatalf("unassigned order %s has no reasons", r.OrderID)
		}
	}
	if working[0].CurrentLoad != 2 || len(working[0].CurrentOrders) != 2 {
		t.Fatalf("working copy load=%d orders=%d want 2/2",
			working[0].CurrentLoad, len(working[0].CurrentOrders))
	}
}

func TestAssignBatchDoesNotMutateCallerVehicles(t *testing.T) {
	a := newTestAssigner(t)
	v := batchVehicle("v1", -34.905, -56.165, 5)
	_, _, err := a.AssignBatch(context.Background(),
		[]*model.Order{batchOrder("o1", -34.905, -56.165)},
		[]*model.Vehicle{v}, Options{})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if v.CurrentLoad != 0 || len(v.CurrentOrders) != 0 {
		t.Fatalf("caller vehicle mutated: load=%d orders=%d", v.CurrentLoad, len(v.CurrentOrders))
	}
}

func TestAssignBatchSequentialCommits(t *testing.T) {
	a := newTestAssigner(t)
	// Two identical orders, two vehicles: the first order loads the
	// nearer vehicle, so the second must see that load.
	orders := []*model.Order{
		batchOrder("o1", -34.905, -56.165),
		batchOrder("o2", -34.905, -56.165),
	}
	fleet := []*model.Vehicle{
		batchVehicle("near", -34.905, -56.165, 1),
		batchVehicle("backup", -34.906, -56.166, 1),
	}
	res, _, err := a.AssignBatch(context.Background(), orders, fleet, Options{})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.Assigned != 2 {
		t.Fatalf("assigned=%d want 2", res.Assigned)
	}
	if res.Results[0].AssignedVehicleID == res.Results[1].AssignedVehicleID {
		t.Fatalf("both orders went to %s despite capacity 1", res.Results[0].AssignedVehicleID)
	}
}

func TestAssignBatchFastModeSkipsFarVehicles(t *testing.T) {
	a := newTestAssigner(t)
	// Order in the south-east cell; one vehicle in the same cell, one
	// in the far west cell (not adjacent to SUR_ESTE).
	order := batchOrder("o1", -34.915, -56.12)
	sameCell := batchVehicle("close", -34.916, -56.121, 5)
	farCell := batchVehicle("far", -34.85, -56.21, 5)

	res, _, err := a.AssignBatch(context.Background(),
		[]*model.Order{order}, []*model.Vehicle{farCell, sameCell},
		Options{FastMode: true})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.Assigned != 1 {
		t.Fatalf("assigned=%d want 1", res.Assigned)
	}
	if res.Results[0].AssignedVehicleID != "close" {
		t.Fatalf("fast mode picked %s want close", res.Results[0].AssignedVehicleID)
	}
}

func TestAssignBatchFastModeFallsBackWhenCellEmpty(t *testing.T) {
	a := newTestAssigner(t)
	// Order in the east cell; the only idle vehicle sits in the west
	// cell, which is not adjacent. The geographic cut must widen to the
	// whole fleet rather than strand the order.
	res, _, err := a.AssignBatch(context.Background(),
		[]*model.Order{batchOrder("o1", -34.85, -56.12)},
		[]*model.Vehicle{batchVehicle("west", -34.86, -56.21, 5)},
		Options{FastMode: true})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.Assigned != 1 {
		t.Fatalf("assigned=%d want 1 via full-fleet fallback", res.Assigned)
	}
	if res.Results[0].AssignedVehicleID != "west" {
		t.Fatalf("picked %s want west", res.Results[0].AssignedVehicleID)
	}
}

func TestAssignBatchMinScoreLeavesOrderUnassigned(t *testing.T) {
	a := newTestAssigner(t)
	res, _, err := a.AssignBatch(context.Background(),
		[]*model.Order{batchOrder("o1", -34.905, -56.165)},
		[]*model.Vehicle{batchVehicle("v1", -34.906, -56.166, 5)},
		Options{MinScore: 1.01})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.Assigned != 0 || res.Unassigned != 1 {
		t.Fatalf("assigned=%d want 0 under impossible threshold", res.Assigned)
	}
	if res.Results[0].Score <= 0 {
		t.Fatal("result should still carry the best score")
	}
}

func TestAssignBatchCancelled(t *testing.T) {
	a := newTestAssigner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := a.AssignBatch(ctx,
		[]*model.Order{batchOrder("o1", -34.905, -56.165)},
		[]*model.Vehicle{batchVehicle("v1", -34.906, -56.166, 5)}, Options{})
	if err == nil {
		t.Fatal("cancelled context did not stop the batch")
	}
}

func TestGridBuckets(t *testing.T) {
	g := NewGrid(config.DefaultGrid())
	cases := []struct {
		lat, lon float64
		want     Bucket
	}{
		{-34.90, -56.18, BucketCentro},
		{-34.85, -56.12, BucketEste},
		{-34.86, -56.21, BucketOeste},
		{-34.82, -56.18, BucketNorte},
		{-34.915, -56.12, BucketSurEste},
		{-34.915, -56.20, BucketSurOeste},
		{-30.0, -50.0, BucketOutside},
	}
	for _, c := range cases {
		if got := g.BucketFor(model.Coordinate{Lat: c.lat, Lon: c.lon}); got != c.want {
			t.Fatalf("bucket(%v,%v)=%s want %s", c.lat, c.lon, got, c.want)
		}
	}
}

func TestGridAdjacency(t *testing.T) {
	g := NewGrid(config.DefaultGrid())
	if !g.Near(BucketCentro, BucketSurOeste) {
		t.Fatal("centro not near sur_oeste")
	}
	if g.Near(BucketEste, BucketOeste) {
		t.Fatal("opposite cells reported near")
	}
	if !g.Near(BucketOutside, BucketEste) {
		t.Fatal("out-of-bounds point must match every bucket")
	}
	if !g.Near(BucketNorte, BucketNorte) {
		t.Fatal("bucket not near itself")
	}
}
