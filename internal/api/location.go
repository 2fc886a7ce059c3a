package api

import (
	"sort"
	"sync"
	"time"

	"fleetassign/internal/model"
)

// VehicleLocation is the latest reported position of a fleet vehicle.
type VehicleLocation struct {
	VehicleID string           `json:"vehicleId"`
	Coord     model.Coordinate `json:"coord"`
	Speed     float64          `json:"speedKmh,omitempty"`
	TS        time.Time        `json:"ts"`
}

// FleetLocations stores the latest position per vehicle, fed by the
// websocket ingest stream.
type FleetLocations struct {
	mu sync.Mutex
	m  map[string]VehicleLocation
}

func NewFleetLocations() *FleetLocations {
	return &FleetLocations{m: map[string]VehicleLocation{}}
}

// Upsert keeps the newest report per vehicle; stale out-of-order
// reports are dropped.
func (c *FleetLocations) Upsert(loc VehicleLocation) bool {
	if loc.VehicleID == "" || loc.Coord.Validate() != nil {
		return false
	}
	if loc.TS.IsZero() {
		loc.TS = time.Now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.m[loc.VehicleID]; ok && loc.TS.Before(prev.TS) {
		return false
	}
	c.m[loc.VehicleID] = loc
	return true
}

// Get returns the latest location for one vehicle.
func (c *FleetLocations) Get(vehicleID string) (VehicleLocation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	loc, ok := c.m[vehicleID]
	return loc, ok
}

// List returns all known locations sorted by vehicle id.
func (c *FleetLocations) List() []VehicleLocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]VehicleLocation, 0, len(c.m))
	for _, v := range c.m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out
}

// Apply overwrites vehicle positions with fresher stream reports so
// scoring sees live coordinates rather than the caller's snapshot.
func (c *FleetLocations) Apply(vehicles []*model.Vehicle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range vehicles {
		if loc, ok := c.m[v.ID]; ok {
			v.CurrentLocation = loc.Coord
		}
	}
}
