// Package routing builds weighted road graphs and answers shortest-path
// queries on them. Graphs arrive from an external map-data source, get
// cached in memory and in a persistent store, and fall back to
// straight-line estimates when unavailable.
package routing

import (
	"math"

	"fleetassign/internal/model"
)

// NodeID identifies a graph node, matching the source's node ids.
type NodeID int64

type Node struct {
	ID    NodeID           `json:"id"`
	Coord model.Coordinate `json:"coord"`
}

// Edge is a directed arc with both weights precomputed at build time.
type Edge struct {
	To            NodeID  `json:"to"`
	LengthM       float64 `json:"lengthM"`
	TravelTimeSec float64 `json:"travelTimeSec"`
}

// RoadGraph is an adjacency-list directed graph. Read-only after
// construction, safe for concurrent queries.
type RoadGraph struct {
	Nodes map[NodeID]Node   `json:"nodes"`
	Adj   map[NodeID][]Edge `json:"adj"`

	urbanFactor float64
}

func NewRoadGraph() *RoadGraph {
	return NewRoadGraphWeighted(defaultUrbanFactor)
}

// NewRoadGraphWeighted sets the urban correction divided into every
// edge weight added with AddWay. Graphs decoded from a store never call
// AddWay, so the factor matters only at build time.
func NewRoadGraphWeighted(urbanFactor float64) *RoadGraph {
	if urbanFactor <= 0 || urbanFactor > 1 {
		urbanFactor = defaultUrbanFactor
	}
	return &RoadGraph{
		Nodes:       make(map[NodeID]Node),
		Adj:         make(map[NodeID][]Edge),
		urbanFactor: urbanFactor,
	}
}

func (g *RoadGraph) AddNode(id NodeID, c model.Coordinate) {
	g.Nodes[id] = Node{ID: id, Coord: c}
}

// AddWay adds a directed edge weighted by the road segment attributes.
// Two-way segments need a second call with endpoints swapped.
func (g *RoadGraph) AddWay(from, to NodeID, seg Segment) {
	g.Adj[from] = append(g.Adj[from], Edge{
		To:            to,
		LengthM:       seg.LengthM,
		TravelTimeSec: seg.travelTimeSec(g.urbanFactor),
	})
}

// NearestNode snaps a coordinate to the closest graph node by
// great-circle distance. ok=false on an empty graph.
func (g *RoadGraph) NearestNode(c model.Coordinate) (NodeID, bool) {
	best := NodeID(0)
	bestD := math.Inf(1)
	found := false
	for id, n := range g.Nodes {
		d := model.HaversineKm(c, n.Coord)
		if d < bestD {
			bestD, best, found = d, id, true
		}
	}
	return best, found
}

// Segment describes one road segment as delivered by the map source.
type Segment struct {
	LengthM     float64
	Highway     string
	MaxSpeedKmh float64
}

// Assumed speeds per road class, km/h.
var classSpeedKmh = map[string]float64{
	"motorway":     60,
	"trunk":        45,
	"primary":      35,
	"secondary":    28,
	"tertiary":     25,
	"residential":  22,
	"service":      15,
	"unclassified": 25,
}

const (
	defaultSpeedKmh = 30
	// Posted limits overstate achievable speed in city traffic.
	maxspeedDiscount = 0.75
	// Raw edge times understate reality (lights, stops, turns).
	defaultUrbanFactor = 0.85
)

// speedKmh picks the effective speed: discounted posted limit when
// present, else the class table, else the default.
func (s Segment) speedKmh() float64 {
	if s.MaxSpeedKmh > 0 {
		return s.MaxSpeedKmh * maxspeedDiscount
	}
	if v, ok := classSpeedKmh[s.Highway]; ok {
		return v
	}
	return defaultSpeedKmh
}

func (s Segment) travelTimeSec(urbanFactor float64) float64 {
	speed := s.speedKmh()
	if speed <= 0 || s.LengthM <= 0 {
		return 0
	}
	if urbanFactor <= 0 || urbanFactor > 1 {
		urbanFactor = defaultUrbanFactor
	}
	raw := s.LengthM / (speed / 3.6)
	return raw / urbanFactor
}
