package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"fleetassign/internal/metrics"
	"fleetassign/internal/model"
)

// RouteResult is a travel estimate between two coordinates. Approximate
// is set when no road graph was available and the numbers come from a
// straight-line estimate.
type RouteResult struct {
	DistanceKm  float64  `json:"distanceKm"`
	Minutes     float64  `json:"minutes"`
	NodeCount   int      `json:"nodeCount,omitempty"`
	Approximate bool     `json:"approximate"`
	Nodes       []NodeID `json:"-"`
}

// Router answers travel queries: graph-backed when a graph can be had,
// straight-line otherwise.
type Router struct {
	store  GraphStore
	source GraphSource

	fallbackSpeedKmh float64

	mu     sync.RWMutex
	graphs map[string]*RoadGraph
	paths  map[string]Path
	sf     singleflight.Group
}

func NewRouter(store GraphStore, source GraphSource, fallbackSpeedKmh float64) *Router {
	if fallbackSpeedKmh <= 0 {
		fallbackSpeedKmh = 25
	}
	if store == nil {
		store = NewMemoryGraphStore()
	}
	return &Router{
		store:            store,
		source:           source,
		fallbackSpeedKmh: fallbackSpeedKmh,
		graphs:           make(map[string]*RoadGraph),
		paths:            make(map[string]Path),
	}
}

// GetGraph resolves an area key to a graph: memory, then store, then a
// singleflight-guarded source fetch persisted back to the store.
func (r *Router) GetGraph(ctx context.Context, areaKey string) (*RoadGraph, error) {
	r.mu.RLock()
	g, ok := r.graphs[areaKey]
	r.mu.RUnlock()
	if ok {
		metrics.GraphCache.WithLabelValues("hit").Inc()
		return g, nil
	}

	v, err, _ := r.sf.Do(areaKey, func() (any, error) {
		// Re-check under the flight; a sibling may have filled it.
		r.mu.RLock()
		g, ok := r.graphs[areaKey]
		r.mu.RUnlock()
		if ok {
			return g, nil
		}
		if g, err := r.store.LoadGraph(ctx, areaKey); err == nil {
			metrics.GraphCache.WithLabelValues("store_hit").Inc()
			r.remember(areaKey, g)
			return g, nil
		} else if !errors.Is(err, ErrGraphNotFound) {
			return nil, err
		}
		if r.source == nil {
			return nil, ErrGraphNotFound
		}
		metrics.GraphCache.WithLabelValues("miss").Inc()
		g, err := r.source.FetchGraph(ctx, areaKey)
		if err != nil {
			return nil, fmt.Errorf("fetch graph %s: %w", areaKey, err)
		}
		r.remember(areaKey, g)
		// Persist failures degrade to memory-only caching.
		_ = r.store.SaveGraph(ctx, areaKey, g)
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RoadGraph), nil
}

func (r *Router) remember(areaKey string, g *RoadGraph) {
	r.mu.Lock()
	r.graphs[areaKey] = g
	r.mu.Unlock()
}

// Route estimates travel between two coordinates on the area's graph,
// falling back to a straight-line estimate when no graph is available
// or the pair is disconnected.
func (r *Router) Route(ctx context.Context, areaKey string, from, to model.Coordinate, metric Metric) (RouteResult, error) {
	g, err := r.GetGraph(ctx, areaKey)
	if err != nil {
		if errors.Is(err, ErrGraphNotFound) {
			return r.EstimateBeeline(from, to), nil
		}
		return RouteResult{}, err
	}

	src, okA := g.NearestNode(from)
	dst, okB := g.NearestNode(to)
	if !okA || !okB {
		return r.EstimateBeeline(from, to), nil
	}

	key := pathKey(from, to, metric)
	r.mu.RLock()
	p, cached := r.paths[key]
	r.mu.RUnlock()
	if cached {
		metrics.PathCache.WithLabelValues("hit").Inc()
		return resultFromPath(p), nil
	}
	metrics.PathCache.WithLabelValues("miss").Inc()

	p, err = g.ShortestPath(src, dst, metric)
	if errors.Is(err, ErrNoPath) {
		return r.EstimateBeeline(from, to), nil
	}
	if err != nil {
		return RouteResult{}, err
	}

	r.mu.Lock()
	r.paths[key] = p
	r.mu.Unlock()
	return resultFromPath(p), nil
}

// EstimateBeeline is the graph-free estimate at the fallback speed.
func (r *Router) EstimateBeeline(from, to model.Coordinate) RouteResult {
	d := model.HaversineKm(from, to)
	return RouteResult{
		DistanceKm:  d,
		Minutes:     d / r.fallbackSpeedKmh * 60,
		Approximate: true,
	}
}

func resultFromPath(p Path) RouteResult {
	return RouteResult{
		DistanceKm: p.DistanceM / 1000,
		Minutes:    p.TravelTimeSec / 60,
		NodeCount:  len(p.Nodes),
		Nodes:      p.Nodes,
	}
}

// pathKey rounds endpoints to 5 decimals (about a meter) so nearby
// repeat queries share cache entries.
func pathKey(from, to model.Coordinate, metric Metric) string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f|%s", from.Lat, from.Lon, to.Lat, to.Lon, metric)
}
