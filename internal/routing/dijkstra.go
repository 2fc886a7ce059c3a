package routing

import (
	"container/heap"
	"errors"
	"fmt"
)

// ErrNoPath marks a disconnected origin/destination pair. Callers treat
// it as a valid outcome, not a failure.
var ErrNoPath = errors.New("no path between nodes")

// Metric selects the edge weight Dijkstra minimizes.
type Metric string

const (
	ByTime     Metric = "time"
	ByDistance Metric = "distance"
)

// Path is a shortest-path result. Both totals are filled regardless of
// the metric optimized.
type Path struct {
	Nodes         []NodeID
	DistanceM     float64
	TravelTimeSec float64
}

type pqItem struct {
	node NodeID
	cost float64
}

type priorityQueue []pqItem

func (q priorityQueue) Len() int           { return len(q) }
func (q priorityQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q priorityQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x any)        { *q = append(*q, x.(pqItem)) }
func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// ShortestPath runs Dijkstra from source to target over the directed
// adjacency lists.
func (g *RoadGraph) ShortestPath(source, target NodeID, metric Metric) (Path, error) {
	if _, ok := g.Nodes[source]; !ok {
		return Path{}, fmt.Errorf("source node %d not in graph", source)
	}
	if _, ok := g.Nodes[target]; !ok {
		return Path{}, fmt.Errorf("target node %d not in graph", target)
	}
	if source == target {
		return Path{Nodes: []NodeID{source}}, nil
	}

	dist := map[NodeID]float64{source: 0}
	prev := map[NodeID]NodeID{}
	done := map[NodeID]bool{}
	pq := &priorityQueue{{node: source}}
	heap.Init(pq)

	for pq.Len() > 0 {
		it := heap.Pop(pq).(pqItem)
		if done[it.node] {
			continue
		}
		if it.node == target {
			break
		}
		done[it.node] = true
		for _, e := range g.Adj[it.node] {
			w := e.TravelTimeSec
			if metric == ByDistance {
				w = e.LengthM
			}
			nd := dist[it.node] + w
			if cur, seen := dist[e.To]; !seen || nd < cur {
				dist[e.To] = nd
				prev[e.To] = it.node
				heap.Push(pq, pqItem{node: e.To, cost: nd})
			}
		}
	}

	if _, ok := dist[target]; !ok {
		return Path{}, ErrNoPath
	}

	var nodes []NodeID
	for at := target; ; {
		nodes = append(nodes, at)
		if at == source {
			break
		}
		at = prev[at]
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}

	p := Path{Nodes: nodes}
	for i := 0; i+1 < len(nodes); i++ {
		e, ok := g.edgeBetween(nodes[i], nodes[i+1], metric)
		if !ok {
			return Path{}, fmt.Errorf("broken path at %d->%d", nodes[i], nodes[i+1])
		}
		p.DistanceM += e.LengthM
		p.TravelTimeSec += e.TravelTimeSec
	}
	return p, nil
}

// edgeBetween finds the cheapest parallel edge for the metric used.
func (g *RoadGraph) edgeBetween(from, to NodeID, metric Metric) (Edge, bool) {
	var best Edge
	found := false
	for _, e := range g.Adj[from] {
		if e.To != to {
			continue
		}
		if !found {
			best, found = e, true
			continue
		}
		if metric == ByDistance && e.LengthM < best.LengthM {
			best = e
		} else if metric != ByDistance && e.TravelTimeSec < best.TravelTimeSec {
			best = e
		}
	}
	return best, found
}
