package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSource pulls pre-extracted road data from a map-data service:
// GET {base}/{areaKey}.json returning nodes and way segments. Edge
// weights are computed locally so the configured urban factor applies.
type HTTPSource struct {
	base        string
	urbanFactor float64
	client      *http.Client
}

func NewHTTPSource(base string, urbanFactor float64) *HTTPSource {
	return &HTTPSource{
		base:        base,
		urbanFactor: urbanFactor,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type wayDocument struct {
	From        NodeID  `json:"from"`
	To          NodeID  `json:"to"`
	LengthM     float64 `json:"lengthM"`
	Highway     string  `json:"highway"`
	MaxSpeedKmh float64 `json:"maxspeedKmh"`
	OneWay      bool    `json:"oneWay"`
}

type graphDocument struct {
	Nodes []Node        `json:"nodes"`
	Ways  []wayDocument `json:"ways"`
}

func (s *HTTPSource) FetchGraph(ctx context.Context, areaKey string) (*RoadGraph, error) {
	url := fmt.Sprintf("%s/%s.json", s.base, areaKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrGraphNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("map source %s: status %d", url, resp.StatusCode)
	}
	var doc graphDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph %s: %w", areaKey, err)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("graph %s has no nodes", areaKey)
	}

	g := NewRoadGraphWeighted(s.urbanFactor)
	for _, n := range doc.Nodes {
		g.AddNode(n.ID, n.Coord)
	}
	for _, w := range doc.Ways {
		seg := Segment{LengthM: w.LengthM, Highway: w.Highway, MaxSpeedKmh: w.MaxSpeedKmh}
		g.AddWay(w.From, w.To, seg)
		if !w.OneWay {
			g.AddWay(w.To, w.From, seg)
		}
	}
	return g, nil
}
