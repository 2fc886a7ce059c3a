package assign

import (
	"fleetassign/internal/config"
	"fleetassign/internal/model"
)

// Bucket names one cell of the fast-mode geographic grid.
type Bucket string

const (
	BucketCentro   Bucket = "CENTRO"
	BucketEste     Bucket = "ESTE"
	BucketOeste    Bucket = "OESTE"
	BucketNorte    Bucket = "NORTE"
	BucketSurEste  Bucket = "SUR_ESTE"
	BucketSurOeste Bucket = "SUR_OESTE"
	BucketOutside  Bucket = "FUERA"
)

// Grid buckets coordinates into coarse named cells so the batch
// pipeline can skip vehicles on the far side of town without scoring
// them. Cell cuts come from configuration; defaults cover Montevideo.
type Grid struct {
	cfg config.GridConfig
	adj map[Bucket][]Bucket
}

func NewGrid(cfg config.GridConfig) *Grid {
	return &Grid{
		cfg: cfg,
		// The center cell touches everything; outer cells touch their
		// geographic neighbors plus the center.
		adj: map[Bucket][]Bucket{
			BucketCentro:   {BucketEste, BucketOeste, BucketNorte, BucketSurEste, BucketSurOeste},
			BucketEste:     {BucketCentro, BucketNorte, BucketSurEste},
			BucketOeste:    {BucketCentro, BucketNorte, BucketSurOeste},
			BucketNorte:    {BucketCentro, BucketEste, BucketOeste},
			BucketSurEste:  {BucketCentro, BucketEste, BucketSurOeste},
			BucketSurOeste: {BucketCentro, BucketOeste, BucketSurEste},
		},
	}
}

// BucketFor classifies a coordinate. Points outside the configured
// bounds land in FUERA, which matches every bucket.
func (g *Grid) BucketFor(c model.Coordinate) Bucket {
	if c.Lat < g.cfg.LatMin || c.Lat > g.cfg.LatMax ||
		c.Lon < g.cfg.LonMin || c.Lon > g.cfg.LonMax {
		return BucketOutside
	}
	south := c.Lat < g.cfg.LatCenter
	if south {
		if c.Lon < g.cfg.LonCenter {
			return BucketSurOeste
		}
		return BucketSurEste
	}
	switch {
	case c.Lon < g.cfg.LonWest:
		return BucketOeste
	case c.Lon > g.cfg.LonCenter:
		return BucketEste
	case c.Lat > g.cfg.LatNorth:
		return BucketNorte
	default:
		return BucketCentro
	}
}

// Near reports whether two buckets are the same, adjacent, or involve
// an out-of-bounds point (never filtered out).
func (g *Grid) Near(a, b Bucket) bool {
	if a == b || a == BucketOutside || b == BucketOutside {
		return true
	}
	for _, n := range g.adj[a] {
		if n == b {
			return true
		}
	}
	return false
}
