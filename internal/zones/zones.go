// Package zones classifies coordinates against polygon layers loaded
// from GeoJSON. Layers are independent: a point may fall in a billing
// zone, an admin zone, both, or neither.
package zones

import (
	"fmt"
	"log"
	"os"
	"sort"

	"fleetassign/internal/model"
)

// Layer names the two classification layers.
type Layer string

const (
	LayerBilling Layer = "flete"
	LayerAdmin   Layer = "global"
)

type zoneRecord struct {
	id       string
	code     string
	name     string
	areaM2   float64
	props    map[string]string
	polygons []preparedPolygon
}

func (z zoneRecord) zone() model.Zone {
	return model.Zone{ID: z.id, Code: z.code, Name: z.name, AreaM2: z.areaM2, Properties: z.props}
}

// Engine holds every loaded layer. Read-only after construction, safe
// for concurrent lookups.
type Engine struct {
	layers map[Layer][]zoneRecord
}

// NewEngine loads the billing and admin layers. A missing file logs a
// warning and yields an empty layer; malformed geometry is an error.
func NewEngine(billingPath, adminPath string) (*Engine, error) {
	e := &Engine{layers: make(map[Layer][]zoneRecord)}
	for _, l := range []struct {
		layer Layer
		path  string
	}{
		{LayerBilling, billingPath},
		{LayerAdmin, adminPath},
	} {
		records, err := loadLayer(l.path)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.layer, err)
		}
		e.layers[l.layer] = records
	}
	return e, nil
}

func loadLayer(path string) ([]zoneRecord, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("zones: %s missing, layer loads empty", path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	records, err := parseFeatures(data)
	if err != nil {
		return nil, err
	}
	// Smallest zones first so nested zones win lookups over the
	// larger zones that enclose them.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].areaM2 < records[j].areaM2
	})
	return records, nil
}

// FindZone returns the first (smallest) zone of the layer containing
// the coordinate, or ok=false when none does or the layer is unknown.
func (e *Engine) FindZone(layer Layer, c model.Coordinate) (model.Zone, bool) {
	for _, rec := range e.layers[layer] {
		for _, p := range rec.polygons {
			if p.contains(c.Lon, c.Lat) {
				return rec.zone(), true
			}
		}
	}
	return model.Zone{}, false
}

// Zones lists every zone of a layer, smallest first.
func (e *Engine) Zones(layer Layer) []model.Zone {
	recs := e.layers[layer]
	out := make([]model.Zone, len(recs))
	for i, r := range recs {
		out[i] = r.zone()
	}
	return out
}

// Count reports loaded zones per layer for readiness checks.
func (e *Engine) Count(layer Layer) int { return len(e.layers[layer]) }
