package zones

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string                     `json:"type"`
	Properties map[string]json.RawMessage `json:"properties"`
	Geometry   geometry                   `json:"geometry"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// parseFeatures decodes a GeoJSON FeatureCollection into zone records.
// Any malformed geometry is an error; the caller treats it as fatal.
func parseFeatures(data []byte) ([]zoneRecord, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected root type %q", fc.Type)
	}
	records := make([]zoneRecord, 0, len(fc.Features))
	for i, f := range fc.Features {
		polys, err := parseGeometry(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		rec := zoneRecord{polygons: polys, props: flattenProps(f.Properties)}
		rec.id = firstProp(rec.props, "Codigo", "CODIGO", "id", "OBJECTID")
		if rec.id == "" {
			rec.id = strconv.Itoa(i)
		}
		rec.code = firstProp(rec.props, "Codigo", "CODIGO", "codigo")
		if rec.code == "" {
			rec.code = rec.id
		}
		rec.name = firstProp(rec.props, "name", "NAME", "nombre", "NOMBRE")
		if v := firstProp(rec.props, "Shape_Area", "SHAPE_Area", "area"); v != "" {
			if a, err := strconv.ParseFloat(v, 64); err == nil {
				rec.areaM2 = a
			}
		}
		if rec.areaM2 == 0 {
			for _, p := range polys {
				rec.areaM2 += p.approxAreaM2()
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseGeometry(g geometry) ([]preparedPolygon, error) {
	switch g.Type {
	case "Polygon":
		var rings []ring
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("polygon coordinates: %w", err)
		}
		p, err := buildPolygon(rings)
		if err != nil {
			return nil, err
		}
		return []preparedPolygon{p}, nil
	case "MultiPolygon":
		var multi [][]ring
		if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
			return nil, fmt.Errorf("multipolygon coordinates: %w", err)
		}
		polys := make([]preparedPolygon, 0, len(multi))
		for _, rings := range multi {
			p, err := buildPolygon(rings)
			if err != nil {
				return nil, err
			}
			polys = append(polys, p)
		}
		return polys, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func buildPolygon(rings []ring) (preparedPolygon, error) {
	if len(rings) == 0 {
		return preparedPolygon{}, fmt.Errorf("polygon with no rings")
	}
	for i, r := range rings {
		if len(r) < 4 {
			return preparedPolygon{}, fmt.Errorf("ring %d has %d vertices, need >= 4", i, len(r))
		}
	}
	return preparePolygon(rings[0], rings[1:]), nil
}

// flattenProps stringifies properties so callers never touch raw JSON.
func flattenProps(raw map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			out[k] = strconv.FormatFloat(f, 'f', -1, 64)
			continue
		}
		out[k] = string(v)
	}
	return out
}

func firstProp(props map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok && v != "" && v != "null" {
			return v
		}
	}
	return ""
}
