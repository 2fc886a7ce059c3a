package zones

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"fleetassign/internal/model"
)

func squareFeature(code string, lonMin, latMin, lonMax, latMax, area float64) string {
	return fmt.Sprintf(`{"type":"Feature","properties":{"Codigo":%q,"Shape_Area":%g},
"geometry":{"type":"Polygon","coordinates":[[[%g,%g],[%g,%g],[%g,%g],[%g,%g],[%g,%g]]]}}`,
		code, area,
		lonMin, latMin, lonMax, latMin, lonMax, latMax, lonMin, latMax, lonMin, latMin)
}

func writeCollection(t *testing.T, features ...string) string {
	t.Helper()
	body := `{"type":"FeatureCollection","features":[`
	for i, f := range features {
		if i > 0 {
			body += ","
		}
		body += f
	}
	body += `]}`
	path := filepath.Join(t.TempDir(), "zones.geojson")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindZonePrefersSmallestEnclosing(t *testing.T) {
	// Zone 9 encloses zone 0. A point inside both must resolve to 0.
	outer := squareFeature("9", -56.30, -35.00, -56.00, -34.70, 9e8)
	inner := squareFeature("0", -56.20, -34.95, -56.10, -34.85, 1e7)
	path := writeCollection(t, outer, inner)

	e, err := NewEngine(path, "")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	z, ok := e.FindZone(LayerBilling, model.Coordinate{Lat: -34.90, Lon: -56.15})
	if !ok {
		t.Fatal("point inside both zones found nothing")
	}
	if z.Code != "0" {
		t.Fatalf("code=%s want 0 (smallest)", z.Code)
	}
	// A point only inside the outer zone resolves to 9.
	z, ok = e.FindZone(LayerBilling, model.Coordinate{Lat: -34.75, Lon: -56.05})
	if !ok || z.Code != "9" {
		t.Fatalf("outer-only point: ok=%v code=%s want 9", ok, z.Code)
	}
}

func TestFindZoneOutside(t *testing.T) {
	path := writeCollection(t, squareFeature("1", -56.30, -35.00, -56.00, -34.70, 1e8))
	e, err := NewEngine(path, "")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, ok := e.FindZone(LayerBilling, model.Coordinate{Lat: 0, Lon: 0}); ok {
		t.Fatal("point far outside matched a zone")
	}
}

func TestPolygonWithHole(t *testing.T) {
	feat := `{"type":"Feature","properties":{"Codigo":"h"},
"geometry":{"type":"Polygon","coordinates":[
[[-56.3,-35.0],[-56.0,-35.0],[-56.0,-34.7],[-56.3,-34.7],[-56.3,-35.0]],
[[-56.2,-34.9],[-56.1,-34.9],[-56.1,-34.8],[-56.2,-34.8],[-56.2,-34.9]]]}}`
	path := writeCollection(t, feat)
	e, err := NewEngine(path, "")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, ok := e.FindZone(LayerBilling, model.Coordinate{Lat: -34.85, Lon: -56.15}); ok {
		t.Fatal("point in hole reported inside")
	}
	if _, ok := e.FindZone(LayerBilling, model.Coordinate{Lat: -34.95, Lon: -56.15}); !ok {
		t.Fatal("point in solid part reported outside")
	}
}

func TestMultiPolygon(t *testing.T) {
	feat := `{"type":"Feature","properties":{"Codigo":"m"},
"geometry":{"type":"MultiPolygon","coordinates":[
[[[-56.3,-35.0],[-56.25,-35.0],[-56.25,-34.95],[-56.3,-34.95],[-56.3,-35.0]]],
[[[-56.1,-34.8],[-56.05,-34.8],[-56.05,-34.75],[-56.1,-34.75],[-56.1,-34.8]]]]}}`
	path := writeCollection(t, feat)
	e, err := NewEngine(path, "")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	for _, c := range []model.Coordinate{
		{Lat: -34.97, Lon: -56.28},
		{Lat: -34.77, Lon: -56.07},
	} {
		if _, ok := e.FindZone(LayerBilling, c); !ok {
			t.Fatalf("point %+v not inside multipolygon part", c)
		}
	}
}

func TestMissingFileLoadsEmptyLayer(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "absent.geojson"), "")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if e.Count(LayerBilling) != 0 {
		t.Fatalf("count=%d want 0", e.Count(LayerBilling))
	}
}

func TestMalformedGeometryIsFatal(t *testing.T) {
	feat := `{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[-56.3,-35.0],[-56.0,-35.0]]]}}`
	path := writeCollection(t, feat)
	if _, err := NewEngine(path, ""); err == nil {
		t.Fatal("degenerate ring accepted")
	}
	feat = `{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[-56.3,-35.0]}}`
	path = writeCollection(t, feat)
	if _, err := NewEngine(path, ""); err == nil {
		t.Fatal("unsupported geometry accepted")
	}
}

func TestZonesListedSmallestFirst(t *testing.T) {
	big := squareFeature("big", -56.30, -35.00, -56.00, -34.70, 9e8)
	small := squareFeature("small", -56.20, -34.95, -56.10, -34.85, 1e7)
	path := writeCollection(t, big, small)
	e, err := NewEngine(path, "")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	zs := e.Zones(LayerBilling)
	if len(zs) != 2 || zs[0].Code != "small" {
		t.Fatalf("zones=%+v want small first", zs)
	}
}
