package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fleetassign/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.BillingZonesPath = ""
	cfg.AdminZonesPath = ""
	s, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	h(rr, req)
	return rr
}

func sampleOrder(id string) map[string]any {
	return map[string]any{
		"id":               id,
		"deliveryLocation": map[string]any{"lat": -34.905, "lon": -56.165},
		"createdAt":        time.Now().Format(time.RFC3339),
		"deadline":         time.Now().Add(2 * time.Hour).Format(time.RFC3339),
		"priority":         "medium",
	}
}

func sampleVehicle(id string, lat, lon float64) map[string]any {
	return map[string]any{
		"id":              id,
		"currentLocation": map[string]any{"lat": lat, "lon": lon},
		"maxCapacity":     5,
		"currentLoad":     0,
		"successRate":     0.9,
		"totalDeliveries": 40,
	}
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestScoreHandler(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s.ScoreHandler, "/v1/score", map[string]any{
		"vehicle": sampleVehicle("v1", -34.906, -56.166),
		"order":   sampleOrder("o1"),
	})
	if rr.Code != 200 {
		t.Fatalf("score: %d body=%s", rr.Code, rr.Body.String())
	}
	var score struct {
		TotalScore float64  `json:"totalScore"`
		Reasoning  []string `json:"reasoning"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &score); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if score.TotalScore <= 0 || len(score.Reasoning) == 0 {
		t.Fatalf("score=%+v want positive with reasoning", score)
	}
}

func TestScoreHandlerRejectsBadCoordinate(t *testing.T) {
	s := newTestServer(t)
	order := sampleOrder("o1")
	order["deliveryLocation"] = map[string]any{"lat": 95.0, "lon": 0.0}
	rr := postJSON(t, s.ScoreHandler, "/v1/score", map[string]any{
		"vehicle": sampleVehicle("v1", -34.906, -56.166),
		"order":   order,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad coordinate: %d want 400", rr.Code)
	}
}

func TestRankHandler(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s.RankHandler, "/v1/rank", map[string]any{
		"order": sampleOrder("o1"),
		"vehicles": []any{
			sampleVehicle("far", -34.80, -56.30),
			sampleVehicle("near", -34.906, -56.166),
		},
	})
	if rr.Code != 200 {
		t.Fatalf("rank: %d body=%s", rr.Code, rr.Body.String())
	}
	var res struct {
		Rankings []struct {
			VehicleID string `json:"vehicleId"`
		} `json:"rankings"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Rankings) != 2 || res.Rankings[0].VehicleID != "near" {
		t.Fatalf("rankings=%+v want near first", res.Rankings)
	}
}

func TestRankHandlerDuplicateVehicles(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s.RankHandler, "/v1/rank", map[string]any{
		"order": sampleOrder("o1"),
		"vehicles": []any{
			sampleVehicle("v1", -34.906, -56.166),
			sampleVehicle("v1", -34.907, -56.167),
		},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate vehicles: %d want 400", rr.Code)
	}
}

func TestAssignHandlerThreshold(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s.AssignHandler, "/v1/assign", map[string]any{
		"order":    sampleOrder("o1"),
		"vehicles": []any{sampleVehicle("v1", -34.906, -56.166)},
	})
	if rr.Code != 200 {
		t.Fatalf("assign: %d body=%s", rr.Code, rr.Body.String())
	}
	var res struct {
		Assigned  bool   `json:"assigned"`
		VehicleID string `json:"vehicleId"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Assigned || res.VehicleID != "v1" {
		t.Fatalf("res=%+v want assigned to v1", res)
	}

	rr = postJSON(t, s.AssignHandler, "/v1/assign", map[string]any{
		"order":    sampleOrder("o2"),
		"vehicles": []any{sampleVehicle("v1", -34.906, -56.166)},
		"minScore": 1.01,
	})
	if rr.Code != 200 {
		t.Fatalf("assign over threshold: %d", rr.Code)
	}
	res = struct {
		Assigned  bool   `json:"assigned"`
		VehicleID string `json:"vehicleId"`
	}{}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Assigned {
		t.Fatal("impossible threshold still assigned")
	}
}

func TestAssignBatchHandler(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s.AssignBatchHandler, "/v1/assign-batch", map[string]any{
		"orders":   []any{sampleOrder("o1"), sampleOrder("o2"), sampleOrder("o3")},
		"vehicles": []any{sampleVehicle("v1", -34.906, -56.166)},
	})
	if rr.Code != 200 {
		t.Fatalf("batch: %d body=%s", rr.Code, rr.Body.String())
	}
	var res struct {
		Batch struct {
			BatchID    string `json:"batchId"`
			Assigned   int    `json:"assigned"`
			Unassigned int    `json:"unassigned"`
		} `json:"batch"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Batch.BatchID == "" {
		t.Fatal("batch id missing")
	}
	if res.Batch.Assigned+res.Batch.Unassigned != 3 {
		t.Fatalf("totals=%+v do not cover 3 orders", res.Batch)
	}
}

func TestOptimizeSequenceHandler(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s.OptimizeSequenceHandler, "/v1/optimize-sequence", map[string]any{
		"vehicle":  sampleVehicle("v1", -34.906, -56.166),
		"orders":   []any{sampleOrder("a"), sampleOrder("b")},
		"budgetMs": 100,
	})
	if rr.Code != 200 {
		t.Fatalf("optimize: %d body=%s", rr.Code, rr.Body.String())
	}
	var res struct {
		Result struct {
			Sequence []string `json:"sequence"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Result.Sequence) != 2 {
		t.Fatalf("sequence=%v want 2 stops", res.Result.Sequence)
	}
}

func TestZoneHandlers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "billing.geojson")
	feature := fmt.Sprintf(`{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"Codigo":"3","Shape_Area":1000},
"geometry":{"type":"Polygon","coordinates":[[[-56.30,-35.00],[-56.00,-35.00],[-56.00,-34.70],[-56.30,-34.70],[-56.30,-35.00]]]}}]}`)
	if err := os.WriteFile(path, []byte(feature), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.BillingZonesPath = path
	cfg.AdminZonesPath = ""
	s, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rr := postJSON(t, s.ZoneLookupHandler, "/v1/zones/lookup", map[string]any{"lat": -34.9, "lon": -56.16})
	if rr.Code != 200 {
		t.Fatalf("lookup: %d body=%s", rr.Code, rr.Body.String())
	}
	var res map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	billing, ok := res["flete"].(map[string]any)
	if !ok || billing["code"] != "3" {
		t.Fatalf("flete=%v want code 3", res["flete"])
	}
	if res["global"] != nil {
		t.Fatalf("global=%v want null for empty layer", res["global"])
	}

	rr = httptest.NewRecorder()
	s.ZonesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/zones?layer=flete", nil))
	if rr.Code != 200 {
		t.Fatalf("zones list: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.ZonesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/zones?layer=bogus", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bogus layer: %d want 400", rr.Code)
	}
}

func TestZoneLookupRejectsBadCoordinate(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s.ZoneLookupHandler, "/v1/zones/lookup", map[string]any{"lat": -91.0, "lon": 0.0})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad lat: %d want 400", rr.Code)
	}
}
