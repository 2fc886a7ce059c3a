package api

import (
	"net/http"
	"time"

	"fleetassign/internal/assign"
	"fleetassign/internal/buildinfo"
	"fleetassign/internal/metrics"
	"fleetassign/internal/model"
	"fleetassign/internal/opt"
	"fleetassign/internal/scoring"
	"fleetassign/internal/zones"
)

// ScoreHandler handles POST /v1/score: one vehicle against one order.
func (s *Server) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req struct {
		Vehicle *model.Vehicle `json:"vehicle"`
		Order   *model.Order   `json:"order"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid request", err.Error(), r.URL.Path)
		return
	}
	if err := validateOrder(req.Order); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid order", err.Error(), r.URL.Path)
		return
	}
	if req.Vehicle == nil {
		writeProblem(w, http.StatusBadRequest, "invalid vehicle", "vehicle is required", r.URL.Path)
		return
	}
	if err := req.Vehicle.Validate(); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid vehicle", err.Error(), r.URL.Path)
		return
	}
	score, err := s.Engine.Score(r.Context(), req.Vehicle, req.Order)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "scoring failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// RankHandler handles POST /v1/rank: every vehicle against one order.
func (s *Server) RankHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req struct {
		Order    *model.Order     `json:"order"`
		Vehicles []*model.Vehicle `json:"vehicles"`
		Fast     bool             `json:"fast,omitempty"`
		TopN     int              `json:"topN,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid request", err.Error(), r.URL.Path)
		return
	}
	if err := validateOrder(req.Order); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid order", err.Error(), r.URL.Path)
		return
	}
	if err := validateVehicles(req.Vehicles); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid vehicles", err.Error(), r.URL.Path)
		return
	}
	s.Locations.Apply(req.Vehicles)
	var (
		ranked []RankedItem
		err    error
	)
	if req.Fast {
		rs, ferr := s.Engine.RankFast(r.Context(), req.Order, req.Vehicles, req.TopN)
		ranked, err = toItems(rs), ferr
	} else {
		rs, ferr := s.Engine.Rank(r.Context(), req.Order, req.Vehicles)
		ranked, err = toItems(rs), ferr
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "ranking failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orderId": req.Order.ID, "rankings": ranked})
}

// AssignHandler handles POST /v1/assign: pick the best vehicle for one
// order, subject to the minimum score threshold.
func (s *Server) AssignHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req struct {
		Order    *model.Order     `json:"order"`
		Vehicles []*model.Vehicle `json:"vehicles"`
		MinScore float64          `json:"minScore,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid request", err.Error(), r.URL.Path)
		return
	}
	if err := validateOrder(req.Order); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid order", err.Error(), r.URL.Path)
		return
	}
	if err := validateVehicles(req.Vehicles); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid vehicles", err.Error(), r.URL.Path)
		return
	}
	minScore := req.MinScore
	if minScore <= 0 {
		minScore = s.Cfg.MinAssignScore
	}
	s.Locations.Apply(req.Vehicles)
	best, ok, err := s.Engine.FindBestVehicle(r.Context(), req.Order, req.Vehicles, minScore)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "assignment failed", err.Error(), r.URL.Path)
		return
	}
	if !ok {
		// Not finding a vehicle is a valid outcome, not an error.
		writeJSON(w, http.StatusOK, map[string]any{
			"orderId":  req.Order.ID,
			"assigned": false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orderId":   req.Order.ID,
		"assigned":  true,
		"vehicleId": best.ID,
		"score":     best.Score,
	})
}

// AssignBatchHandler handles POST /v1/assign-batch.
func (s *Server) AssignBatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req struct {
		Orders   []*model.Order   `json:"orders"`
		Vehicles []*model.Vehicle `json:"vehicles"`
		FastMode bool             `json:"fastMode,omitempty"`
		TopN     int              `json:"topN,omitempty"`
		MinScore float64          `json:"minScore,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid request", err.Error(), r.URL.Path)
		return
	}
	if err := validateOrders(req.Orders); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid orders", err.Error(), r.URL.Path)
		return
	}
	if err := validateVehicles(req.Vehicles); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid vehicles", err.Error(), r.URL.Path)
		return
	}
	s.Locations.Apply(req.Vehicles)
	res, fleet, err := s.Assigner.AssignBatch(r.Context(), req.Orders, req.Vehicles, assign.Options{
		FastMode: req.FastMode,
		TopN:     req.TopN,
		MinScore: req.MinScore,
	})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "batch failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batch":    res,
		"vehicles": fleet,
	})
}

// OptimizeSequenceHandler handles POST /v1/optimize-sequence.
func (s *Server) OptimizeSequenceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req struct {
		Vehicle  *model.Vehicle `json:"vehicle"`
		Orders   []*model.Order `json:"orders"`
		BudgetMs int            `json:"budgetMs,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid request", err.Error(), r.URL.Path)
		return
	}
	if req.Vehicle == nil {
		writeProblem(w, http.StatusBadRequest, "invalid vehicle", "vehicle is required", r.URL.Path)
		return
	}
	if err := req.Vehicle.Validate(); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid vehicle", err.Error(), r.URL.Path)
		return
	}
	budget := s.Cfg.OptimizerBudget
	if req.BudgetMs > 0 {
		budget = time.Duration(req.BudgetMs) * time.Millisecond
	}
	res, err := opt.OptimizeSequence(r.Context(), req.Vehicle, req.Orders, budget)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "optimization failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":     res,
		"efficiency": opt.Efficiency(req.Vehicle),
	})
}

// ZoneLookupHandler handles POST /v1/zones/lookup: classify a point
// against both layers.
func (s *Server) ZoneLookupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid request", err.Error(), r.URL.Path)
		return
	}
	c, err := model.NewCoordinate(req.Lat, req.Lon)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid coordinate", err.Error(), r.URL.Path)
		return
	}
	out := map[string]any{"lat": req.Lat, "lon": req.Lon}
	for _, layer := range []zones.Layer{zones.LayerBilling, zones.LayerAdmin} {
		if z, ok := s.Zones.FindZone(layer, c); ok {
			out[string(layer)] = z
			metrics.ZoneLookups.WithLabelValues(string(layer), "hit").Inc()
		} else {
			out[string(layer)] = nil
			metrics.ZoneLookups.WithLabelValues(string(layer), "miss").Inc()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// ZonesHandler handles GET /v1/zones?layer=flete|global.
func (s *Server) ZonesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	layer := zones.Layer(r.URL.Query().Get("layer"))
	if layer == "" {
		layer = zones.LayerBilling
	}
	if layer != zones.LayerBilling && layer != zones.LayerAdmin {
		writeProblem(w, http.StatusBadRequest, "invalid layer", "layer must be flete or global", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"layer": layer,
		"items": s.Zones.Zones(layer),
	})
}

// HealthHandler handles GET /healthz.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

// ReadyHandler handles GET /readyz: the service is ready once config
// and zone layers are loaded; empty layers are degraded but serving.
func (s *Server) ReadyHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"billingZones": s.Zones.Count(zones.LayerBilling),
		"adminZones":   s.Zones.Count(zones.LayerAdmin),
	})
}

// RankedItem is the wire form of one ranking entry.
type RankedItem struct {
	VehicleID string                `json:"vehicleId"`
	Score     model.AssignmentScore `json:"score"`
}

func toItems(ranked []scoring.RankedVehicle) []RankedItem {
	out := make([]RankedItem, len(ranked))
	for i, r := range ranked {
		out[i] = RankedItem{VehicleID: r.ID, Score: r.Score}
	}
	return out
}
