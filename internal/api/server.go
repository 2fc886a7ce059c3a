package api

import (
	"context"
	"log"
	"strings"

	"fleetassign/internal/assign"
	"fleetassign/internal/config"
	"fleetassign/internal/model"
	"fleetassign/internal/routing"
	"fleetassign/internal/scoring"
	"fleetassign/internal/zones"
)

// Server holds the request-handling dependencies.
type Server struct {
	Cfg       config.Config
	Engine    *scoring.Engine
	Assigner  *assign.Assigner
	Router    *routing.Router
	Zones     *zones.Engine
	Locations *FleetLocations
}

// NewServer wires the service from configuration. The graph cache
// store follows the configured backends: Postgres when DATABASE_URL is
// set, Redis when REDIS_URL is, in-memory otherwise.
func NewServer(cfg config.Config, source routing.GraphSource) (*Server, error) {
	var store routing.GraphStore
	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		pg, err := routing.NewPostgresGraphStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = pg
	case strings.TrimSpace(cfg.RedisURL) != "":
		rs, err := routing.NewRedisGraphStore(cfg.RedisURL)
		if err != nil {
			log.Printf("redis graph store unavailable, using memory: %v", err)
			store = routing.NewMemoryGraphStore()
		} else {
			store = rs
		}
	default:
		store = routing.NewMemoryGraphStore()
	}

	router := routing.NewRouter(store, source, cfg.FallbackSpeedKmh)
	engine, err := scoring.NewEngine(cfg.Weights, routerEstimator{router})
	if err != nil {
		return nil, err
	}
	ze, err := zones.NewEngine(cfg.BillingZonesPath, cfg.AdminZonesPath)
	if err != nil {
		return nil, err
	}
	return &Server{
		Cfg:       cfg,
		Engine:    engine,
		Assigner:  assign.NewAssigner(engine, cfg),
		Router:    router,
		Zones:     ze,
		Locations: NewFleetLocations(),
	}, nil
}

// routerEstimator feeds road travel times into the scoring engine's
// feasibility simulation, scoped to the default service area.
type routerEstimator struct {
	router *routing.Router
}

func (e routerEstimator) TravelMinutes(ctx context.Context, from, to model.Coordinate) (float64, error) {
	res, err := e.router.Route(ctx, DefaultAreaKey, from, to, routing.ByTime)
	if err != nil {
		return 0, err
	}
	return res.Minutes, nil
}

// DefaultAreaKey names the service area whose graph backs scoring.
const DefaultAreaKey = "montevideo"
