package main

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleetassign/internal/api"
	"fleetassign/internal/config"
	"fleetassign/internal/metrics"
	"fleetassign/internal/routing"
)

func main() {
	// .env is a dev convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	metrics.RegisterDefault()

	var source routing.GraphSource
	if base := os.Getenv("MAP_DATA_URL"); base != "" {
		perSec := 0.5
		if v := os.Getenv("MAP_DATA_RPS"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				perSec = f
			}
		}
		source = routing.NewRateLimitedSource(routing.NewHTTPSource(base, cfg.UrbanFactor), perSec, 1)
	}

	srv, err := api.NewServer(cfg, source)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	mux := http.NewServeMux()

	// Scoring and assignment
	mux.HandleFunc("/v1/score", srv.ScoreHandler)
	mux.HandleFunc("/v1/rank", srv.RankHandler)
	mux.HandleFunc("/v1/assign", srv.AssignHandler)
	mux.HandleFunc("/v1/assign-batch", srv.AssignBatchHandler)

	// Sequencing
	mux.HandleFunc("/v1/optimize-sequence", srv.OptimizeSequenceHandler)

	// Zones
	mux.HandleFunc("/v1/zones", srv.ZonesHandler)
	mux.HandleFunc("/v1/zones/lookup", srv.ZoneLookupHandler)

	// Live vehicle positions
	mux.HandleFunc("/v1/vehicles/locations", srv.LocationsHandler)
	mux.HandleFunc("/v1/vehicles/locations/stream", srv.LocationsStreamHandler)

	// Health
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)

	// Metrics
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%s", cfg.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		dur := time.Since(start)
		status := strconv.Itoa(sw.code)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(dur.Seconds())
		log.Printf("%s %s %s %d %v", r.RemoteAddr, r.Method, r.URL.Path, sw.code, dur)
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
