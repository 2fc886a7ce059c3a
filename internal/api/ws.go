package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// LocationsStreamHandler handles /v1/vehicles/locations/stream: a
// websocket where trackers push position updates. Each accepted update
// is acknowledged; malformed frames get an error frame and the stream
// continues.
func (s *Server) LocationsStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	type ack struct {
		OK        bool   `json:"ok"`
		VehicleID string `json:"vehicleId,omitempty"`
		Error     string `json:"error,omitempty"`
	}

	for {
		var loc VehicleLocation
		if err := conn.ReadJSON(&loc); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("locations stream: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if !s.Locations.Upsert(loc) {
			_ = conn.WriteJSON(ack{OK: false, VehicleID: loc.VehicleID, Error: "rejected: missing id, bad coordinates, or stale timestamp"})
			continue
		}
		_ = conn.WriteJSON(ack{OK: true, VehicleID: loc.VehicleID})
	}
}

// LocationsHandler handles GET /v1/vehicles/locations.
func (s *Server) LocationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Locations.List()})
}
