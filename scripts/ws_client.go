// Package main runs a demo WebSocket client that pushes vehicle
// positions to the locations stream and prints the acks.
package main

import (
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type locationUpdate struct {
	VehicleID string  `json:"vehicleId"`
	Coord     coord   `json:"coord"`
	Speed     float64 `json:"speedKmh,omitempty"`
	TS        string  `json:"ts,omitempty"`
}

type coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/vehicles/locations/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), http.Header{})
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var ack map[string]any
			if err := c.ReadJSON(&ack); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %v", ack)
		}
	}()

	// Drive a vehicle east along the rambla.
	lat, lon := -34.9075, -56.1930
	for i := 0; i < 10; i++ {
		upd := locationUpdate{
			VehicleID: "veh_demo",
			Coord:     coord{Lat: lat, Lon: lon},
			Speed:     28,
			TS:        time.Now().UTC().Format(time.RFC3339),
		}
		if err := c.WriteJSON(upd); err != nil {
			log.Fatal(err)
		}
		lon += 0.003
		time.Sleep(300 * time.Millisecond)
	}

	_ = c.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}
