package app

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"go.etcd.io/bbolt"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[app] warning: failed to write response: %v", err)
	}
}

// handleFleet returns the current vehicle table.
func (a *App) handleFleet(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(http.MethodGet, w, r) {
		return
	}
	writeJSON(w, a.Snapshot().Vehicles)
}

// handleMissions returns the mission schedule with message-layer counters.
func (a *App) handleMissions(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(http.MethodGet, w, r) {
		return
	}
	writeJSON(w, a.Snapshot())
}

// handleSchedule builds and registers the configured mission list.
func (a *App) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(http.MethodPost, w, r) {
		return
	}
	if err := a.ScheduleMissions(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStart starts the current mission with operator-supplied input data.
func (a *App) handleStart(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(http.MethodPost, w, r) {
		return
	}
	var input map[string]float64
	if r.Body != nil {
		// empty body means "use configured input"
		_ = json.NewDecoder(r.Body).Decode(&input)
	}
	if err := a.StartMission(input); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleResults returns every stored mission result, oldest first.
func (a *App) handleResults(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(http.MethodGet, w, r) {
		return
	}
	var out []json.RawMessage
	err := a.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(resultsBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			out = append(out, json.RawMessage(v))
			return nil
		})
	})
	if err != nil {
		http.Error(w, "failed to read results", http.StatusInternalServerError)
		return
	}
	writeJSON(w, out)
}

// handleWS upgrades to websocket and registers the client for event
// broadcasts.
func (a *App) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	a.mu.Lock()
	a.clients[conn] = true
	a.mu.Unlock()

	go func() {
		defer func() {
			a.mu.Lock()
			delete(a.clients, conn)
			a.mu.Unlock()
			if err := conn.Close(); err != nil {
				log.Printf("[app] warning: failed to close websocket: %v", err)
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// broadcast sends an event to all connected websocket clients.
func (a *App) broadcast(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[app] warning: failed to marshal event: %v", err)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for c := range a.clients {
		_ = c.WriteMessage(websocket.TextMessage, data)
	}
}
