package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all HTTP handlers for the dashboard.
func (a *App) registerRoutes() {
	// API routes
	a.Mux.HandleFunc("/api/fleet", a.handleFleet)
	a.Mux.HandleFunc("/api/missions", a.handleMissions)
	a.Mux.HandleFunc("/api/missions/schedule", a.handleSchedule)
	a.Mux.HandleFunc("/api/missions/start", a.handleStart)
	a.Mux.HandleFunc("/api/results", a.handleResults)

	// live event stream + metrics
	a.Mux.HandleFunc("/ws", a.handleWS)
	a.Mux.Handle("/metrics", promhttp.Handler())
}

// methodGuard rejects anything but the given method.
func methodGuard(method string, w http.ResponseWriter, r *http.Request) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
