package app

import "time"

// VehicleView is the JSON shape of one vehicle on the dashboard.
type VehicleView struct {
	ID           uint64    `json:"id"`
	Jobs         []string  `json:"jobs"`
	Status       string    `json:"status"`
	Active       bool      `json:"active"`
	AssignedJob  string    `json:"assignedJob,omitempty"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Battery      float64   `json:"battery"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	LastContact  time.Time `json:"lastContact"`
}

// MissionView is the JSON shape of one scheduled mission.
type MissionView struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Current bool   `json:"current"`
}

// Snapshot is a consistent view of the station, collected on the processing
// queue.
type Snapshot struct {
	Vehicles []VehicleView `json:"vehicles"`
	Missions []MissionView `json:"missions"`
	Sent     int           `json:"sent"`
	Received int           `json:"received"`
	InFlight int           `json:"inFlight"`
}
