// Package fleet tracks the set of known vehicles and their liveness.
package fleet

import (
	"time"

	"FleetLink/internal/model"
)

// Update carries the fields a vehicle may report in one update message.
// Pointer fields are only applied when present.
type Update struct {
	Lat          *float64
	Lng          *float64
	Alt          *float64
	Heading      *float64
	Battery      *float64
	Status       model.VehicleStatus
	ErrorMessage string
}

// Vehicle is the ground station's model of one fleet member. It is owned by
// the Registry and only mutated from the serialized processing queue.
type Vehicle struct {
	ID   model.VehicleID
	Jobs []string

	Status       model.VehicleStatus
	Active       bool
	AssignedJob  string
	AssignedTask *model.Task

	Lat         float64
	Lng         float64
	HasPosition bool
	Battery     float64

	ErrorMessage string
	LastContact  time.Time

	listener func(v *Vehicle, old model.VehicleStatus)
}

// NewVehicle creates an active vehicle with the given capabilities.
func NewVehicle(id model.VehicleID, jobs []string, status model.VehicleStatus) *Vehicle {
	return &Vehicle{ID: id, Jobs: jobs, Status: status, Active: true}
}

// HasJob reports whether the vehicle advertises the given job type.
func (v *Vehicle) HasJob(job string) bool {
	for _, j := range v.Jobs {
		if j == job {
			return true
		}
	}
	return false
}

// Available reports whether the vehicle can be claimed by a mission.
func (v *Vehicle) Available() bool {
	return v.Active && v.AssignedJob == ""
}

// AssignJob claims the vehicle for a mission job type.
func (v *Vehicle) AssignJob(job string) { v.AssignedJob = job }

// ReleaseJob returns the vehicle to the available pool.
func (v *Vehicle) ReleaseJob() {
	v.AssignedJob = ""
	v.AssignedTask = nil
}

// SetStatusListener registers the single status observer (the mission that
// mapped this vehicle). Replaces any previous listener.
func (v *Vehicle) SetStatusListener(fn func(v *Vehicle, old model.VehicleStatus)) {
	v.listener = fn
}

// ClearStatusListener removes the status observer.
func (v *Vehicle) ClearStatusListener() { v.listener = nil }

// Apply copies reported fields onto the vehicle and notifies the status
// listener if the status changed.
func (v *Vehicle) Apply(u Update, at time.Time) {
	if u.Lat != nil && u.Lng != nil {
		v.Lat, v.Lng = *u.Lat, *u.Lng
		v.HasPosition = true
	}
	if u.Battery != nil {
		v.Battery = *u.Battery
	}
	v.ErrorMessage = u.ErrorMessage
	v.LastContact = at

	old := v.Status
	if u.Status != "" {
		v.Status = u.Status
	}
	if v.Status != old && v.listener != nil {
		v.listener(v, old)
	}
}
