package fleet

import (
	"fmt"
	"time"

	"FleetLink/internal/model"
	"FleetLink/internal/sched"
	"FleetLink/internal/util"
)

// Registry owns every vehicle the station has ever seen. Deactivated
// vehicles are retained so a returning id is recognised instead of silently
// replaced.
type Registry struct {
	clock sched.Clock
	reg   *sched.Registry
	grace time.Duration

	vehicles map[model.VehicleID]*Vehicle
	order    []model.VehicleID

	// onDeactivate fires after a vehicle is marked inactive, so the
	// orchestrator can reassign its task and notify the operator.
	onDeactivate func(v *Vehicle)
	// onViolation fires when an inactive or unknown-but-recorded vehicle
	// keeps sending messages; the orchestrator replies with a stop command.
	onViolation func(v *Vehicle)
}

// NewRegistry creates an empty fleet registry. grace is the silence interval
// after which a vehicle is declared disconnected.
func NewRegistry(clock sched.Clock, reg *sched.Registry, grace time.Duration) *Registry {
	return &Registry{
		clock:    clock,
		reg:      reg,
		grace:    grace,
		vehicles: make(map[model.VehicleID]*Vehicle),
	}
}

// SetHandlers wires the registry's outbound callbacks.
func (r *Registry) SetHandlers(onDeactivate, onViolation func(v *Vehicle)) {
	r.onDeactivate = onDeactivate
	r.onViolation = onViolation
}

func livenessKey(id model.VehicleID) string {
	return fmt.Sprintf("vehicle#%d", id)
}

// Connect registers a vehicle. An active vehicle with the same id is a
// conflict and is rejected: replacing it would orphan any in-flight task.
// A deactivated vehicle returning with the same id is reactivated fresh.
func (r *Registry) Connect(id model.VehicleID, jobs []string) (*Vehicle, error) {
	if v, ok := r.vehicles[id]; ok {
		if v.Active {
			return nil, fmt.Errorf("vehicle %d is already connected", id)
		}
		util.Info("fleet: vehicle %d returned after disconnect", id)
		v.Jobs = jobs
		v.Active = true
		v.Status = model.StatusWaiting
		v.ReleaseJob()
		v.ErrorMessage = ""
		v.LastContact = r.clock.Now()
		r.armLiveness(id)
		return v, nil
	}
	v := NewVehicle(id, jobs, model.StatusWaiting)
	v.LastContact = r.clock.Now()
	r.vehicles[id] = v
	r.order = append(r.order, id)
	r.armLiveness(id)
	return v, nil
}

// Update applies a telemetry report. Reports from unknown or inactive
// vehicles are protocol violations and do not mutate state.
func (r *Registry) Update(id model.VehicleID, u Update) {
	v, ok := r.vehicles[id]
	if !ok {
		util.Error("fleet: update from unknown vehicle %d dropped", id)
		return
	}
	if !v.Active {
		util.Error("fleet: update from deactivated vehicle %d; requesting stop", id)
		if r.onViolation != nil {
			r.onViolation(v)
		}
		return
	}
	v.Apply(u, r.clock.Now())
	r.armLiveness(id)
}

// Touch refreshes a vehicle's liveness deadline on any contact, including
// messages that carry no telemetry.
func (r *Registry) Touch(id model.VehicleID) {
	v, ok := r.vehicles[id]
	if !ok || !v.Active {
		return
	}
	v.LastContact = r.clock.Now()
	r.armLiveness(id)
}

// armLiveness (re-)arms the silence watchdog. Registration replaces the
// previous waiter, so each contact pushes the deadline out.
func (r *Registry) armLiveness(id model.VehicleID) {
	r.reg.Register(livenessKey(id), nil, r.grace, func() {
		util.Error("fleet: vehicle %d silent for %s; deactivating", id, r.grace)
		r.Deactivate(id)
	})
}

// Deactivate marks a vehicle inactive. The record is retained for id
// conflict detection. Idempotent.
func (r *Registry) Deactivate(id model.VehicleID) {
	v, ok := r.vehicles[id]
	if !ok || !v.Active {
		return
	}
	v.Active = false
	r.reg.Cancel(livenessKey(id))
	if r.onDeactivate != nil {
		r.onDeactivate(v)
	}
}

// Get returns the vehicle record for id, active or not.
func (r *Registry) Get(id model.VehicleID) (*Vehicle, bool) {
	v, ok := r.vehicles[id]
	return v, ok
}

// ActiveVehicle returns the vehicle only if it is currently active.
func (r *Registry) ActiveVehicle(id model.VehicleID) (*Vehicle, bool) {
	v, ok := r.vehicles[id]
	if !ok || !v.Active {
		return nil, false
	}
	return v, true
}

// Known reports whether id has ever connected.
func (r *Registry) Known(id model.VehicleID) bool {
	_, ok := r.vehicles[id]
	return ok
}

// Vehicles returns all records in connection order.
func (r *Registry) Vehicles() []*Vehicle {
	out := make([]*Vehicle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.vehicles[id])
	}
	return out
}
