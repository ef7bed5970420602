// Package core composes the fleet registry, the scheduled missions and the
// message layer into the ground station control loop.
package core

import (
	"fmt"

	"FleetLink/internal/comms"
	"FleetLink/internal/fleet"
	"FleetLink/internal/mission"
	"FleetLink/internal/model"
	"FleetLink/internal/parser"
	"FleetLink/internal/util"
)

// Notifier receives one-way observations for the presentation layer. It has
// no path back into core state.
type Notifier interface {
	VehicleConnected(v *fleet.Vehicle)
	VehicleUpdated(v *fleet.Vehicle)
	VehicleDisconnected(v *fleet.Vehicle)
	MissionStatusChanged(name string, status mission.Status)
	MissionCompleted(name string, data mission.Input)
}

// nopNotifier is used until (or unless) a presentation layer attaches.
type nopNotifier struct{}

func (nopNotifier) VehicleConnected(*fleet.Vehicle)             {}
func (nopNotifier) VehicleUpdated(*fleet.Vehicle)               {}
func (nopNotifier) VehicleDisconnected(*fleet.Vehicle)          {}
func (nopNotifier) MissionStatusChanged(string, mission.Status) {}
func (nopNotifier) MissionCompleted(string, mission.Input)      {}

// Orchestrator routes inbound messages, drives mission lifecycle transitions
// and chains mission completion to the next mission in the schedule. One
// instance exists for the process lifetime; all methods run on the
// serialized processing queue.
type Orchestrator struct {
	fleet    *fleet.Registry
	msgr     *comms.Messenger
	notifier Notifier

	scheduledMissions []*mission.Engine
	currentMission    int
	isRunning         bool
}

// NewOrchestrator creates an orchestrator over the given fleet. The
// messenger is attached separately because the two reference each other.
func NewOrchestrator(reg *fleet.Registry) *Orchestrator {
	o := &Orchestrator{fleet: reg, notifier: nopNotifier{}}
	reg.SetHandlers(o.vehicleLost, o.vehicleViolation)
	return o
}

// SetMessenger attaches the message layer used for outbound commands.
func (o *Orchestrator) SetMessenger(m *comms.Messenger) { o.msgr = m }

// SetNotifier attaches the presentation-layer observer.
func (o *Orchestrator) SetNotifier(n Notifier) {
	if n == nil {
		o.notifier = nopNotifier{}
		return
	}
	o.notifier = n
}

// Fleet exposes the vehicle registry for read-only presentation use.
func (o *Orchestrator) Fleet() *fleet.Registry { return o.fleet }

// Missions returns the scheduled missions.
func (o *Orchestrator) Missions() []*mission.Engine { return o.scheduledMissions }

// IsRunning reports whether a mission is currently executing.
func (o *Orchestrator) IsRunning() bool { return o.isRunning }

// CurrentIndex returns the position of the current mission in the schedule.
func (o *Orchestrator) CurrentIndex() int { return o.currentMission }

// CreateMission constructs a mission object of the named kind, wired to this
// orchestrator's completion chain. Returns nil if the kind is unknown.
func (o *Orchestrator) CreateMission(name string) *mission.Engine {
	switch name {
	case "ISRMission":
		return mission.NewEngine(mission.NewISR(), o.endMission, o.fleet.Vehicles())
	default:
		util.Error("orchestrator: Received request to construct mission object %q, but the class is not defined", name)
		return nil
	}
}

// AddMissions schedules a list of missions. Acceptance is all-or-nothing:
// missions later in the list may depend on state established by earlier
// ones, so one bad entry rejects the lot and resets the orchestrator.
func (o *Orchestrator) AddMissions(missions []*mission.Engine) error {
	for i, e := range missions {
		if e == nil {
			o.Reset()
			return fmt.Errorf("orchestrator: mission %d is not a valid mission instance", i)
		}
		if ok, reason := e.SetupComplete(); !ok {
			o.Reset()
			return fmt.Errorf("orchestrator: mission %d (%s) setup incomplete: %s", i, e.Name(), reason)
		}
	}
	o.scheduledMissions = append(o.scheduledMissions, missions...)
	for _, e := range missions {
		e.SetAssignHandler(o.assignTask)
		e.SetStatusObserver(o.missionStatusChanged)
		if err := e.Init(); err != nil {
			o.Reset()
			return err
		}
	}
	return nil
}

// StartMission launches the current mission if it is ready.
func (o *Orchestrator) StartMission(inputData mission.Input) {
	e := o.current()
	if e == nil {
		util.Error("orchestrator: no mission scheduled")
		return
	}
	if e.Status() != mission.StatusReady {
		util.Error("orchestrator: mission %s is %s, not READY; not starting", e.Name(), e.Status())
		o.isRunning = false
		return
	}
	for id, job := range e.Mapping() {
		o.msgr.Send(id, model.StartPayload{JobType: job})
	}
	if err := e.Start(inputData); err != nil {
		util.Error("orchestrator: start %s failed: %v", e.Name(), err)
		o.isRunning = false
		return
	}
	o.isRunning = true
}

// endMission is each mission's completion callback: it advances the
// schedule, feeding the terminated data of the finished mission into the
// next one. A schedule that cannot continue resets rather than stalling.
func (o *Orchestrator) endMission(nextInputData mission.Input) {
	finished := o.current()
	if finished != nil {
		o.notifier.MissionCompleted(finished.Name(), nextInputData)
	}
	o.currentMission++
	if o.currentMission >= len(o.scheduledMissions) {
		o.Reset()
		return
	}
	o.isRunning = false
	o.StartMission(nextInputData)
	if !o.isRunning {
		o.Reset()
	}
}

// Reset returns the orchestrator to an empty, reusable state. Missions that
// never finished are aborted first so the vehicles they claimed at init go
// back to the available pool.
func (o *Orchestrator) Reset() {
	for _, e := range o.scheduledMissions {
		e.Abort()
		e.SetStatusObserver(nil)
		e.SetAssignHandler(nil)
	}
	o.scheduledMissions = nil
	o.currentMission = 0
	o.isRunning = false
}

func (o *Orchestrator) current() *mission.Engine {
	if o.currentMission >= len(o.scheduledMissions) {
		return nil
	}
	return o.scheduledMissions[o.currentMission]
}

// assignTask pushes a task assignment out to the vehicle.
func (o *Orchestrator) assignTask(v *fleet.Vehicle, job string, task model.Task) {
	o.msgr.Send(v.ID, model.AddMissionPayload{MissionInfo: parser.DetailedSearchTask(task)})
}

func (o *Orchestrator) missionStatusChanged(e *mission.Engine, old mission.Status) {
	o.notifier.MissionStatusChanged(e.Name(), e.Status())
}

// vehicleLost runs after the fleet registry deactivates a vehicle: any task
// it held is reassigned and the operator is informed.
func (o *Orchestrator) vehicleLost(v *fleet.Vehicle) {
	if e := o.current(); e != nil && e.HasVehicle(v.ID) {
		e.VehicleLost(v)
	}
	o.notifier.VehicleDisconnected(v)
}

// vehicleViolation tells a deactivated vehicle that keeps transmitting to
// stand down.
func (o *Orchestrator) vehicleViolation(v *fleet.Vehicle) {
	o.msgr.Send(v.ID, model.StopPayload{})
}

// HandleUnreachable implements comms.Handler: an ack timeout deactivates the
// vehicle, which in turn triggers task reassignment.
func (o *Orchestrator) HandleUnreachable(id model.VehicleID) {
	o.fleet.Deactivate(id)
}

// HandleMessage implements comms.Handler: dispatch of validated, deduped
// application messages.
func (o *Orchestrator) HandleMessage(env model.Envelope) {
	switch p := env.Payload.(type) {
	case model.ConnectPayload:
		o.handleConnect(env.SourceID, p)
	case model.UpdatePayload:
		o.handleUpdate(env.SourceID, p)
	case model.POIPayload:
		o.forwardToMission(env.SourceID, mission.Message{
			Kind: model.KindPOI,
			Lat:  mustFloat(p.Lat),
			Lng:  mustFloat(p.Lng),
		})
	case model.CompletePayload:
		o.forwardToMission(env.SourceID, mission.Message{Kind: model.KindComplete})
	default:
		// the messenger only forwards inbound application kinds; anything
		// else here is a routing bug
		util.Error("orchestrator: unexpected message kind %q from vehicle %d", env.Kind(), env.SourceID)
	}
}

func (o *Orchestrator) handleConnect(id model.VehicleID, p model.ConnectPayload) {
	if v, ok := o.fleet.ActiveVehicle(id); ok {
		util.Error("orchestrator: vehicle %d sent connect but is already active; not replacing (jobs %v)", id, v.Jobs)
		return
	}
	v, err := o.fleet.Connect(id, p.JobsAvailable)
	if err != nil {
		util.Error("orchestrator: connect from vehicle %d rejected: %v", id, err)
		return
	}
	o.msgr.Send(id, model.ConnectionAckPayload{})
	o.notifier.VehicleConnected(v)
}

func (o *Orchestrator) handleUpdate(id model.VehicleID, p model.UpdatePayload) {
	v, known := o.fleet.Get(id)
	if !known {
		util.Error("orchestrator: update from unknown vehicle %d dropped", id)
		return
	}
	if !v.Active {
		o.msgr.Send(id, model.StopPayload{})
		return
	}
	u := fleet.Update{
		Status:       model.VehicleStatus(p.Status),
		ErrorMessage: p.ErrorMessage,
	}
	lat, lng := mustFloat(p.Lat), mustFloat(p.Lng)
	u.Lat, u.Lng = &lat, &lng
	if p.Battery != "" {
		b := mustFloat(p.Battery)
		u.Battery = &b
	}
	o.fleet.Update(id, u)
	o.notifier.VehicleUpdated(v)
}

// forwardToMission routes POI/complete to the current mission, but only if
// the sender belongs to that mission's vehicle set. Membership is decided
// here, once; the mission does not re-filter.
func (o *Orchestrator) forwardToMission(id model.VehicleID, msg mission.Message) {
	v, known := o.fleet.Get(id)
	if !known {
		util.Error("orchestrator: %s from unknown vehicle %d dropped", msg.Kind, id)
		return
	}
	if !v.Active {
		o.msgr.Send(id, model.StopPayload{})
		return
	}
	o.fleet.Touch(id)
	e := o.current()
	if e == nil || !e.HasVehicle(id) {
		util.Error("orchestrator: %s from vehicle %d outside the running mission dropped", msg.Kind, id)
		return
	}
	if err := e.Update(msg, v); err != nil {
		util.Error("orchestrator: mission update failed: %v", err)
	}
}

// mustFloat decodes a hex float the parser has already validated.
func mustFloat(hex string) float64 {
	f, err := parser.ToFloat(hex)
	if err != nil {
		util.Error("orchestrator: hex float %q slipped past validation: %v", hex, err)
		return 0
	}
	return f
}
