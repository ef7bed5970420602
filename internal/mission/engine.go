package mission

import (
	"fmt"
	"sort"

	"FleetLink/internal/fleet"
	"FleetLink/internal/model"
	"FleetLink/internal/util"
)

// Status is the lifecycle state of a mission.
type Status string

const (
	StatusWaiting      Status = "WAITING"
	StatusInitializing Status = "INITIALIZING"
	StatusReady        Status = "READY"
	StatusRunning      Status = "RUNNING"
	StatusPaused       Status = "PAUSED"
	StatusEnded        Status = "ENDED"
)

// Engine drives one mission through its lifecycle and allocates tasks to the
// vehicles mapped to it. It is only ever touched from the serialized
// processing queue, so it carries no locks.
//
// Invariant while RUNNING: a mapped vehicle id is in exactly one of
// waitingVehicles or activeTasks, never both.
type Engine struct {
	kind     Kind
	complete func(data Input)
	master   []*fleet.Vehicle

	status  Status
	setup   map[string]string
	mapping map[model.VehicleID]string
	mapped  map[model.VehicleID]*fleet.Vehicle

	waitingTasks    *queueMap[model.Task]
	waitingVehicles *queueMap[model.VehicleID]
	activeTasks     map[model.VehicleID]model.Task
	results         Results

	onAssign func(v *fleet.Vehicle, job string, task model.Task)
	onStatus func(e *Engine, old Status)
	ended    bool
}

// NewEngine creates a mission of the given kind in WAITING state.
// completionCallback runs exactly once, when all work is consumed.
func NewEngine(kind Kind, completionCallback func(data Input), masterVehicleList []*fleet.Vehicle) *Engine {
	return &Engine{
		kind:            kind,
		complete:        completionCallback,
		master:          masterVehicleList,
		status:          StatusWaiting,
		setup:           make(map[string]string),
		mapping:         make(map[model.VehicleID]string),
		mapped:          make(map[model.VehicleID]*fleet.Vehicle),
		waitingTasks:    newQueueMap[model.Task](),
		waitingVehicles: newQueueMap[model.VehicleID](),
		activeTasks:     make(map[model.VehicleID]model.Task),
	}
}

// Name returns the mission kind's name.
func (e *Engine) Name() string { return e.kind.Name() }

// Status returns the current lifecycle state.
func (e *Engine) Status() Status { return e.status }

// SetStatusObserver registers a callback invoked after every status change.
func (e *Engine) SetStatusObserver(fn func(e *Engine, old Status)) { e.onStatus = fn }

// SetAssignHandler registers the callback that pushes an assignment out to
// the vehicle (addMission over the radio).
func (e *Engine) SetAssignHandler(fn func(v *fleet.Vehicle, job string, task model.Task)) {
	e.onAssign = fn
}

func (e *Engine) setStatus(s Status) {
	if s == e.status {
		return
	}
	old := e.status
	e.status = s
	if e.onStatus != nil {
		e.onStatus(e, old)
	}
}

// VehicleMapping suggests a default vehicle-to-job mapping: every available
// vehicle dedicated to exactly one of the mission's job types. Multi-role
// vehicles are left for the operator to place by hand.
func (e *Engine) VehicleMapping() map[*fleet.Vehicle]string {
	out := make(map[*fleet.Vehicle]string)
	for _, job := range e.kind.JobTypes() {
		for _, v := range e.master {
			if v.Available() && len(v.Jobs) == 1 && v.HasJob(job) {
				out[v] = job
			}
		}
	}
	return out
}

func (e *Engine) inMaster(v *fleet.Vehicle) bool {
	for _, m := range e.master {
		if m == v {
			return true
		}
	}
	return false
}

// SetVehicleMapping installs the vehicle-to-job assignment. Valid only in
// WAITING. One invalid entry rejects the whole mapping: a partially
// configured mission must not silently run shorthanded.
func (e *Engine) SetVehicleMapping(mapping map[*fleet.Vehicle]string) error {
	if e.status != StatusWaiting {
		return fmt.Errorf("%s: cannot set vehicle mapping in %s state", e.kind.Name(), e.status)
	}
	e.mapping = make(map[model.VehicleID]string)
	e.mapped = make(map[model.VehicleID]*fleet.Vehicle)
	for v, job := range mapping {
		if !e.inMaster(v) {
			util.Error("%s: vehicle %d is not in the master vehicle list; mapping rejected", e.kind.Name(), v.ID)
			e.mapping = make(map[model.VehicleID]string)
			e.mapped = make(map[model.VehicleID]*fleet.Vehicle)
			return nil
		}
		if !v.HasJob(job) {
			util.Error("%s: vehicle %d cannot perform job %q; mapping rejected", e.kind.Name(), v.ID, job)
			e.mapping = make(map[model.VehicleID]string)
			e.mapped = make(map[model.VehicleID]*fleet.Vehicle)
			return nil
		}
		e.mapping[v.ID] = job
		e.mapped[v.ID] = v
	}
	return nil
}

// Mapping returns the current vehicle-to-job mapping keyed by vehicle id.
func (e *Engine) Mapping() map[model.VehicleID]string {
	out := make(map[model.VehicleID]string, len(e.mapping))
	for id, job := range e.mapping {
		out[id] = job
	}
	return out
}

// HasVehicle reports whether id is part of this mission's vehicle set.
func (e *Engine) HasVehicle(id model.VehicleID) bool {
	_, ok := e.mapping[id]
	return ok
}

// SetMissionInfo stores setup parameters, silently dropping keys the mission
// kind does not define. Valid only in WAITING.
func (e *Engine) SetMissionInfo(settings map[string]string) error {
	if e.status != StatusWaiting {
		return fmt.Errorf("%s: cannot set mission info in %s state", e.kind.Name(), e.status)
	}
	for _, param := range e.kind.RequiredParams() {
		if val, ok := settings[param]; ok {
			e.setup[param] = val
		}
	}
	return nil
}

// SetupComplete reports whether every required parameter is set and every
// job type has at least one vehicle mapped. When not, reason names the first
// unmet requirement.
func (e *Engine) SetupComplete() (ok bool, reason string) {
	for _, param := range e.kind.RequiredParams() {
		if _, set := e.setup[param]; !set {
			return false, fmt.Sprintf("'%s' mission parameter property is not set", param)
		}
	}
	for _, job := range e.kind.JobTypes() {
		found := false
		for _, mappedJob := range e.mapping {
			if mappedJob == job {
				found = true
				break
			}
		}
		if !found {
			return false, fmt.Sprintf("No vehicle assigned for job type '%s'", job)
		}
	}
	return true, ""
}

// Init transitions WAITING -> INITIALIZING: claims every mapped vehicle and
// subscribes to its status. The mission moves to READY on its own once every
// mapped vehicle reports ready.
func (e *Engine) Init() error {
	if e.status != StatusWaiting {
		return fmt.Errorf("%s: cannot initialize in %s state", e.kind.Name(), e.status)
	}
	if ok, reason := e.SetupComplete(); !ok {
		return fmt.Errorf("%s: setup incomplete: %s", e.kind.Name(), reason)
	}
	for id, v := range e.mapped {
		if !v.Available() {
			return fmt.Errorf("%s: vehicle %d is not available", e.kind.Name(), id)
		}
	}
	for id, v := range e.mapped {
		v.AssignJob(e.mapping[id])
		v.SetStatusListener(e.onVehicleStatus)
	}
	e.setStatus(StatusInitializing)
	e.checkAllReady()
	return nil
}

// checkAllReady promotes INITIALIZING -> READY once every mapped vehicle
// reports READY.
func (e *Engine) checkAllReady() {
	for _, v := range e.mapped {
		if v.Status != model.StatusReady {
			return
		}
	}
	e.setStatus(StatusReady)
}

// onVehicleStatus reacts to a mapped vehicle changing status.
func (e *Engine) onVehicleStatus(v *fleet.Vehicle, old model.VehicleStatus) {
	switch e.status {
	case StatusInitializing:
		if v.Status == model.StatusReady {
			e.checkAllReady()
		} else if old == model.StatusReady {
			e.fallbackToWaiting()
		}
	case StatusReady:
		if v.Status != model.StatusReady {
			// a vehicle silently failed between acceptance and launch
			e.fallbackToWaiting()
		}
	case StatusRunning, StatusPaused:
		if v.Status == model.StatusError {
			util.Error("%s: vehicle %d reported error: %s", e.kind.Name(), v.ID, v.ErrorMessage)
			e.VehicleLost(v)
		}
	}
}

// fallbackToWaiting releases claimed vehicles and drops back to WAITING; the
// caller must redo setup and init.
func (e *Engine) fallbackToWaiting() {
	for _, v := range e.mapped {
		v.ClearStatusListener()
		v.ReleaseJob()
	}
	e.setStatus(StatusWaiting)
}

// mappedIDs returns the mapped vehicle ids in ascending order, the order
// used for initial task allocation.
func (e *Engine) mappedIDs() []model.VehicleID {
	ids := make([]model.VehicleID, 0, len(e.mapping))
	for id := range e.mapping {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Start transitions READY -> RUNNING: generates the task set from inputData
// and hands each mapped vehicle a task of its job type if one is available.
// Vehicles with no task wait in the idle pool.
func (e *Engine) Start(inputData Input) error {
	if e.status != StatusReady {
		return fmt.Errorf("%s: cannot start in %s state", e.kind.Name(), e.status)
	}
	for _, field := range e.kind.RequiredInput() {
		if _, ok := inputData[field]; !ok {
			return fmt.Errorf("%s: input data is missing %q", e.kind.Name(), field)
		}
	}
	for job, tasks := range e.kind.GenerateTasks(inputData) {
		for _, t := range tasks {
			e.waitingTasks.Push(job, t)
		}
	}
	for _, id := range e.mappedIDs() {
		job := e.mapping[id]
		if task, ok := e.waitingTasks.Pop(job); ok {
			e.assign(e.mapped[id], job, task)
		} else {
			e.waitingVehicles.Push(job, id)
		}
	}
	e.setStatus(StatusRunning)
	return nil
}

// Pause suspends a running mission.
func (e *Engine) Pause() error {
	if e.status != StatusRunning {
		return fmt.Errorf("%s: cannot pause in %s state", e.kind.Name(), e.status)
	}
	e.setStatus(StatusPaused)
	return nil
}

// Resume continues a paused mission.
func (e *Engine) Resume() error {
	if e.status != StatusPaused {
		return fmt.Errorf("%s: cannot resume in %s state", e.kind.Name(), e.status)
	}
	e.setStatus(StatusRunning)
	return nil
}

func (e *Engine) assign(v *fleet.Vehicle, job string, task model.Task) {
	e.activeTasks[v.ID] = task
	t := task
	v.AssignedTask = &t
	if e.onAssign != nil {
		e.onAssign(v, job, task)
	}
}

// Update processes a mission-relevant report from a mapped vehicle. Complete
// messages drive the allocator; anything else is delegated to the mission
// kind. Reports are only meaningful while the mission is in flight.
func (e *Engine) Update(msg Message, sender *fleet.Vehicle) error {
	if e.status != StatusRunning && e.status != StatusPaused {
		return fmt.Errorf("%s: cannot process %s in %s state", e.kind.Name(), msg.Kind, e.status)
	}
	if msg.Kind == model.KindComplete {
		e.handleComplete(sender)
		return nil
	}
	return e.kind.Update(msg, &e.results)
}

// handleComplete retires the sender's active task and hands it the next
// waiting one, or parks it. Fires the completion callback when no active or
// waiting work remains. A sender with no active task is already parked in
// the idle pool; honoring its complete would put it there twice.
func (e *Engine) handleComplete(v *fleet.Vehicle) {
	if _, held := e.activeTasks[v.ID]; !held {
		util.Error("%s: complete from vehicle %d with no active task ignored", e.kind.Name(), v.ID)
		return
	}
	job := e.mapping[v.ID]
	delete(e.activeTasks, v.ID)
	v.AssignedTask = nil

	if task, ok := e.waitingTasks.Pop(job); ok {
		e.assign(v, job, task)
		return
	}
	e.waitingVehicles.Push(job, v.ID)

	if len(e.activeTasks) == 0 && e.waitingTasks.Total() == 0 {
		e.finish()
	}
}

// finish runs the terminal transition exactly once.
func (e *Engine) finish() {
	if e.ended {
		return
	}
	e.ended = true
	for _, v := range e.mapped {
		v.ClearStatusListener()
		v.ReleaseJob()
	}
	e.setStatus(StatusEnded)
	if e.complete != nil {
		e.complete(e.kind.TerminatedData(&e.results))
	}
}

// Abort releases everything an unfinished mission holds: claimed vehicles,
// their status listeners and any in-flight or queued tasks. The mission
// drops back to WAITING so its vehicles can be scheduled again. Missions in
// WAITING or ENDED hold nothing, so Abort is a no-op for them.
func (e *Engine) Abort() {
	if e.status == StatusWaiting || e.status == StatusEnded {
		return
	}
	for id := range e.activeTasks {
		if v, ok := e.mapped[id]; ok {
			v.AssignedTask = nil
		}
	}
	e.activeTasks = make(map[model.VehicleID]model.Task)
	e.waitingTasks = newQueueMap[model.Task]()
	e.waitingVehicles = newQueueMap[model.VehicleID]()
	e.fallbackToWaiting()
}

// NewTask pushes discovered work into a running or paused mission. If a
// vehicle of the job type is idle, the task is assigned immediately instead
// of waiting for the next complete message.
func (e *Engine) NewTask(job string, task model.Task) error {
	if e.status != StatusRunning && e.status != StatusPaused {
		return fmt.Errorf("%s: cannot add task in %s state", e.kind.Name(), e.status)
	}
	if id, ok := e.waitingVehicles.Pop(job); ok {
		e.assign(e.mapped[id], job, task)
		return nil
	}
	e.waitingTasks.Push(job, task)
	return nil
}

// VehicleLost removes a failed or disconnected vehicle from the mission.
// While running, its active task is requeued and reassigned to an idle
// vehicle of the same job type if one exists; before launch, the mission
// falls back to WAITING.
func (e *Engine) VehicleLost(v *fleet.Vehicle) {
	job, ok := e.mapping[v.ID]
	if !ok {
		return
	}
	switch e.status {
	case StatusInitializing, StatusReady:
		e.fallbackToWaiting()
	case StatusRunning, StatusPaused:
		e.waitingVehicles.Remove(job, v.ID)
		task, held := e.activeTasks[v.ID]
		if !held {
			return
		}
		delete(e.activeTasks, v.ID)
		v.AssignedTask = nil
		if id, idle := e.waitingVehicles.Pop(job); idle {
			e.assign(e.mapped[id], job, task)
		} else {
			e.waitingTasks.Push(job, task)
		}
	}
}

// ActiveTask returns the task a vehicle is currently working.
func (e *Engine) ActiveTask(id model.VehicleID) (model.Task, bool) {
	t, ok := e.activeTasks[id]
	return t, ok
}

// WaitingTaskCount returns how many tasks of a job type are queued.
func (e *Engine) WaitingTaskCount(job string) int { return e.waitingTasks.Count(job) }

// WaitingVehicleCount returns how many vehicles of a job type are idle.
func (e *Engine) WaitingVehicleCount(job string) int { return e.waitingVehicles.Count(job) }

// TerminatedData summarizes mission results for the operator or the next
// mission in the schedule.
func (e *Engine) TerminatedData() Input {
	return e.kind.TerminatedData(&e.results)
}

// POIs returns the points of interest recorded so far.
func (e *Engine) POIs() []Point {
	out := make([]Point, len(e.results.POI))
	copy(out, e.results.POI)
	return out
}
