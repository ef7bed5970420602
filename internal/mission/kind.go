package mission

import (
	"FleetLink/internal/model"
)

// Input is the data a mission needs to generate its tasks, keyed by field
// name. A finished mission's terminated data uses the same shape so it can
// feed the next mission in the schedule.
type Input map[string]float64

// Message is a mission-relevant report from a vehicle, with wire hex floats
// already decoded by the envelope parser.
type Message struct {
	Kind model.Kind
	Lat  float64
	Lng  float64
}

// Results accumulates what a mission produced while running.
type Results struct {
	POI []Point
}

// Kind is the capability set of one concrete mission type. The shared Engine
// holds a Kind value and runs all setup, lifecycle and task bookkeeping; the
// Kind contributes only the mission-specific pieces.
type Kind interface {
	// Name identifies the mission type, e.g. "ISRMission".
	Name() string

	// JobTypes lists every job type this mission assigns tasks for.
	JobTypes() []string

	// RequiredParams lists the setup parameters that must be present before
	// the mission can initialize.
	RequiredParams() []string

	// RequiredInput lists the Input fields missionStart needs.
	RequiredInput() []string

	// GenerateTasks expands the start input into the initial task set,
	// keyed by job type.
	GenerateTasks(input Input) map[string][]model.Task

	// Update handles mission-specific message kinds (anything other than
	// complete, which the Engine consumes). An unknown kind is a routing
	// bug and yields an error.
	Update(msg Message, res *Results) error

	// TerminatedData summarizes the results once the mission has ended.
	TerminatedData(res *Results) Input
}
