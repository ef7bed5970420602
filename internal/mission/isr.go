package mission

import (
	"fmt"
	"math"

	"FleetLink/internal/model"
)

// ISR is the intelligence/surveillance/reconnaissance mission kind: a single
// plane job type servicing one coordinate per task, reporting points of
// interest along the way.
type ISR struct{}

// NewISR returns the ISR mission kind.
func NewISR() ISR { return ISR{} }

func (ISR) Name() string { return "ISRMission" }

func (ISR) JobTypes() []string { return []string{"ISR_Plane"} }

func (ISR) RequiredParams() []string {
	return []string{"plane_start_action", "plane_end_action"}
}

func (ISR) RequiredInput() []string { return []string{"lat", "lng"} }

// GenerateTasks produces one task at the provided coordinate.
func (ISR) GenerateTasks(input Input) map[string][]model.Task {
	return map[string][]model.Task{
		"ISR_Plane": {{Lat: input["lat"], Lng: input["lng"]}},
	}
}

// Update records point-of-interest reports. Any other kind reaching here was
// misrouted by the parser or the orchestrator.
func (ISR) Update(msg Message, res *Results) error {
	if msg.Kind == model.KindPOI {
		res.POI = append(res.POI, Point{Lat: msg.Lat, Lng: msg.Lng})
		return nil
	}
	return fmt.Errorf("unknown mission message kind %q; misrouted by the parser or the orchestrator", msg.Kind)
}

// TerminatedData returns the arithmetic-mean center of all recorded points
// of interest and the radius from that center to the furthest one, so the
// reported circle encompasses every sighting.
func (ISR) TerminatedData(res *Results) Input {
	if len(res.POI) == 0 {
		return Input{}
	}
	var latSum, lngSum float64
	for _, p := range res.POI {
		latSum += p.Lat
		lngSum += p.Lng
	}
	center := Point{
		Lat: latSum / float64(len(res.POI)),
		Lng: lngSum / float64(len(res.POI)),
	}
	radius := 0.0
	for _, p := range res.POI {
		radius = math.Max(radius, Distance(p, center))
	}
	return Input{"lat": center.Lat, "lng": center.Lng, "radius": radius}
}
