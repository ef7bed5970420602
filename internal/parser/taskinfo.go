package parser

import (
	"fmt"

	"FleetLink/internal/model"
)

// ValidateTaskInfo checks the field requirements of each wire task type.
// Returns an empty string if the task is well formed, otherwise the reason.
func ValidateTaskInfo(t model.TaskInfo) string {
	switch t.TaskType {
	case "takeoff":
		if !IsHexFloat(t.Lat) || !IsHexFloat(t.Lng) || !IsHexFloat(t.Alt) {
			return "takeoff requires hex float lat, lng and alt"
		}
		if t.Loiter == nil {
			return "takeoff requires loiter"
		}
		l := t.Loiter
		if !IsHexFloat(l.Lat) || !IsHexFloat(l.Lng) || !IsHexFloat(l.Alt) ||
			!IsHexFloat(l.Radius) || !IsHexFloat(l.Direction) {
			return "takeoff loiter fields must be hex floats"
		}
	case "loiter":
		if !IsHexFloat(t.Lat) || !IsHexFloat(t.Lng) || !IsHexFloat(t.Alt) ||
			!IsHexFloat(t.Radius) || !IsHexFloat(t.Direction) {
			return "loiter requires hex float lat, lng, alt, radius and direction"
		}
	case "isrSearch":
		if !IsHexFloat(t.Alt) {
			return "isrSearch requires hex float alt"
		}
		if len(t.Waypoints) != 3 {
			return "isrSearch requires 3 waypoints"
		}
		for _, wp := range t.Waypoints {
			if !IsHexFloat(wp.Lat) || !IsHexFloat(wp.Lng) {
				return "isrSearch waypoints must have hex float lat and lng"
			}
		}
	case "payloadDrop", "land":
		if len(t.Waypoints) != 2 {
			return t.TaskType + " requires 2 waypoints"
		}
		for _, wp := range t.Waypoints {
			if !IsHexFloat(wp.Lat) || !IsHexFloat(wp.Lng) || !IsHexFloat(wp.Alt) {
				return t.TaskType + " waypoints must have hex float lat, lng and alt"
			}
		}
	case "retrieveTarget":
		// UGV form carries a coordinate, UUV form carries none; either both
		// lat/lng are present and valid or both are absent.
		if (t.Lat == "") != (t.Lng == "") {
			return "retrieveTarget requires both lat and lng or neither"
		}
		if t.Lat != "" && (!IsHexFloat(t.Lat) || !IsHexFloat(t.Lng)) {
			return "retrieveTarget lat and lng must be hex floats"
		}
	case "deliverTarget", "detailedSearch":
		if !IsHexFloat(t.Lat) || !IsHexFloat(t.Lng) {
			return t.TaskType + " requires hex float lat and lng"
		}
	case "quickScan":
		if t.SearchArea == nil {
			return "quickScan requires searchArea"
		}
		a := t.SearchArea
		if !IsHexFloat(a.Center[0]) || !IsHexFloat(a.Center[1]) ||
			!IsHexFloat(a.Rad1) || !IsHexFloat(a.Rad2) {
			return "quickScan searchArea fields must be hex floats"
		}
	case "":
		return "task requires taskType"
	default:
		return fmt.Sprintf("unknown taskType %q", t.TaskType)
	}
	return ""
}

// DetailedSearchTask builds the wire task for a coordinate-servicing job.
// This is the shape the ISR mission hands to its planes.
func DetailedSearchTask(task model.Task) model.TaskInfo {
	return model.TaskInfo{
		TaskType: "detailedSearch",
		Lat:      ToHexFloat(task.Lat),
		Lng:      ToHexFloat(task.Lng),
	}
}
