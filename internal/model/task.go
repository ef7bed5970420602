package model

// TaskInfo is the wire form of a task handed to a vehicle inside an
// addMission message. All numeric fields are single-precision hex floats.
// Which fields are required depends on TaskType; see parser.ValidateTaskInfo.
type TaskInfo struct {
	TaskType string `json:"taskType"`

	Lat string `json:"lat,omitempty"`
	Lng string `json:"lng,omitempty"`
	Alt string `json:"alt,omitempty"`

	Radius    string `json:"radius,omitempty"`
	Direction string `json:"direction,omitempty"`

	Loiter     *LoiterInfo `json:"loiter,omitempty"`
	Waypoints  []Waypoint  `json:"waypoints,omitempty"`
	SearchArea *SearchArea `json:"searchArea,omitempty"`
}

// LoiterInfo describes the loiter pattern attached to a takeoff task.
type LoiterInfo struct {
	Lat       string `json:"lat"`
	Lng       string `json:"lng"`
	Alt       string `json:"alt"`
	Radius    string `json:"radius"`
	Direction string `json:"direction"`
}

// Waypoint is one point of a multi-point task. Alt is optional for tasks
// flown at a fixed altitude.
type Waypoint struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
	Alt string `json:"alt,omitempty"`
}

// SearchArea is the elliptical region of a quickScan task.
type SearchArea struct {
	Center [2]string `json:"center"`
	Rad1   string    `json:"rad1"`
	Rad2   string    `json:"rad2"`
}

// Task is the mission engine's unit of work: a coordinate to be serviced by
// a vehicle of the matching job type. Equality is structural.
type Task struct {
	Lat float64
	Lng float64
}
