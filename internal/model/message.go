// Package model defines shared message and configuration structures for FleetLink.
package model

// VehicleID identifies a vehicle on the radio link. ID 0 is reserved for the
// ground station.
type VehicleID uint64

// GroundStation is the reserved VehicleID of the GCS itself.
const GroundStation VehicleID = 0

// Kind enumerates every message type on the wire. The set is closed: an
// envelope with any other type string is rejected during decode.
type Kind string

const (
	// ground station -> vehicle
	KindStart         Kind = "start"
	KindAddMission    Kind = "addMission"
	KindPause         Kind = "pause"
	KindResume        Kind = "resume"
	KindStop          Kind = "stop"
	KindConnectionAck Kind = "connectionAck"

	// vehicle -> ground station
	KindUpdate   Kind = "update"
	KindPOI      Kind = "poi"
	KindComplete Kind = "complete"
	KindConnect  Kind = "connect"

	// either direction
	KindAck        Kind = "ack"
	KindBadMessage Kind = "badMessage"
)

// IsKind reports whether s names a known message kind.
func IsKind(s string) bool {
	switch Kind(s) {
	case KindStart, KindAddMission, KindPause, KindResume, KindStop,
		KindConnectionAck, KindUpdate, KindPOI, KindComplete, KindConnect,
		KindAck, KindBadMessage:
		return true
	}
	return false
}

// Inbound reports whether the ground station accepts this kind from a
// vehicle. Receiving a station-originated kind is a protocol violation.
func (k Kind) Inbound() bool {
	switch k {
	case KindUpdate, KindPOI, KindComplete, KindConnect, KindAck, KindBadMessage:
		return true
	}
	return false
}

// Payload is the kind-specific portion of an envelope.
type Payload interface {
	Kind() Kind
}

// Envelope is one transport-level message: control header plus payload.
// Field names on the wire are fixed by the vehicle firmware:
// {id, sid, tid, time, type, ...payload fields}.
type Envelope struct {
	ID       uint64
	SourceID VehicleID
	TargetID VehicleID
	// SentAtMillis is the sender's clock in Unix milliseconds.
	SentAtMillis int64
	Payload      Payload
}

// Kind returns the payload kind of the envelope.
func (e Envelope) Kind() Kind { return e.Payload.Kind() }

// StartPayload commands a vehicle to begin its assigned job.
type StartPayload struct {
	JobType string         `json:"jobType"`
	Options map[string]any `json:"options,omitempty"`
}

func (StartPayload) Kind() Kind { return KindStart }

// AddMissionPayload hands a vehicle one task to perform.
type AddMissionPayload struct {
	MissionInfo TaskInfo `json:"missionInfo"`
}

func (AddMissionPayload) Kind() Kind { return KindAddMission }

// PausePayload suspends the vehicle's current job.
type PausePayload struct{}

func (PausePayload) Kind() Kind { return KindPause }

// ResumePayload resumes a paused job.
type ResumePayload struct{}

func (ResumePayload) Kind() Kind { return KindResume }

// StopPayload aborts the vehicle's current job.
type StopPayload struct{}

func (StopPayload) Kind() Kind { return KindStop }

// ConnectionAckPayload confirms a connect request.
type ConnectionAckPayload struct{}

func (ConnectionAckPayload) Kind() Kind { return KindConnectionAck }

// UpdatePayload is a vehicle telemetry report. Geographic and sensor values
// are single-precision hex floats on the wire to keep frames small.
type UpdatePayload struct {
	Lat          string `json:"lat"`
	Lng          string `json:"lng"`
	Alt          string `json:"alt,omitempty"`
	Heading      string `json:"heading,omitempty"`
	Battery      string `json:"battery,omitempty"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func (UpdatePayload) Kind() Kind { return KindUpdate }

// POIPayload reports a point of interest discovered by a vehicle.
type POIPayload struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

func (POIPayload) Kind() Kind { return KindPOI }

// CompletePayload signals that the vehicle finished its current task.
type CompletePayload struct{}

func (CompletePayload) Kind() Kind { return KindComplete }

// ConnectPayload announces a vehicle joining the fleet.
type ConnectPayload struct {
	JobsAvailable []string `json:"jobsAvailable"`
}

func (ConnectPayload) Kind() Kind { return KindConnect }

// AckPayload acknowledges a specific message id from the peer.
type AckPayload struct {
	AckID uint64 `json:"ackid"`
}

func (AckPayload) Kind() Kind { return KindAck }

// BadMessagePayload tells the peer its last message was rejected.
type BadMessagePayload struct {
	Error string `json:"error,omitempty"`
}

func (BadMessagePayload) Kind() Kind { return KindBadMessage }
