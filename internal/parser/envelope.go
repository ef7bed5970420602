package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"FleetLink/internal/model"
)

// ErrMalformed marks a frame that is not valid JSON. No reply is possible
// for these: there is no verified sender to address.
var ErrMalformed = errors.New("frame is not valid JSON")

// InvalidEnvelopeError marks JSON that is not a well-formed envelope. If the
// frame carried a numeric sid, it is preserved so the reliability layer can
// decide whether a badMessage reply is warranted.
type InvalidEnvelopeError struct {
	Reason    string
	SourceID  model.VehicleID
	HasSource bool
}

func (e *InvalidEnvelopeError) Error() string {
	return "invalid envelope: " + e.Reason
}

// wireHeader holds the control fields shared by every envelope. Pointers
// distinguish absent fields from zero values.
type wireHeader struct {
	ID   *uint64 `json:"id"`
	SID  *uint64 `json:"sid"`
	TID  *uint64 `json:"tid"`
	Time int64   `json:"time"`
	Type string  `json:"type"`
}

// DecodeEnvelope parses one frame into an Envelope, validating the control
// header and the kind-specific payload fields.
func DecodeEnvelope(line string) (model.Envelope, error) {
	data := []byte(line)
	if !json.Valid(data) {
		return model.Envelope{}, ErrMalformed
	}

	var hdr wireHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		// valid JSON, wrong field shapes (e.g. string id)
		return model.Envelope{}, &InvalidEnvelopeError{Reason: err.Error()}
	}

	invalid := func(reason string) (model.Envelope, error) {
		e := &InvalidEnvelopeError{Reason: reason}
		if hdr.SID != nil {
			e.SourceID = model.VehicleID(*hdr.SID)
			e.HasSource = true
		}
		return model.Envelope{}, e
	}

	if hdr.ID == nil {
		return invalid("missing id")
	}
	if hdr.SID == nil {
		return invalid("missing sid")
	}
	if hdr.TID == nil {
		return invalid("missing tid")
	}
	if hdr.Type == "" {
		return invalid("missing type")
	}
	if !model.IsKind(hdr.Type) {
		return invalid(fmt.Sprintf("unknown message type %q", hdr.Type))
	}

	payload, reason := decodePayload(model.Kind(hdr.Type), data)
	if reason != "" {
		return invalid(reason)
	}

	return model.Envelope{
		ID:           *hdr.ID,
		SourceID:     model.VehicleID(*hdr.SID),
		TargetID:     model.VehicleID(*hdr.TID),
		SentAtMillis: hdr.Time,
		Payload:      payload,
	}, nil
}

// decodePayload unmarshals and validates the kind-specific fields. It
// returns a non-empty reason string on any violation.
func decodePayload(kind model.Kind, data []byte) (model.Payload, string) {
	switch kind {
	case model.KindStart:
		var p model.StartPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err.Error()
		}
		if p.JobType == "" {
			return nil, "start requires jobType"
		}
		return p, ""
	case model.KindAddMission:
		var p model.AddMissionPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err.Error()
		}
		if reason := ValidateTaskInfo(p.MissionInfo); reason != "" {
			return nil, reason
		}
		return p, ""
	case model.KindPause:
		return model.PausePayload{}, ""
	case model.KindResume:
		return model.ResumePayload{}, ""
	case model.KindStop:
		return model.StopPayload{}, ""
	case model.KindConnectionAck:
		return model.ConnectionAckPayload{}, ""
	case model.KindUpdate:
		var p model.UpdatePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err.Error()
		}
		if !IsHexFloat(p.Lat) || !IsHexFloat(p.Lng) {
			return nil, "update requires hex float lat and lng"
		}
		if !model.IsVehicleStatus(p.Status) {
			return nil, fmt.Sprintf("update has invalid status %q", p.Status)
		}
		for _, opt := range []string{p.Alt, p.Heading, p.Battery} {
			if opt != "" && !IsHexFloat(opt) {
				return nil, "update has a non hex float optional field"
			}
		}
		return p, ""
	case model.KindPOI:
		var p model.POIPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err.Error()
		}
		if !IsHexFloat(p.Lat) || !IsHexFloat(p.Lng) {
			return nil, "poi requires hex float lat and lng"
		}
		return p, ""
	case model.KindComplete:
		return model.CompletePayload{}, ""
	case model.KindConnect:
		var p model.ConnectPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err.Error()
		}
		if len(p.JobsAvailable) == 0 {
			return nil, "connect requires jobsAvailable"
		}
		return p, ""
	case model.KindAck:
		var p model.AckPayload
		var probe struct {
			AckID *uint64 `json:"ackid"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, err.Error()
		}
		if probe.AckID == nil {
			return nil, "ack requires ackid"
		}
		p.AckID = *probe.AckID
		return p, ""
	case model.KindBadMessage:
		var p model.BadMessagePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err.Error()
		}
		return p, ""
	}
	return nil, fmt.Sprintf("unknown message type %q", kind)
}

// EncodeEnvelope renders an envelope as one flat JSON object with the fixed
// control field names expected by vehicle firmware.
func EncodeEnvelope(env model.Envelope) (string, error) {
	body, err := json.Marshal(env.Payload)
	if err != nil {
		return "", err
	}
	flat := map[string]any{}
	if err := json.Unmarshal(body, &flat); err != nil {
		return "", err
	}
	flat["id"] = env.ID
	flat["sid"] = uint64(env.SourceID)
	flat["tid"] = uint64(env.TargetID)
	flat["time"] = env.SentAtMillis
	flat["type"] = string(env.Payload.Kind())
	out, err := json.Marshal(flat)
	return string(out), err
}
