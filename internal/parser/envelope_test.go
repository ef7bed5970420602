package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"FleetLink/internal/model"
)

func TestDecodeUpdateEnvelope(t *testing.T) {
	line := `{"id":7,"sid":100,"tid":0,"time":1700000000000,"type":"update",` +
		`"lat":"0x4250b23c","lng":"0xc10c7ae2","status":"RUNNING","battery":"0x3f000000"}`
	env, err := DecodeEnvelope(line)
	if err != nil {
		t.Fatal(err)
	}
	if env.ID != 7 || env.SourceID != 100 || env.TargetID != model.GroundStation {
		t.Fatalf("bad header: %+v", env)
	}
	p, ok := env.Payload.(model.UpdatePayload)
	if !ok {
		t.Fatalf("payload is %T, want UpdatePayload", env.Payload)
	}
	if p.Status != "RUNNING" || p.Lat != "0x4250b23c" {
		t.Fatalf("bad payload: %+v", p)
	}
}

func TestDecodeNonJSONIsMalformed(t *testing.T) {
	for _, line := range []string{"", "garbage", "{\"id\":", "VEH,1,2,3"} {
		_, err := DecodeEnvelope(line)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("DecodeEnvelope(%q) = %v, want ErrMalformed", line, err)
		}
	}
}

func TestDecodeMissingHeaderFields(t *testing.T) {
	cases := []struct {
		line   string
		reason string
	}{
		{`{"sid":100,"tid":0,"type":"pause"}`, "missing id"},
		{`{"id":1,"tid":0,"type":"pause"}`, "missing sid"},
		{`{"id":1,"sid":100,"type":"pause"}`, "missing tid"},
		{`{"id":1,"sid":100,"tid":0}`, "missing type"},
		{`{"id":1,"sid":100,"tid":0,"type":"selfDestruct"}`, "unknown message type"},
	}
	for _, c := range cases {
		_, err := DecodeEnvelope(c.line)
		var inv *InvalidEnvelopeError
		if !errors.As(err, &inv) {
			t.Errorf("DecodeEnvelope(%s) = %v, want InvalidEnvelopeError", c.line, err)
			continue
		}
		if !strings.Contains(inv.Reason, c.reason) {
			t.Errorf("reason %q does not mention %q", inv.Reason, c.reason)
		}
	}
}

func TestDecodePreservesSenderForReply(t *testing.T) {
	// a frame with a readable sid but bad payload lets the station reply
	_, err := DecodeEnvelope(`{"id":1,"sid":100,"tid":0,"type":"update","lat":"52.17","lng":"0x00000000","status":"RUNNING"}`)
	var inv *InvalidEnvelopeError
	if !errors.As(err, &inv) {
		t.Fatalf("got %v, want InvalidEnvelopeError", err)
	}
	if !inv.HasSource || inv.SourceID != 100 {
		t.Fatalf("sender not preserved: %+v", inv)
	}

	// no sid at all: nobody to reply to
	_, err = DecodeEnvelope(`{"id":1,"tid":0,"type":"pause"}`)
	if !errors.As(err, &inv) {
		t.Fatalf("got %v, want InvalidEnvelopeError", err)
	}
	if inv.HasSource {
		t.Fatal("HasSource true without a sid")
	}
}

func TestDecodeWrongFieldShape(t *testing.T) {
	_, err := DecodeEnvelope(`{"id":"seven","sid":100,"tid":0,"type":"pause"}`)
	var inv *InvalidEnvelopeError
	if !errors.As(err, &inv) {
		t.Fatalf("got %v, want InvalidEnvelopeError", err)
	}
}

func TestDecodePayloadValidation(t *testing.T) {
	bad := []string{
		`{"id":1,"sid":100,"tid":0,"type":"start"}`,                                                         // no jobType
		`{"id":1,"sid":100,"tid":0,"type":"connect","jobsAvailable":[]}`,                                    // empty jobs
		`{"id":1,"sid":100,"tid":0,"type":"ack"}`,                                                           // no ackid
		`{"id":1,"sid":100,"tid":0,"type":"update","lat":"0x0","lng":"0x0","status":"FLYING"}`,              // bad status
		`{"id":1,"sid":100,"tid":0,"type":"poi","lat":"12.5","lng":"0x00000000"}`,                           // decimal lat
		`{"id":1,"sid":100,"tid":0,"type":"addMission","missionInfo":{"taskType":"detailedSearch"}}`,        // missing coords
		`{"id":1,"sid":100,"tid":0,"type":"update","lat":"0x0","lng":"0x0","status":"RUNNING","alt":"9.9"}`, // bad optional
	}
	for _, line := range bad {
		if _, err := DecodeEnvelope(line); err == nil {
			t.Errorf("DecodeEnvelope accepted %s", line)
		}
	}

	good := []string{
		`{"id":1,"sid":100,"tid":0,"type":"connect","jobsAvailable":["ISR_Plane"]}`,
		`{"id":1,"sid":100,"tid":0,"type":"ack","ackid":0}`, // ackid zero is a real id
		`{"id":1,"sid":100,"tid":0,"type":"complete"}`,
		`{"id":1,"sid":100,"tid":0,"type":"badMessage","error":"nope"}`,
		`{"id":1,"sid":100,"tid":0,"type":"poi","lat":"0x4250b23c","lng":"0xc10c7ae2"}`,
	}
	for _, line := range good {
		if _, err := DecodeEnvelope(line); err != nil {
			t.Errorf("DecodeEnvelope(%s): %v", line, err)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	envs := []model.Envelope{
		{ID: 1, SourceID: 0, TargetID: 100, SentAtMillis: 1700000000000,
			Payload: model.StartPayload{JobType: "ISR_Plane"}},
		{ID: 2, SourceID: 100, TargetID: 0, SentAtMillis: 1700000000001,
			Payload: model.ConnectPayload{JobsAvailable: []string{"ISR_Plane", "Payload_Drop"}}},
		{ID: 3, SourceID: 0, TargetID: 100, SentAtMillis: 1700000000002,
			Payload: model.AckPayload{AckID: 42}},
		{ID: 4, SourceID: 0, TargetID: 100, SentAtMillis: 1700000000003,
			Payload: model.AddMissionPayload{MissionInfo: model.TaskInfo{
				TaskType: "detailedSearch",
				Lat:      ToHexFloat(52.17),
				Lng:      ToHexFloat(-8.78),
			}}},
		{ID: 5, SourceID: 100, TargetID: 0, SentAtMillis: 1700000000004,
			Payload: model.CompletePayload{}},
	}
	for _, in := range envs {
		line, err := EncodeEnvelope(in)
		if err != nil {
			t.Fatalf("encode %s: %v", in.Kind(), err)
		}
		out, err := DecodeEnvelope(line)
		if err != nil {
			t.Fatalf("decode %s (%s): %v", in.Kind(), line, err)
		}
		if out.ID != in.ID || out.SourceID != in.SourceID || out.TargetID != in.TargetID ||
			out.SentAtMillis != in.SentAtMillis || out.Kind() != in.Kind() {
			t.Fatalf("round trip mangled header: in=%+v out=%+v", in, out)
		}
	}
}

func TestEncodeFlattensPayload(t *testing.T) {
	line, err := EncodeEnvelope(model.Envelope{
		ID: 9, SourceID: 0, TargetID: 100, SentAtMillis: 1,
		Payload: model.StartPayload{JobType: "ISR_Plane"},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, frag := range []string{`"id":9`, `"sid":0`, `"tid":100`, `"type":"start"`, `"jobType":"ISR_Plane"`} {
		if !strings.Contains(line, frag) {
			t.Errorf("encoded frame missing %s: %s", frag, line)
		}
	}
	if strings.Contains(line, "payload") {
		t.Fatalf("payload not flattened: %s", line)
	}
}

func TestValidateTaskInfo(t *testing.T) {
	h := ToHexFloat
	wp := func(lat, lng, alt float64) model.Waypoint {
		return model.Waypoint{Lat: h(lat), Lng: h(lng), Alt: h(alt)}
	}

	valid := []model.TaskInfo{
		{TaskType: "takeoff", Lat: h(1), Lng: h(2), Alt: h(3), Loiter: &model.LoiterInfo{
			Lat: h(1), Lng: h(2), Alt: h(3), Radius: h(4), Direction: h(1)}},
		{TaskType: "loiter", Lat: h(1), Lng: h(2), Alt: h(3), Radius: h(4), Direction: h(1)},
		{TaskType: "isrSearch", Alt: h(3), Waypoints: []model.Waypoint{wp(1, 2, 0), wp(3, 4, 0), wp(5, 6, 0)}},
		{TaskType: "payloadDrop", Waypoints: []model.Waypoint{wp(1, 2, 3), wp(4, 5, 6)}},
		{TaskType: "land", Waypoints: []model.Waypoint{wp(1, 2, 3), wp(4, 5, 6)}},
		{TaskType: "retrieveTarget"},
		{TaskType: "retrieveTarget", Lat: h(1), Lng: h(2)},
		{TaskType: "deliverTarget", Lat: h(1), Lng: h(2)},
		{TaskType: "detailedSearch", Lat: h(1), Lng: h(2)},
		{TaskType: "quickScan", SearchArea: &model.SearchArea{
			Center: [2]string{h(1), h(2)}, Rad1: h(3), Rad2: h(4)}},
	}
	for _, ti := range valid {
		if reason := ValidateTaskInfo(ti); reason != "" {
			t.Errorf("ValidateTaskInfo(%s) = %q, want valid", ti.TaskType, reason)
		}
	}

	invalid := []model.TaskInfo{
		{},
		{TaskType: "teleport"},
		{TaskType: "takeoff", Lat: h(1), Lng: h(2), Alt: h(3)},                        // no loiter
		{TaskType: "isrSearch", Alt: h(3), Waypoints: []model.Waypoint{wp(1, 2, 0)}}, // wrong count
		{TaskType: "retrieveTarget", Lat: h(1)},                                      // lat without lng
		{TaskType: "detailedSearch", Lat: "52.17", Lng: h(2)},
		{TaskType: "quickScan"},
	}
	for _, ti := range invalid {
		if ValidateTaskInfo(ti) == "" {
			t.Errorf("ValidateTaskInfo accepted %+v", ti)
		}
	}
}

func TestDetailedSearchTask(t *testing.T) {
	ti := DetailedSearchTask(model.Task{Lat: 52.17, Lng: -8.78})
	if ti.TaskType != "detailedSearch" {
		t.Fatalf("taskType = %q", ti.TaskType)
	}
	if reason := ValidateTaskInfo(ti); reason != "" {
		t.Fatalf("generated task invalid: %s", reason)
	}
	lat, err := ToFloat(ti.Lat)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprintf("%.4f", lat) != "52.1700" {
		t.Fatalf("lat decoded to %v", lat)
	}
}
