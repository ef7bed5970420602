package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"FleetLink/internal/device"
	"FleetLink/internal/model"
	"FleetLink/internal/parser"
)

const testConfig = `
radio:
  device: /dev/null
  baud: 57600
comms:
  resend_interval_ms: 200
  disconnect_ms: 10000
app:
  addr: ""
fleet:
  - id: 100
    name: plane-alpha
missions:
  - kind: ISRMission
    setup:
      plane_start_action: takeoff
      plane_end_action: land
    input:
      lat: 52.1740465
      lng: -8.7800047
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gcs.yml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// simVehicle drives the vehicle end of the pipe: it acks every station
// message and hands mission commands back to the test.
type simVehicle struct {
	t      *testing.T
	dev    *device.PipeDevice
	id     model.VehicleID
	nextID uint64
}

func (s *simVehicle) send(p model.Payload) {
	s.t.Helper()
	s.nextID++
	line, err := parser.EncodeEnvelope(model.Envelope{
		ID:           s.nextID,
		SourceID:     s.id,
		TargetID:     model.GroundStation,
		SentAtMillis: time.Now().UnixMilli(),
		Payload:      p,
	})
	if err != nil {
		s.t.Fatal(err)
	}
	if err := s.dev.WriteLine(line); err != nil {
		s.t.Fatal(err)
	}
}

// expect reads frames until one of the wanted kind arrives, acking every
// station message (including resends) along the way.
func (s *simVehicle) expect(kind model.Kind) model.Envelope {
	s.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		line, err := s.dev.ReadLine(200 * time.Millisecond)
		if err != nil {
			continue
		}
		env, err := parser.DecodeEnvelope(line)
		if err != nil {
			s.t.Fatalf("station sent a bad frame: %v (%s)", err, line)
		}
		if env.Kind() == model.KindAck || env.Kind() == model.KindBadMessage {
			continue
		}
		s.send(model.AckPayload{AckID: env.ID})
		if env.Kind() == kind {
			return env
		}
	}
	s.t.Fatalf("no %s within deadline", kind)
	return model.Envelope{}
}

func (s *simVehicle) reportReady() {
	s.send(model.UpdatePayload{
		Lat:    parser.ToHexFloat(52.17),
		Lng:    parser.ToHexFloat(-8.78),
		Status: string(model.StatusReady),
	})
}

func TestSystemEndToEnd(t *testing.T) {
	station, radio := device.NewPipe()
	sys, err := NewSystem(writeConfig(t), station)
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.StartAll(); err != nil {
		t.Fatal(err)
	}
	defer sys.StopAll()

	v := &simVehicle{t: t, dev: radio, id: 100}

	// connect handshake
	v.send(model.ConnectPayload{JobsAvailable: []string{"ISR_Plane"}})
	v.expect(model.KindConnectionAck)
	v.reportReady()

	// wait for the update to clear the processing queue
	deadlineReady := time.Now().Add(5 * time.Second)
	for {
		snap := sys.Snapshot()
		if len(snap.Vehicles) == 1 && snap.Vehicles[0].Status == string(model.StatusReady) {
			break
		}
		if time.Now().After(deadlineReady) {
			t.Fatalf("vehicle never became ready: %+v", snap.Vehicles)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// configured mission schedules and initializes against the live fleet
	if err := sys.ScheduleConfiguredMissions(); err != nil {
		t.Fatal(err)
	}
	if err := sys.StartScheduledMission(nil); err != nil {
		t.Fatal(err)
	}

	v.expect(model.KindStart)
	task := v.expect(model.KindAddMission)
	ti := task.Payload.(model.AddMissionPayload).MissionInfo
	if ti.TaskType != "detailedSearch" {
		t.Fatalf("taskType = %q", ti.TaskType)
	}
	lat, err := parser.ToFloat(ti.Lat)
	if err != nil {
		t.Fatal(err)
	}
	if lat != float64(float32(52.1740465)) {
		t.Fatalf("task lat = %v, want the configured input", lat)
	}

	// fly the task: one sighting, then done
	v.send(model.POIPayload{
		Lat: parser.ToHexFloat(52.18),
		Lng: parser.ToHexFloat(-8.79),
	})
	v.send(model.CompletePayload{})

	// the single-mission schedule resets once the work is consumed
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := sys.Snapshot()
		if len(snap.Missions) == 0 && !sys.Orchestrator.IsRunning() {
			if len(snap.Vehicles) != 1 || snap.Vehicles[0].ID != 100 {
				t.Fatalf("snapshot vehicles: %+v", snap.Vehicles)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("mission schedule did not finish")
}

func TestSystemSnapshotBeforeAnyTraffic(t *testing.T) {
	station, _ := device.NewPipe()
	sys, err := NewSystem(writeConfig(t), station)
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.StartAll(); err != nil {
		t.Fatal(err)
	}
	defer sys.StopAll()

	snap := sys.Snapshot()
	if len(snap.Vehicles) != 0 || len(snap.Missions) != 0 {
		t.Fatalf("unexpected state in fresh snapshot: %+v", snap)
	}
	if snap.Sent != 0 || snap.InFlight != 0 {
		t.Fatalf("fresh counters: %+v", snap)
	}
}
