// Package core contains the main runtime logic and orchestration layer for
// the FleetLink ground station.
package core

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"FleetLink/internal/app"
	"FleetLink/internal/comms"
	"FleetLink/internal/device"
	"FleetLink/internal/fleet"
	"FleetLink/internal/mission"
	"FleetLink/internal/model"
	"FleetLink/internal/sched"
	"FleetLink/internal/util"
)

// System manages the lifecycle of the station's components: the processing
// queue, the radio link, the message layer, the fleet registry, the
// orchestrator and the dashboard server. It loads configuration from a YAML
// file and constructs objects accordingly.
type System struct {
	cfg *model.Config

	Queue        *sched.Queue
	Registry     *sched.Registry
	Device       device.Device
	Fleet        *fleet.Registry
	Orchestrator *Orchestrator
	Messenger    *comms.Messenger
	App          *app.App

	recognized map[model.VehicleID]bool

	started   bool
	startLock sync.Mutex
}

// NewSystem reads the YAML configuration at cfgPath and wires the station.
// dev overrides the configured serial device when non-nil (tests, bench
// simulation).
func NewSystem(cfgPath string, dev device.Device) (*System, error) {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	var cfg model.Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if dev == nil {
		dev, err = device.NewSerialDevice(cfg.Radio.Device, cfg.Radio.Baud)
		if err != nil {
			return nil, fmt.Errorf("open radio %s: %w", cfg.Radio.Device, err)
		}
	}

	resend := time.Duration(cfg.Comms.ResendIntervalMs) * time.Millisecond
	if resend <= 0 {
		resend = time.Second
	}
	grace := time.Duration(cfg.Comms.DisconnectMs) * time.Millisecond
	if grace <= 0 {
		grace = 20 * time.Second
	}

	s := &System{cfg: &cfg, recognized: make(map[model.VehicleID]bool)}
	for _, entry := range cfg.Fleet {
		s.recognized[model.VehicleID(entry.ID)] = true
	}

	clock := sched.RealClock{}
	s.Queue = sched.NewQueue()
	s.Registry = sched.NewRegistry(clock, s.Queue)
	s.Device = dev
	s.Fleet = fleet.NewRegistry(clock, s.Registry, grace)
	s.Orchestrator = NewOrchestrator(s.Fleet)
	s.Messenger = comms.NewMessenger(dev, s.Registry, s.Queue, clock,
		resend, grace, s.isRecognized, s.Orchestrator)
	s.Orchestrator.SetMessenger(s.Messenger)

	if cfg.App.Addr != "" {
		a, err := app.NewApp(cfg.App.DBPath)
		if err != nil {
			return nil, err
		}
		a.ScheduleMissions = s.ScheduleConfiguredMissions
		a.StartMission = s.StartScheduledMission
		a.Snapshot = s.Snapshot
		s.App = a
		s.Orchestrator.SetNotifier(a)
	}
	return s, nil
}

// isRecognized reports whether id belongs to the configured fleet table.
func (s *System) isRecognized(id model.VehicleID) bool {
	return s.recognized[id]
}

// StartAll starts the processing queue, the inbound reader and the
// dashboard server.
func (s *System) StartAll() error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return nil
	}
	s.Queue.Start()
	s.Messenger.Start()
	if s.App != nil {
		go func() {
			if err := s.App.Start(s.cfg.App.Addr); err != nil {
				util.Error("system: app server: %v", err)
			}
		}()
	}
	s.started = true
	return nil
}

// StopAll stops all running components gracefully.
func (s *System) StopAll() {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if !s.started {
		return
	}
	s.Messenger.StopAll()
	if s.App != nil {
		s.App.Stop()
	}
	s.Queue.Stop()
	if err := s.Device.Close(); err != nil {
		util.Error("system: close radio: %v", err)
	}
	s.started = false
}

// ScheduleConfiguredMissions builds the missions listed in the config file,
// auto-mapping available vehicles, and hands them to the orchestrator. Runs
// on the processing queue; the result is reported back synchronously.
func (s *System) ScheduleConfiguredMissions() error {
	errCh := make(chan error, 1)
	s.Queue.Post(func() {
		var missions []*mission.Engine
		for _, entry := range s.cfg.Missions {
			e := s.Orchestrator.CreateMission(entry.Kind)
			if e == nil {
				errCh <- fmt.Errorf("unknown mission kind %q", entry.Kind)
				return
			}
			if err := e.SetMissionInfo(entry.Setup); err != nil {
				errCh <- err
				return
			}
			if err := e.SetVehicleMapping(e.VehicleMapping()); err != nil {
				errCh <- err
				return
			}
			missions = append(missions, e)
		}
		errCh <- s.Orchestrator.AddMissions(missions)
	})
	return <-errCh
}

// StartScheduledMission starts the current mission with operator-supplied
// input data, falling back to the configured input of the first mission
// when the operator provides none.
func (s *System) StartScheduledMission(input map[string]float64) error {
	errCh := make(chan error, 1)
	s.Queue.Post(func() {
		data := mission.Input(input)
		if len(data) == 0 && len(s.cfg.Missions) > 0 {
			data = mission.Input(s.cfg.Missions[0].Input)
		}
		s.Orchestrator.StartMission(data)
		if !s.Orchestrator.IsRunning() {
			errCh <- fmt.Errorf("mission did not start; see log")
			return
		}
		errCh <- nil
	})
	return <-errCh
}

// Snapshot collects a consistent view of the station for the dashboard. It
// runs on the processing queue so it never observes state mid-mutation.
func (s *System) Snapshot() app.Snapshot {
	ch := make(chan app.Snapshot, 1)
	s.Queue.Post(func() {
		var snap app.Snapshot
		for _, v := range s.Fleet.Vehicles() {
			snap.Vehicles = append(snap.Vehicles, app.VehicleView{
				ID:           uint64(v.ID),
				Jobs:         v.Jobs,
				Status:       string(v.Status),
				Active:       v.Active,
				AssignedJob:  v.AssignedJob,
				Lat:          v.Lat,
				Lng:          v.Lng,
				Battery:      v.Battery,
				ErrorMessage: v.ErrorMessage,
				LastContact:  v.LastContact,
			})
		}
		for i, e := range s.Orchestrator.Missions() {
			snap.Missions = append(snap.Missions, app.MissionView{
				Index:   i,
				Name:    e.Name(),
				Status:  string(e.Status()),
				Current: i == s.Orchestrator.CurrentIndex() && s.Orchestrator.IsRunning(),
			})
		}
		snap.Sent, snap.Received, snap.InFlight = s.Messenger.Stats()
		ch <- snap
	})
	return <-ch
}
