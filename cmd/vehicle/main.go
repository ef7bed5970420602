// Vehicle agent (simulated): connects to the ground station over a serial
// radio, acknowledges every command, and walks through the job lifecycle —
// start, addMission, updates, poi, complete. Useful on a bench with two
// radios or a null-modem pair.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"FleetLink/internal/device"
	"FleetLink/internal/model"
	"FleetLink/internal/parser"
	"FleetLink/internal/util"
)

type agent struct {
	id   model.VehicleID
	dev  device.Device
	jobs []string

	connected bool
	status    model.VehicleStatus
	lastSeen  uint64
	seenAny   bool
	nextID    uint64
	pending   map[uint64]model.Envelope

	task      *model.TaskInfo
	targetLat float64
	targetLng float64
	taskTicks int

	lat, lng float64
	battery  float64
}

func main() {
	util.SetupLogger()

	id := flag.Uint64("id", 100, "vehicle id")
	dev := flag.String("dev", "/dev/ttyUSB0", "radio serial device")
	baud := flag.Int("baud", 57600, "radio baudrate")
	jobs := flag.String("jobs", "ISR_Plane", "comma-separated job types")
	lat := flag.Float64("lat", 52.1740, "initial latitude")
	lng := flag.Float64("lng", -8.7800, "initial longitude")
	interval := flag.Int("interval", 1000, "tick interval ms")
	flag.Parse()

	d, err := device.NewSerialDevice(*dev, *baud)
	if err != nil {
		log.Fatalf("open radio: %v", err)
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			log.Printf("warning: close radio err: %v", cerr)
		}
	}()

	a := &agent{
		id:      model.VehicleID(*id),
		dev:     d,
		jobs:    strings.Split(*jobs, ","),
		status:  model.StatusWaiting,
		pending: make(map[uint64]model.Envelope),
		lat:     *lat,
		lng:     *lng,
		battery: 1.0,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	log.Printf("vehicle %d start: radio=%s jobs=%v", a.id, *dev, a.jobs)

	msgCh := make(chan model.Envelope, 16)
	go func() {
		for {
			line, err := d.ReadLine(0)
			if err != nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			env, err := parser.DecodeEnvelope(line)
			if err != nil {
				log.Printf("bad frame: %v", err)
				continue
			}
			msgCh <- env
		}
	}()

	ticker := time.NewTicker(time.Duration(*interval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			log.Println("vehicle stopping")
			return
		case env := <-msgCh:
			a.receive(env)
		case <-ticker.C:
			a.tick()
		}
	}
}

// send assigns the next message id and writes one envelope. Everything but
// ack and badMessage is kept for resend until the station acknowledges it.
func (a *agent) send(p model.Payload) {
	a.nextID++
	env := model.Envelope{
		ID:           a.nextID,
		SourceID:     a.id,
		TargetID:     model.GroundStation,
		SentAtMillis: time.Now().UnixMilli(),
		Payload:      p,
	}
	kind := p.Kind()
	if kind != model.KindAck && kind != model.KindBadMessage {
		a.pending[env.ID] = env
	}
	a.write(env)
}

func (a *agent) write(env model.Envelope) {
	line, err := parser.EncodeEnvelope(env)
	if err != nil {
		log.Printf("encode %s: %v", env.Kind(), err)
		return
	}
	if err := a.dev.WriteLine(line); err != nil {
		log.Printf("radio write err: %v", err)
	}
}

func (a *agent) ack(id uint64) {
	a.nextID++
	a.write(model.Envelope{
		ID:           a.nextID,
		SourceID:     a.id,
		TargetID:     model.GroundStation,
		SentAtMillis: time.Now().UnixMilli(),
		Payload:      model.AckPayload{AckID: id},
	})
}

// receive handles one station message: acknowledge, drop duplicates, then
// act on fresh commands.
func (a *agent) receive(env model.Envelope) {
	switch p := env.Payload.(type) {
	case model.AckPayload:
		delete(a.pending, p.AckID)
		return
	case model.BadMessagePayload:
		log.Printf("station rejected a message: %s", p.Error)
		return
	}

	if a.seenAny && env.ID <= a.lastSeen {
		a.ack(env.ID) // the previous ack was lost
		return
	}
	a.lastSeen = env.ID
	a.seenAny = true
	a.ack(env.ID)

	switch p := env.Payload.(type) {
	case model.ConnectionAckPayload:
		a.connected = true
		a.pending = make(map[uint64]model.Envelope)
		log.Printf("connected to station")
	case model.StartPayload:
		log.Printf("job started: %s", p.JobType)
		a.setStatus(model.StatusReady)
	case model.AddMissionPayload:
		t := p.MissionInfo
		a.task = &t
		a.targetLat, _ = parser.ToFloat(t.Lat)
		a.targetLng, _ = parser.ToFloat(t.Lng)
		a.taskTicks = 0
		log.Printf("task received: %s", t.TaskType)
		a.setStatus(model.StatusRunning)
	case model.PausePayload:
		log.Printf("paused")
		a.setStatus(model.StatusWaiting)
	case model.ResumePayload:
		log.Printf("resumed")
		if a.task != nil {
			a.setStatus(model.StatusRunning)
		} else {
			a.setStatus(model.StatusReady)
		}
	case model.StopPayload:
		log.Printf("stopped by station")
		a.task = nil
		a.setStatus(model.StatusWaiting)
	}
}

// tick drives connect retries, resends and the simulated task.
func (a *agent) tick() {
	if !a.connected {
		a.send(model.ConnectPayload{JobsAvailable: a.jobs})
		return
	}
	for _, env := range a.pending {
		a.write(env)
	}
	if a.status != model.StatusRunning || a.task == nil {
		return
	}

	// crawl toward the task location, burn a little battery
	a.lat += (a.targetLat - a.lat) * 0.25
	a.lng += (a.targetLng - a.lng) * 0.25
	a.battery -= 0.001
	a.taskTicks++
	a.sendUpdate()

	switch {
	case a.taskTicks == 3:
		a.send(model.POIPayload{
			Lat: parser.ToHexFloat(a.lat + (rand.Float64()-0.5)*0.001),
			Lng: parser.ToHexFloat(a.lng + (rand.Float64()-0.5)*0.001),
		})
	case a.taskTicks >= 5:
		a.send(model.CompletePayload{})
		a.task = nil
		a.setStatus(model.StatusReady)
	}
}

func (a *agent) setStatus(s model.VehicleStatus) {
	a.status = s
	a.sendUpdate()
}

func (a *agent) sendUpdate() {
	a.send(model.UpdatePayload{
		Lat:     parser.ToHexFloat(a.lat),
		Lng:     parser.ToHexFloat(a.lng),
		Battery: parser.ToHexFloat(a.battery),
		Status:  string(a.status),
	})
}
