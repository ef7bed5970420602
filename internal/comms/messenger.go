// Package comms implements the reliable message layer of the ground
// station: framing, the outbound retry loop, inbound deduplication and
// schema validation over a radio link with no built-in reliability.
package comms

import (
	"errors"
	"fmt"
	"time"

	"FleetLink/internal/device"
	"FleetLink/internal/model"
	"FleetLink/internal/parser"
	"FleetLink/internal/sched"
	"FleetLink/internal/util"
)

// logCap bounds the diagnostic sent/received rings.
const logCap = 512

// Handler receives validated, deduplicated application messages and
// unreachable-vehicle reports. Implemented by the orchestrator.
type Handler interface {
	HandleMessage(env model.Envelope)
	HandleUnreachable(id model.VehicleID)
}

// outboundEntry is one unacknowledged message in the outbox.
type outboundEntry struct {
	env          model.Envelope
	cancelResend func()
}

// Messenger guarantees eventual delivery and at-most-once application
// processing of envelopes. Sends retransmit on a fixed interval until the
// matching ack arrives or the disconnection grace period elapses; receives
// are validated, deduplicated per sender and acknowledged.
//
// All methods other than Start/StopAll must be called from the serialized
// processing queue.
type Messenger struct {
	dev   device.Device
	reg   *sched.Registry
	queue sched.Executor
	clock sched.Clock

	resendInterval time.Duration
	ackTimeout     time.Duration

	// recognized reports whether a vehicle id is in the configured fleet
	// table. Frames from anyone else are dropped without a reply.
	recognized func(id model.VehicleID) bool
	handler    Handler

	nextID   uint64
	outbox   map[uint64]*outboundEntry
	lastSeen map[model.VehicleID]uint64
	sent     []model.Envelope
	received []model.Envelope

	stop chan struct{}
}

// NewMessenger wires the message layer to its transport and scheduler.
func NewMessenger(dev device.Device, reg *sched.Registry, queue sched.Executor, clock sched.Clock,
	resendInterval, ackTimeout time.Duration,
	recognized func(id model.VehicleID) bool, handler Handler) *Messenger {
	return &Messenger{
		dev:            dev,
		reg:            reg,
		queue:          queue,
		clock:          clock,
		resendInterval: resendInterval,
		ackTimeout:     ackTimeout,
		recognized:     recognized,
		handler:        handler,
		outbox:         make(map[uint64]*outboundEntry),
		lastSeen:       make(map[model.VehicleID]uint64),
		stop:           make(chan struct{}),
	}
}

// Start launches the inbound reader. Frames are posted onto the processing
// queue; the reader itself never touches messenger state.
func (m *Messenger) Start() {
	go func() {
		for {
			select {
			case <-m.stop:
				return
			default:
			}
			line, err := m.dev.ReadLine(0)
			if err != nil {
				if errors.Is(err, device.ErrClosed) {
					return
				}
				time.Sleep(100 * time.Millisecond)
				continue
			}
			m.queue.Post(func() { m.Receive(line) })
		}
	}()
}

func ackKey(target model.VehicleID, id uint64) string {
	return fmt.Sprintf("%d#%d", target, id)
}

// Send transmits a message to a vehicle. Acks and badMessage replies go out
// once and are never retried; acknowledging an acknowledgement would not
// terminate. Everything else is retransmitted until acked, and the target is
// reported unreachable when the grace period runs out.
func (m *Messenger) Send(target model.VehicleID, payload model.Payload) {
	m.nextID++
	env := model.Envelope{
		ID:           m.nextID,
		SourceID:     model.GroundStation,
		TargetID:     target,
		SentAtMillis: m.clock.Now().UnixMilli(),
		Payload:      payload,
	}
	m.logSent(env)

	raw, err := parser.EncodeEnvelope(env)
	if err != nil {
		util.Error("comms: encode %s to %d failed: %v", env.Kind(), target, err)
		return
	}
	if err := m.dev.WriteLine(raw); err != nil {
		util.Error("comms: write %s to %d failed: %v", env.Kind(), target, err)
	}

	switch env.Kind() {
	case model.KindAck, model.KindBadMessage:
		return
	}

	id := env.ID
	cancel := m.reg.Repeat(m.resendInterval, func() {
		if err := m.dev.WriteLine(raw); err != nil {
			util.Error("comms: resend %d to %d failed: %v", id, target, err)
		}
	})
	m.outbox[id] = &outboundEntry{env: env, cancelResend: cancel}

	m.reg.Register(ackKey(target, id),
		func(any) { m.resolve(id) },
		m.ackTimeout,
		func() {
			m.resolve(id)
			util.Error("comms: no ack for message %d from vehicle %d within %s", id, target, m.ackTimeout)
			m.handler.HandleUnreachable(target)
		})
}

// resolve cancels the resend loop and drops the message from the outbox.
// The cancel and the removal happen in the same processing step, so a resend
// can never fire after resolution.
func (m *Messenger) resolve(id uint64) {
	entry, ok := m.outbox[id]
	if !ok {
		return
	}
	entry.cancelResend()
	delete(m.outbox, id)
}

// Receive runs one raw frame through validation, deduplication and
// dispatch.
func (m *Messenger) Receive(raw string) {
	env, err := parser.DecodeEnvelope(raw)
	if err != nil {
		var inv *parser.InvalidEnvelopeError
		switch {
		case errors.As(err, &inv):
			// reply only to a verified sender; anything else would invite
			// reply storms from spoofed frames
			if inv.HasSource && m.recognized(inv.SourceID) {
				util.Error("comms: %v from vehicle %d", inv, inv.SourceID)
				m.Send(inv.SourceID, model.BadMessagePayload{Error: inv.Reason})
			} else {
				util.Error("comms: %v (unidentifiable sender)", inv)
			}
		default:
			util.Error("comms: dropping non-JSON frame (%d bytes)", len(raw))
		}
		return
	}

	if !m.recognized(env.SourceID) {
		util.Error("comms: frame from unrecognized vehicle %d dropped", env.SourceID)
		return
	}

	kind := env.Kind()
	if !kind.Inbound() {
		util.Error("comms: received station-originated kind %q from vehicle %d", kind, env.SourceID)
		m.Send(env.SourceID, model.BadMessagePayload{
			Error: fmt.Sprintf("%q is not a valid message to the ground station", kind),
		})
		return
	}

	// Acks and badMessage replies carry no application state and are exempt
	// from dedup tracking, mirroring their exemption from requiring acks.
	switch kind {
	case model.KindAck:
		m.logReceived(env)
		ack := env.Payload.(model.AckPayload)
		m.reg.Fire(ackKey(env.SourceID, ack.AckID), true)
		return
	case model.KindBadMessage:
		m.logReceived(env)
		bad := env.Payload.(model.BadMessagePayload)
		util.Error("comms: vehicle %d rejected a message: %s", env.SourceID, bad.Error)
		return
	}

	if last, seen := m.lastSeen[env.SourceID]; seen && env.ID <= last {
		// retransmission of something already processed; the ack we sent
		// was presumably lost, so answer again without reprocessing
		m.Send(env.SourceID, model.AckPayload{AckID: env.ID})
		return
	}
	m.lastSeen[env.SourceID] = env.ID
	m.logReceived(env)

	m.Send(env.SourceID, model.AckPayload{AckID: env.ID})
	m.handler.HandleMessage(env)
}

// StopAll cancels every pending resend and timeout without flushing
// application state. Full shutdown only.
func (m *Messenger) StopAll() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	for id, entry := range m.outbox {
		entry.cancelResend()
		delete(m.outbox, id)
	}
	m.reg.ClearAll()
}

func (m *Messenger) logSent(env model.Envelope) {
	m.sent = append(m.sent, env)
	if len(m.sent) > logCap {
		m.sent = m.sent[len(m.sent)-logCap:]
	}
}

func (m *Messenger) logReceived(env model.Envelope) {
	m.received = append(m.received, env)
	if len(m.received) > logCap {
		m.received = m.received[len(m.received)-logCap:]
	}
}

// Stats reports counters for the dashboard and metrics endpoint.
func (m *Messenger) Stats() (sent, received, inFlight int) {
	return len(m.sent), len(m.received), len(m.outbox)
}
