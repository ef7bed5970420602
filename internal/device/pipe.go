package device

import (
	"errors"
	"time"
)

// ErrClosed is returned by pipe operations after Close.
var ErrClosed = errors.New("device closed")

// PipeDevice is an in-memory Device. Frames written by one end appear on the
// reads of its peer. Used by tests and by the bench simulator in place of a
// physical radio.
type PipeDevice struct {
	in   chan string
	out  chan string
	done chan struct{}
}

// NewPipe creates two connected devices: what a writes, b reads, and the
// other way around.
func NewPipe() (a, b *PipeDevice) {
	ab := make(chan string, 64)
	ba := make(chan string, 64)
	done := make(chan struct{})
	return &PipeDevice{in: ba, out: ab, done: done},
		&PipeDevice{in: ab, out: ba, done: done}
}

// ReadLine returns the next frame from the peer.
func (p *PipeDevice) ReadLine(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		select {
		case line := <-p.in:
			return line, nil
		case <-p.done:
			return "", ErrClosed
		}
	}
	select {
	case line := <-p.in:
		return line, nil
	case <-p.done:
		return "", ErrClosed
	case <-time.After(timeout):
		return "", errors.New("read timeout")
	}
}

// WriteLine delivers a frame to the peer. Frames written to a full pipe are
// dropped, like a saturated radio.
func (p *PipeDevice) WriteLine(line string) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.out <- line:
	default:
	}
	return nil
}

// Close shuts both ends of the pipe.
func (p *PipeDevice) Close() error {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	return nil
}
