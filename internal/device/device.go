// Package device defines the transport boundary of the ground station: a
// line-oriented link that carries one JSON envelope (or garbage) per frame.
package device

import "time"

// Device is an abstract half-duplex frame link (LoRa serial, test pipe).
type Device interface {
	// ReadLine reads a single frame terminated by '\n'.
	// If timeout > 0, it must return after timeout even if no data available.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes s followed by '\n' to the link.
	WriteLine(s string) error

	// Close closes the link and releases underlying resources.
	Close() error
}
