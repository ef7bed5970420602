// Package util provides helper functions for logging events
package util

import (
	"fmt"
	"io"
	"log"
	"time"
)

// SetupLogger configures the standard logger for the process. Timestamps are
// added by Info/Error, so the default flags are cleared.
func SetupLogger() {
	log.SetFlags(0)
}

// Silence discards all log output. Used by tests.
func Silence() {
	log.SetOutput(io.Discard)
}

// Info prints general system information messages with timestamp.
func Info(msg string, args ...any) {
	log.Printf("[INFO] %s | %s", time.Now().Format(time.RFC3339), fmt.Sprintf(msg, args...))
}

// Error prints error messages with timestamp.
func Error(msg string, args ...any) {
	log.Printf("[ERROR] %s | %s", time.Now().Format(time.RFC3339), fmt.Sprintf(msg, args...))
}
