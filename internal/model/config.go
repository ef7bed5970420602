// Package model defines shared configuration structures used to initialize
// the FleetLink ground station.
package model

// Config represents the root structure loaded from configs/gcs.yml.
type Config struct {
	Radio    RadioConfig    `yaml:"radio"`
	Comms    CommsConfig    `yaml:"comms"`
	App      AppConfig      `yaml:"app"`
	Fleet    []FleetEntry   `yaml:"fleet"`
	Missions []MissionEntry `yaml:"missions"`
}

// FleetEntry whitelists one vehicle id on the radio link. Frames from ids
// not listed here are dropped without a reply.
type FleetEntry struct {
	ID   uint64 `yaml:"id"`
	Name string `yaml:"name"`
}

// RadioConfig describes the serial device carrying the half-duplex link.
type RadioConfig struct {
	Device string `yaml:"device"` // e.g. /dev/serial0
	Baud   int    `yaml:"baud"`
}

// CommsConfig tunes the reliability layer.
type CommsConfig struct {
	ResendIntervalMs int `yaml:"resend_interval_ms"` // periodic retransmit of unacked messages
	DisconnectMs     int `yaml:"disconnect_ms"`      // grace period before a silent vehicle is declared gone
}

// AppConfig describes the dashboard/notification server.
type AppConfig struct {
	Addr   string `yaml:"addr"`    // e.g. ":10000"; empty disables the server
	DBPath string `yaml:"db_path"` // bbolt file, defaults to tmp/gcs.db
}

// MissionEntry schedules one mission by kind name with its setup parameters.
type MissionEntry struct {
	Kind  string             `yaml:"kind"` // e.g. "ISRMission"
	Setup map[string]string  `yaml:"setup"`
	Input map[string]float64 `yaml:"input"` // input data for the first mission
}
