package model

// VehicleStatus is the state a vehicle reports in its update messages.
type VehicleStatus string

const (
	StatusWaiting VehicleStatus = "WAITING"
	StatusReady   VehicleStatus = "READY"
	StatusRunning VehicleStatus = "RUNNING"
	StatusError   VehicleStatus = "ERROR"
)

// IsVehicleStatus reports whether s is a valid wire status value.
func IsVehicleStatus(s string) bool {
	switch VehicleStatus(s) {
	case StatusWaiting, StatusReady, StatusRunning, StatusError:
		return true
	}
	return false
}
