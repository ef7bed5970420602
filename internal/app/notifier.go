package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.etcd.io/bbolt"

	"FleetLink/internal/fleet"
	"FleetLink/internal/mission"
)

const resultsBucket = "results"
const telemetryBucket = "telemetry"

// event is the wire shape of one dashboard notification.
type event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// VehicleConnected implements the core notifier surface.
func (a *App) VehicleConnected(v *fleet.Vehicle) {
	vehiclesConnected.Inc()
	a.broadcast(event{Event: "vehicleConnected", Data: vehicleView(v)})
}

// VehicleUpdated broadcasts fresh telemetry and stores the latest report
// per vehicle.
func (a *App) VehicleUpdated(v *fleet.Vehicle) {
	view := vehicleView(v)
	a.broadcast(event{Event: "vehicleUpdated", Data: view})
	a.store(telemetryBucket, fmt.Sprintf("%d", view.ID), view)
}

// VehicleDisconnected implements the core notifier surface.
func (a *App) VehicleDisconnected(v *fleet.Vehicle) {
	vehiclesDisconnected.Inc()
	a.broadcast(event{Event: "vehicleDisconnected", Data: vehicleView(v)})
}

// MissionStatusChanged implements the core notifier surface.
func (a *App) MissionStatusChanged(name string, status mission.Status) {
	a.broadcast(event{Event: "missionStatus", Data: map[string]string{
		"name":   name,
		"status": string(status),
	}})
}

// MissionCompleted broadcasts and persists a finished mission's terminated
// data.
func (a *App) MissionCompleted(name string, data mission.Input) {
	missionsCompleted.Inc()
	record := map[string]any{
		"name": name,
		"data": data,
		"at":   time.Now().Format(time.RFC3339Nano),
	}
	a.broadcast(event{Event: "missionCompleted", Data: record})
	a.store(resultsBucket, time.Now().Format(time.RFC3339Nano), record)
}

// store writes one JSON record into a bucket.
func (a *App) store(bucket, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[app] warning: failed to marshal %s record: %v", bucket, err)
		return
	}
	err = a.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		log.Printf("[app] warning: failed to store %s record: %v", bucket, err)
	}
}

func vehicleView(v *fleet.Vehicle) VehicleView {
	return VehicleView{
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
	}
}
