package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	vehiclesConnected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gcs_vehicles_connected_total",
		Help: "Vehicles that completed a connect handshake.",
	})
	vehiclesDisconnected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gcs_vehicles_disconnected_total",
		Help: "Vehicles deactivated after an ack timeout or liveness lapse.",
	})
	missionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gcs_missions_completed_total",
		Help: "Missions that reached their completion callback.",
	})
)
