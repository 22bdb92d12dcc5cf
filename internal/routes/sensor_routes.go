package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupSensorRoutes registers the device-facing endpoints.
func SetupSensorRoutes(router *mux.Router, c Controllers, g guards) {
	router.HandleFunc("/api/sensor-data", c.Sensors.HandleSensorData).Methods(http.MethodPost)
	router.HandleFunc("/api/sensor-data", c.Sensors.HandleGetSensorData).Methods(http.MethodGet)

	router.Handle("/api/device-command/{deviceId}", g.authed(c.Sensors.HandleQueueCommand)).Methods(http.MethodPost)
	router.HandleFunc("/api/device-command/{deviceId}", c.Sensors.HandlePollCommand).Methods(http.MethodGet)
	router.HandleFunc("/api/device-command/{deviceId}/ack", c.Sensors.HandleAckCommand).Methods(http.MethodPost)
}
