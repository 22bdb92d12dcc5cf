package controller

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"iotguardian/internal/models"
	"iotguardian/internal/service"
	"iotguardian/internal/utils"
)

// SensorController handles device-facing HTTP requests: readings in, commands out.
type SensorController struct {
	sensors  *service.SensorService
	commands *service.CommandService
	users    *service.UserService
}

func NewSensorController(sensors *service.SensorService, commands *service.CommandService, users *service.UserService) *SensorController {
	return &SensorController{sensors: sensors, commands: commands, users: users}
}

// HandleSensorData stores the latest reading posted by a device.
func (c *SensorController) HandleSensorData(w http.ResponseWriter, r *http.Request) {
	var in service.SensorInput
	if !utils.DecodeJSON(w, r, &in) {
		return
	}

	reading, err := c.sensors.Ingest(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Data received successfully",
		"data":    reading,
	})
}

// HandleGetSensorData returns the latest reading of every device.
func (c *SensorController) HandleGetSensorData(w http.ResponseWriter, r *http.Request) {
	readings := c.sensors.Latest()
	if readings == nil {
		readings = []models.SensorReading{}
	}
	utils.RespondWithJSON(w, http.StatusOK, readings)
}

// HandleQueueCommand queues an ON/OFF command for a device.
func (c *SensorController) HandleQueueCommand(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]
	actor, ok := actorFrom(w, r, c.users)
	if !ok {
		return
	}

	var req service.CommandRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	cmd, err := c.commands.Queue(r.Context(), actor, deviceID, req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "success",
		"message":        fmt.Sprintf("Command %s queued for device %s.", cmd.Command, deviceID),
		"deviceId":       deviceID,
		"commandDetails": cmd,
	})
}

// HandlePollCommand lets a device fetch its pending command.
func (c *SensorController) HandlePollCommand(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]
	cmd, err := c.commands.Pending(r.Context(), deviceID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if cmd == nil {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("No pending commands for device %s.", deviceID),
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cmd)
}

// HandleAckCommand marks the pending command as applied by the device.
func (c *SensorController) HandleAckCommand(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]
	cmd, err := c.commands.Ack(r.Context(), deviceID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "acknowledged",
		"deviceId":       deviceID,
		"commandDetails": cmd,
	})
}
