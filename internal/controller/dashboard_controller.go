package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"iotguardian/internal/models"
	"iotguardian/internal/service"
	"iotguardian/internal/utils"
)

// DashboardController serves the signed-in user's devices and readings.
type DashboardController struct {
	sensors *service.SensorService
	devices *service.DeviceService
	users   *service.UserService
}

func NewDashboardController(sensors *service.SensorService, devices *service.DeviceService, users *service.UserService) *DashboardController {
	return &DashboardController{sensors: sensors, devices: devices, users: users}
}

func (c *DashboardController) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := c.sensors.Dashboard(r.Context(), userID(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dash)
}

func (c *DashboardController) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := c.sensors.ExportCSV(r.Context(), userID(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithCSV(w, "iot_sensor_data.csv", data)
}

// HandleHistory returns windowed means for one owned device.
func (c *DashboardController) HandleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := models.HistoryQuery{
		DeviceID: mux.Vars(r)["deviceId"],
		Start:    query.Get("start"),
		Stop:     query.Get("stop"),
		Window:   query.Get("window"),
	}
	resp, err := c.sensors.History(r.Context(), userID(r), q)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *DashboardController) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := c.devices.ListOwned(userID(r))
	if devices == nil {
		devices = []models.Device{}
	}
	utils.RespondWithJSON(w, http.StatusOK, devices)
}

// HandleClaimDevice registers an unowned device to the caller within the plan limit.
func (c *DashboardController) HandleClaimDevice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r, c.users)
	if !ok {
		return
	}
	d, err := c.devices.Claim(actor.UserID, mux.Vars(r)["deviceId"], actor.Features)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, d)
}
