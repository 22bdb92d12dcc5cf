package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"iotguardian/internal/logx"
	"iotguardian/internal/models"
	"iotguardian/internal/service"
	"iotguardian/internal/utils"
)

// AdminController backs the admin panel.
type AdminController struct {
	users    *service.UserService
	devices  *service.DeviceService
	commands *service.CommandService
	issues   *service.IssueService
}

func NewAdminController(users *service.UserService, devices *service.DeviceService, commands *service.CommandService, issues *service.IssueService) *AdminController {
	return &AdminController{users: users, devices: devices, commands: commands, issues: issues}
}

func (c *AdminController) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users := c.users.List(r.URL.Query().Get("q"))
	if users == nil {
		users = []models.UserView{}
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

func (c *AdminController) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	u, err := c.users.Create(req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, u)
}

func (c *AdminController) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	u, err := c.users.Update(mux.Vars(r)["id"], req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

func (c *AdminController) setStatus(status models.UserStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := c.users.SetStatus(mux.Vars(r)["id"], status)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, u)
	}
}

func (c *AdminController) HandleApproveUser(w http.ResponseWriter, r *http.Request) {
	c.setStatus(models.UserStatusActive)(w, r)
}

func (c *AdminController) HandleRejectUser(w http.ResponseWriter, r *http.Request) {
	c.setStatus(models.UserStatusRejected)(w, r)
}

func (c *AdminController) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := c.users.Delete(mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type broadcastRequest struct {
	Message string `json:"message"`
}

// HandleBroadcast sends an admin notification to every active user.
func (c *AdminController) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	n, err := c.users.BroadcastToActive(req.Message)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]int{"recipients": n})
}

func (c *AdminController) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := c.devices.List()
	if devices == nil {
		devices = []models.Device{}
	}
	utils.RespondWithJSON(w, http.StatusOK, devices)
}

func (c *AdminController) HandleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req service.DeviceRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	d, err := c.devices.Create(req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, d)
}

func (c *AdminController) HandleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var req service.DeviceRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	d, err := c.devices.Update(mux.Vars(r)["id"], req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, d)
}

func (c *AdminController) HandleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := c.devices.Delete(id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := c.commands.Forget(r.Context(), id); err != nil {
		logx.Warn().Err(err).Str("deviceId", id).Msg("could not drop stored command")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AdminController) HandleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var req service.IssueRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	is, err := c.issues.Create(req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, is)
}

func (c *AdminController) HandleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	var req service.IssueRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	is, err := c.issues.Update(mux.Vars(r)["id"], req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, is)
}

func (c *AdminController) HandleDeleteIssue(w http.ResponseWriter, r *http.Request) {
	if err := c.issues.Delete(mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AdminController) HandleExportIssues(w http.ResponseWriter, r *http.Request) {
	data, err := c.issues.ExportCSV()
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithCSV(w, "issues_export.csv", data)
}
