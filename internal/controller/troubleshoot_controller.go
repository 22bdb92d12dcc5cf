package controller

import (
	"net/http"

	"iotguardian/internal/service"
	"iotguardian/internal/utils"
)

type TroubleshootController struct {
	troubleshoot *service.TroubleshootService
	users        *service.UserService
}

func NewTroubleshootController(troubleshoot *service.TroubleshootService, users *service.UserService) *TroubleshootController {
	return &TroubleshootController{troubleshoot: troubleshoot, users: users}
}

// HandleTroubleshoot asks the selected AI model for a diagnosis.
func (c *TroubleshootController) HandleTroubleshoot(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r, c.users)
	if !ok {
		return
	}
	var req service.TroubleshootRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	result, err := c.troubleshoot.Diagnose(r.Context(), actor, req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}
