package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"iotguardian/internal/service"
	"iotguardian/internal/utils"
)

type NotificationController struct {
	notifications *service.NotificationService
}

func NewNotificationController(notifications *service.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

func (c *NotificationController) HandleList(w http.ResponseWriter, r *http.Request) {
	list, unread := c.notifications.List(userID(r))
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": list,
		"unreadCount":   unread,
	})
}

func (c *NotificationController) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := c.notifications.MarkRead(userID(r), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *NotificationController) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	c.notifications.MarkAllRead(userID(r))
	w.WriteHeader(http.StatusNoContent)
}

func (c *NotificationController) HandleClear(w http.ResponseWriter, r *http.Request) {
	c.notifications.Clear(userID(r))
	w.WriteHeader(http.StatusNoContent)
}
