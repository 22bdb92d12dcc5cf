package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupAdminRoutes registers the admin panel. Every route requires the admin role.
func SetupAdminRoutes(router *mux.Router, c Controllers, g guards) {
	router.Handle("/api/admin/users", g.admin(c.Admin.HandleListUsers)).Methods(http.MethodGet)
	router.Handle("/api/admin/users", g.admin(c.Admin.HandleCreateUser)).Methods(http.MethodPost)
	router.Handle("/api/admin/users/{id}", g.admin(c.Admin.HandleUpdateUser)).Methods(http.MethodPut)
	router.Handle("/api/admin/users/{id}", g.admin(c.Admin.HandleDeleteUser)).Methods(http.MethodDelete)
	router.Handle("/api/admin/users/{id}/approve", g.admin(c.Admin.HandleApproveUser)).Methods(http.MethodPost)
	router.Handle("/api/admin/users/{id}/reject", g.admin(c.Admin.HandleRejectUser)).Methods(http.MethodPost)

	router.Handle("/api/admin/devices", g.admin(c.Admin.HandleListDevices)).Methods(http.MethodGet)
	router.Handle("/api/admin/devices", g.admin(c.Admin.HandleCreateDevice)).Methods(http.MethodPost)
	router.Handle("/api/admin/devices/{id}", g.admin(c.Admin.HandleUpdateDevice)).Methods(http.MethodPut)
	router.Handle("/api/admin/devices/{id}", g.admin(c.Admin.HandleDeleteDevice)).Methods(http.MethodDelete)

	router.Handle("/api/admin/issues/export.csv", g.admin(c.Admin.HandleExportIssues)).Methods(http.MethodGet)
	router.Handle("/api/admin/issues", g.admin(c.Admin.HandleCreateIssue)).Methods(http.MethodPost)
	router.Handle("/api/admin/issues/{id}", g.admin(c.Admin.HandleUpdateIssue)).Methods(http.MethodPut)
	router.Handle("/api/admin/issues/{id}", g.admin(c.Admin.HandleDeleteIssue)).Methods(http.MethodDelete)

	router.Handle("/api/admin/notifications", g.admin(c.Admin.HandleBroadcast)).Methods(http.MethodPost)
}
