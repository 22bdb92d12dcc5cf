package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupUserRoutes registers public catalog routes and everything a signed-in user can do.
func SetupUserRoutes(router *mux.Router, c Controllers, g guards) {
	router.HandleFunc("/api/auth/register", c.Auth.HandleRegister).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", c.Auth.HandleLogin).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/admin/login", c.Auth.HandleAdminLogin).Methods(http.MethodPost)
	router.HandleFunc("/api/plans", c.Auth.HandlePlans).Methods(http.MethodGet)

	router.HandleFunc("/api/products", c.Shop.HandleListProducts).Methods(http.MethodGet)
	router.HandleFunc("/api/products/{id}", c.Shop.HandleGetProduct).Methods(http.MethodGet)
	router.HandleFunc("/api/issues", c.Shop.HandleListIssues).Methods(http.MethodGet)
	router.HandleFunc("/api/issues/{id}", c.Shop.HandleGetIssue).Methods(http.MethodGet)

	router.Handle("/api/me", g.user(c.Auth.HandleMe)).Methods(http.MethodGet)
	router.Handle("/api/me/subscription", g.user(c.Auth.HandleSubscription)).Methods(http.MethodGet)

	router.Handle("/api/dashboard", g.user(c.Dashboard.HandleDashboard)).Methods(http.MethodGet)
	router.Handle("/api/dashboard/export.csv", g.user(c.Dashboard.HandleExportCSV)).Methods(http.MethodGet)
	router.Handle("/api/devices", g.user(c.Dashboard.HandleListDevices)).Methods(http.MethodGet)
	router.Handle("/api/devices/{deviceId}/history", g.user(c.Dashboard.HandleHistory)).Methods(http.MethodGet)
	router.Handle("/api/devices/{deviceId}/claim", g.user(c.Dashboard.HandleClaimDevice)).Methods(http.MethodPost)

	router.Handle("/api/cart", g.user(c.Shop.HandleGetCart)).Methods(http.MethodGet)
	router.Handle("/api/cart", g.user(c.Shop.HandleClearCart)).Methods(http.MethodDelete)
	router.Handle("/api/cart/items", g.user(c.Shop.HandleAddToCart)).Methods(http.MethodPost)
	router.Handle("/api/cart/items/{productId}", g.user(c.Shop.HandleUpdateCartItem)).Methods(http.MethodPut)
	router.Handle("/api/cart/items/{productId}", g.user(c.Shop.HandleRemoveCartItem)).Methods(http.MethodDelete)
	router.Handle("/api/cart/checkout", g.user(c.Shop.HandleCheckout)).Methods(http.MethodPost)

	router.Handle("/api/notifications", g.user(c.Notifications.HandleList)).Methods(http.MethodGet)
	router.Handle("/api/notifications", g.user(c.Notifications.HandleClear)).Methods(http.MethodDelete)
	router.Handle("/api/notifications/read-all", g.user(c.Notifications.HandleMarkAllRead)).Methods(http.MethodPost)
	router.Handle("/api/notifications/{id}/read", g.user(c.Notifications.HandleMarkRead)).Methods(http.MethodPost)

	router.Handle("/api/troubleshoot", g.user(c.Troubleshoot.HandleTroubleshoot)).Methods(http.MethodPost)
}
