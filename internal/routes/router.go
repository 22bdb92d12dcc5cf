package routes

import (
	"fmt"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/gorilla/mux"

	"iotguardian/internal/auth"
	"iotguardian/internal/controller"
	"iotguardian/internal/middleware"
	"iotguardian/internal/models"
	"iotguardian/internal/telemetry"
	"iotguardian/internal/utils"
)

// Controllers groups every HTTP controller the router mounts.
type Controllers struct {
	Sensors       *controller.SensorController
	Dashboard     *controller.DashboardController
	Auth          *controller.AuthController
	Admin         *controller.AdminController
	Shop          *controller.ShopController
	Notifications *controller.NotificationController
	Troubleshoot  *controller.TroubleshootController
}

// guards wraps handlers with the authentication chain.
type guards struct {
	authn  func(http.Handler) http.Handler
	active func(http.Handler) http.Handler
}

// authed accepts a valid token of either role whose account is still active.
func (g guards) authed(h http.HandlerFunc) http.Handler {
	return g.authn(g.active(h))
}

func (g guards) user(h http.HandlerFunc) http.Handler {
	return g.authn(middleware.RequireRole(auth.RoleUser)(g.active(h)))
}

func (g guards) admin(h http.HandlerFunc) http.Handler {
	return g.authn(middleware.RequireRole(auth.RoleAdmin)(h))
}

// SetupRouter defines all API routes. Every route sits on the root router so
// its NotFound and MethodNotAllowed handlers answer for the whole API.
func SetupRouter(c Controllers, validate jwtmiddleware.ValidateToken, accounts middleware.AccountLookup, metrics *telemetry.Metrics) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)
	if metrics != nil {
		router.Use(metrics.Middleware)
		router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound, "Route not found", nil, http.StatusNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMethodNotAllowed, "Method not allowed", nil, http.StatusMethodNotAllowed))
	})

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}).Methods(http.MethodGet)

	g := guards{
		authn:  middleware.Authenticate(validate),
		active: middleware.RequireActiveAccount(accounts),
	}
	SetupSensorRoutes(router, c, g)
	SetupUserRoutes(router, c, g)
	SetupAdminRoutes(router, c, g)

	return router
}
