package controller

import (
	"net/http"

	"iotguardian/internal/plans"
	"iotguardian/internal/service"
	"iotguardian/internal/utils"
)

// AuthController handles signup, login and the caller's own profile.
type AuthController struct {
	auth  *service.AuthService
	users *service.UserService
}

func NewAuthController(auth *service.AuthService, users *service.UserService) *AuthController {
	return &AuthController{auth: auth, users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *AuthController) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	u, err := c.users.Register(req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful. Your account is awaiting admin approval.",
		"user":    c.users.View(u),
	})
}

func (c *AuthController) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	session, err := c.auth.Login(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, session)
}

func (c *AuthController) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	session, err := c.auth.AdminLogin(req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, session)
}

func (c *AuthController) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := c.users.Get(userID(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c.users.View(u))
}

func (c *AuthController) HandleSubscription(w http.ResponseWriter, r *http.Request) {
	info, err := c.users.SubscriptionInfo(userID(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, info)
}

// HandlePlans lists the purchasable plans.
func (c *AuthController) HandlePlans(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, plans.Catalog())
}
