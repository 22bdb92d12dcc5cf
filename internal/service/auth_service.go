package service

import (
	"crypto/subtle"
	"time"

	"iotguardian/internal/auth"
	"iotguardian/internal/logx"
	"iotguardian/internal/models"
)

// Session is returned by a successful login.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Role      auth.Role        `json:"role"`
	User      *models.UserView `json:"user,omitempty"`
}

// AuthService exchanges credentials for signed tokens.
type AuthService struct {
	issuer        *auth.Issuer
	users         *UserService
	adminUsername string
	adminPassword string
}

func NewAuthService(issuer *auth.Issuer, users *UserService, adminUsername, adminPassword string) *AuthService {
	return &AuthService{issuer: issuer, users: users, adminUsername: adminUsername, adminPassword: adminPassword}
}

// Login authenticates an approved user.
func (s *AuthService) Login(email, password string) (Session, error) {
	u, err := s.users.Authenticate(email, password)
	if err != nil {
		return Session{}, err
	}
	token, expires, err := s.issuer.Issue(u.ID, auth.RoleUser)
	if err != nil {
		return Session{}, err
	}
	view := s.users.View(u)
	return Session{Token: token, ExpiresAt: expires, Role: auth.RoleUser, User: &view}, nil
}

// AdminLogin checks the configured administrator credentials.
func (s *AuthService) AdminLogin(username, password string) (Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
	if !userOK || !passOK {
		logx.Warn().Str("username", username).Msg("Failed admin login")
		return Session{}, newError(ErrUnauthorized, "Invalid admin credentials.")
	}
	token, expires, err := s.issuer.Issue(s.adminUsername, auth.RoleAdmin)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expires, Role: auth.RoleAdmin}, nil
}
