package middleware

import (
	"errors"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"

	"iotguardian/internal/auth"
	"iotguardian/internal/logx"
	"iotguardian/internal/models"
	"iotguardian/internal/utils"
)

// Authenticate rejects requests without a valid bearer token and stores its claims in the context.
func Authenticate(validate jwtmiddleware.ValidateToken) func(http.Handler) http.Handler {
	m := jwtmiddleware.New(validate, jwtmiddleware.WithErrorHandler(tokenErrorHandler))
	return m.CheckJWT
}

func tokenErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	logx.Debug().Err(err).Str("path", r.URL.Path).Msg("JWT authentication failed")
	if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeUnauthorized, "Authorization header missing", nil, http.StatusUnauthorized))
		return
	}
	utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInvalidToken, "Invalid or expired token", nil, http.StatusUnauthorized))
}

// ClaimsFrom returns the claims stored by Authenticate.
func ClaimsFrom(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// RequireRole lets through only tokens carrying role.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r)
			if !ok {
				utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeUnauthorized, "Authentication required", nil, http.StatusUnauthorized))
				return
			}
			if claims.Role != role {
				logx.Warn().Str("subject", claims.Subject).Str("role", string(claims.Role)).Str("path", r.URL.Path).Msg("Insufficient role")
				utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInsufficientPermissions, "Insufficient permissions", nil, http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccountLookup resolves a token subject to its stored account.
type AccountLookup func(userID string) (models.User, error)

// RequireActiveAccount rejects user tokens whose account was deleted or is no longer active.
// Admin tokens pass through.
func RequireActiveAccount(lookup AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r)
			if !ok {
				utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeUnauthorized, "Authentication required", nil, http.StatusUnauthorized))
				return
			}
			if claims.Role == auth.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			u, err := lookup(claims.Subject)
			if err != nil || u.Status != models.UserStatusActive {
				logx.Info().Str("subject", claims.Subject).Str("path", r.URL.Path).Msg("Token for inactive account")
				utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInvalidToken, "Account is no longer active", nil, http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
