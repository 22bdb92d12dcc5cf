package controller

import (
	"errors"
	"net/http"

	"iotguardian/internal/auth"
	"iotguardian/internal/logx"
	"iotguardian/internal/middleware"
	"iotguardian/internal/models"
	"iotguardian/internal/service"
	"iotguardian/internal/utils"
)

// errorMapping ties a service error kind to its HTTP representation.
var errorMapping = []struct {
	kind   error
	code   models.ErrorCode
	status int
}{
	{service.ErrValidation, models.ErrorCodeBadRequest, http.StatusBadRequest},
	{service.ErrNotFound, models.ErrorCodeNotFound, http.StatusNotFound},
	{service.ErrConflict, models.ErrorCodeDuplicateResource, http.StatusConflict},
	{service.ErrUnauthorized, models.ErrorCodeUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, models.ErrorCodeForbidden, http.StatusForbidden},
	{service.ErrPlanRequired, models.ErrorCodePlanRequired, http.StatusForbidden},
	{service.ErrQuotaExceeded, models.ErrorCodeQuotaExceeded, http.StatusTooManyRequests},
	{service.ErrUnavailable, models.ErrorCodeServiceUnavailable, http.StatusServiceUnavailable},
	{service.ErrUpstream, models.ErrorCodeBadGateway, http.StatusBadGateway},
}

// respondWithServiceError translates a service error into the APIError envelope.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeValidationFailed, "Validation failed", verr.Fields, http.StatusBadRequest))
		return
	}

	for _, m := range errorMapping {
		if !errors.Is(err, m.kind) {
			continue
		}
		msg := m.kind.Error()
		var serr *service.Error
		if errors.As(err, &serr) {
			msg = serr.Message
		}
		utils.RespondWithError(w, models.NewAPIError(m.code, msg, nil, m.status))
		return
	}

	logx.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Unhandled error")
	utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInternalServerError, "Internal server error", nil, http.StatusInternalServerError))
}

// actorFrom builds the caller identity from the token claims.
func actorFrom(w http.ResponseWriter, r *http.Request, users *service.UserService) (service.Actor, bool) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeUnauthorized, "Authentication required", nil, http.StatusUnauthorized))
		return service.Actor{}, false
	}
	if claims.Role == auth.RoleAdmin {
		return service.Actor{UserID: claims.Subject, Admin: true}, true
	}
	features, err := users.Features(claims.Subject)
	if err != nil {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInvalidToken, "Account no longer exists", nil, http.StatusUnauthorized))
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.Subject, Features: features}, true
}

// userID returns the token subject. Routes using it sit behind Authenticate.
func userID(r *http.Request) string {
	claims, _ := middleware.ClaimsFrom(r)
	if claims == nil {
		return ""
	}
	return claims.Subject
}
