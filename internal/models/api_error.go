package models

import "fmt"

// ErrorCode is a string type for consistent error codes.
type ErrorCode string

// Predefined error codes for common API errors.
const (
	// Generic
	ErrorCodeInternalServerError ErrorCode = "internal_server_error"
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodeForbidden           ErrorCode = "forbidden"
	ErrorCodeUnauthorized        ErrorCode = "unauthorized"
	ErrorCodeMethodNotAllowed    ErrorCode = "method_not_allowed"
	ErrorCodeServiceUnavailable  ErrorCode = "service_unavailable"
	ErrorCodeBadGateway          ErrorCode = "bad_gateway"

	// Authentication & Authorization
	ErrorCodeInvalidToken            ErrorCode = "invalid_token"
	ErrorCodeInsufficientPermissions ErrorCode = "insufficient_permissions"

	// Plan gating
	ErrorCodePlanRequired  ErrorCode = "plan_required"
	ErrorCodeQuotaExceeded ErrorCode = "quota_exceeded"

	// Validation
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeInvalidFormat    ErrorCode = "invalid_format"

	// Resource Specific
	ErrorCodeDuplicateResource ErrorCode = "duplicate_resource"
)

type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	StatusCode int       `json:"-"`
}

// Error makes APIError implement the error interface.
func (e APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewAPIError is a constructor for APIError.
func NewAPIError(code ErrorCode, message string, details any, statusCode int) APIError {
	return APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}
