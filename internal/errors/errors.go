package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrBadRequest is returned when required parameters are missing or malformed.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized is returned when no usable bearer token was presented.
	ErrUnauthorized = errors.New("access denied: no token provided")
	// ErrForbidden is returned when the caller is authenticated but not allowed.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidSession is returned when a token is badly signed, expired or revoked.
	ErrInvalidSession = errors.New("invalid or expired token")
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when signing up with an email that is already registered.
	ErrConflict = errors.New("email already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotFound is returned when a password reset is requested for an unknown email.
	ErrEmailNotFound = errors.New("email not found")
	// ErrInvalidToken is returned when a password reset token is absent, mismatched or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidRole is returned when a role change names an unknown role.
	ErrInvalidRole = errors.New(`invalid role. Must be "admin" or "user"`)
	// ErrInvalidReference is returned when a purchase names a missing user or dataset.
	ErrInvalidReference = errors.New("user or dataset does not exist")
	// ErrNotPurchased is returned when downloading a dataset the user has not bought.
	ErrNotPurchased = errors.New("dataset not purchased")
	// ErrVerificationFailed is returned when a payment signature does not match.
	ErrVerificationFailed = errors.New("payment verification failed")
	// ErrPaymentNotConfigured is returned when the gateway credentials are missing.
	ErrPaymentNotConfigured = errors.New("payment gateway is not configured")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped errors are
// matched with errors.Is so services may add context freely.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrBadRequest):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidSession):
		return NewHTTPError(http.StatusForbidden, ErrInvalidSession.Error(), "INVALID_SESSION")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrNotPurchased):
		return NewHTTPError(http.StatusForbidden, ErrNotPurchased.Error(), "NOT_PURCHASED")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, ErrConflict.Error(), "EMAIL_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrEmailNotFound):
		return NewHTTPError(http.StatusBadRequest, ErrEmailNotFound.Error(), "EMAIL_NOT_FOUND")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidToken.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidRole.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrInvalidReference):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_REFERENCE")
	case errors.Is(err, ErrVerificationFailed):
		return NewHTTPError(http.StatusBadRequest, ErrVerificationFailed.Error(), "VERIFICATION_FAILED")
	case errors.Is(err, ErrPaymentNotConfigured):
		return NewHTTPError(http.StatusServiceUnavailable, ErrPaymentNotConfigured.Error(), "PAYMENT_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
