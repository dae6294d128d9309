package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"datamarket/internal/auth"
	"datamarket/internal/errors"
)

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

func errorResponse(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(message, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func invalidBody() error {
	return badRequest("invalid request body", "INVALID_REQUEST")
}

func validationError(err error) error {
	return badRequest(err.Error(), "VALIDATION_ERROR")
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid "+name, "INVALID_ID")
	}
	return uint(id), nil
}

// currentClaims returns the authenticated caller. Routes using it sit
// behind the JWT middleware, so a miss is a wiring bug reported as 401.
func currentClaims(c echo.Context) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return nil, errorResponse(errors.ErrUnauthorized)
	}
	return claims, nil
}
