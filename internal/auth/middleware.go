package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "datamarket/internal/errors"
	"datamarket/internal/model"
)

// ContextKey is where the authenticated *Claims are stored on echo.Context.
const ContextKey = "user"

// ClaimsFrom returns the claims placed on the context by the JWT middleware.
func ClaimsFrom(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(ContextKey).(*Claims)
	return claims, ok && claims != nil
}

// HasBearer reports whether the request carries an Authorization header of
// the form "Bearer <token>".
func HasBearer(r *http.Request) bool {
	h := r.Header.Get(echo.HeaderAuthorization)
	return strings.HasPrefix(h, "Bearer ") && strings.TrimSpace(h[len("Bearer "):]) != ""
}

// RequireRole rejects requests whose token does not carry role.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthorized)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			if claims.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: string(role) + " access only",
					Code:  "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}
