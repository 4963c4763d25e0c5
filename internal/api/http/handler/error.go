package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dchukwu/identity-server/internal/model"
)

// handleError maps service errors onto HTTP responses. Reuse detection is
// deliberately indistinguishable from a plain invalid token on the wire; the
// distinction lives in the server logs only.
func handleError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	case errors.Is(err, model.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, model.ErrEmailNotVerified):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
	case errors.Is(err, model.ErrTokenExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
	case errors.Is(err, model.ErrTokenUsed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "token already used"})
	case errors.Is(err, model.ErrInvalidToken), errors.Is(err, model.ErrTokenReuse),
		errors.Is(err, model.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, model.ErrTransient):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
