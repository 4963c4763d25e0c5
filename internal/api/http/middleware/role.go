package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dchukwu/identity-server/internal/model"
)

// RequireRole guards a route group behind a role. It must run after Handle,
// which is the only producer of the context identity.
func (m *Authenticate) RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := m.contextManager.GetIdentityFromContext(c.Request().Context())
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			if identity.Role != role {
				m.logger.Debug("Authenticate middleware: insufficient role",
					"user_id", identity.UserID,
					"role", identity.Role)
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}

			return next(c)
		}
	}
}
