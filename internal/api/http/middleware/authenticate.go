package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dchukwu/identity-server/internal/logger"
	"github.com/dchukwu/identity-server/internal/model"
)

// TokenService resolves the principal from a bearer access token.
type TokenService interface {
	Authenticate(ctx context.Context, token string) (model.Identity, error)
}

// Authenticate validates bearer tokens and injects the identity into the
// request context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// Handle parses the Authorization header, validates the access token and
// passes the request on with the identity in its context. The response does
// not distinguish a missing header from a bad token.
func (m *Authenticate) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		tokenString := strings.TrimPrefix(auth, "Bearer ")

		identity, err := m.tokenService.Authenticate(c.Request().Context(), tokenString)
		if err != nil {
			m.logger.Debug("Authenticate middleware: token rejected",
				"error", err.Error())
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}

		ctx := m.contextManager.SetIdentityToContext(c.Request().Context(), identity)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
