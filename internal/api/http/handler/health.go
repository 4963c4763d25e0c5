package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dchukwu/identity-server/internal/logger"
)

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers readiness probes.
type Health struct {
	db     Pinger
	logger *logger.Logger
}

// NewHealth creates a new Health handler instance.
func NewHealth(db Pinger, logger *logger.Logger) *Health {
	return &Health{db: db, logger: logger}
}

// Handle reports ok when the database answers a ping.
func (h *Health) Handle(c echo.Context) error {
	if err := h.db.Ping(c.Request().Context()); err != nil {
		h.logger.Error("Health handler: database ping failed",
			"error", err.Error())
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
