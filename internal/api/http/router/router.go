package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dchukwu/identity-server/internal/api/http/handler"
	"github.com/dchukwu/identity-server/internal/api/http/middleware"
	"github.com/dchukwu/identity-server/internal/logger"
	"github.com/dchukwu/identity-server/internal/model"
	"github.com/dchukwu/identity-server/internal/service"
)

// Router wires handlers and middleware into an echo instance.
type Router struct {
	identityService *service.Identity
	tokenService    *service.TokenService
	users           model.UserStore
	db              handler.Pinger
	contextManager  model.ContextManager
	logger          *logger.Logger
}

// New creates a new Router instance.
func New(
	identityService *service.Identity,
	tokenService *service.TokenService,
	users model.UserStore,
	db handler.Pinger,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		identityService: identityService,
		tokenService:    tokenService,
		users:           users,
		db:              db,
		contextManager:  contextManager,
		logger:          logger,
	}
}

// Register registers all routes and middleware and returns the configured
// echo instance.
func (r *Router) Register() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	e.Use(echomw.Recover())
	e.Use(logging.Handle)

	healthHandler := handler.NewHealth(r.db, r.logger)
	e.GET("/healthz", healthHandler.Handle)

	authHandler := handler.NewAuth(r.identityService, r.tokenService, r.users, r.contextManager, r.logger)

	auth := e.Group("/api/v1/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/verify", authHandler.VerifyEmail)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, authenticate.Handle)

	admin := e.Group("/api/v1/admin", authenticate.Handle, authenticate.RequireRole(model.RoleAdmin))
	admin.GET("/users/:id", authHandler.GetUser)

	return e
}
