package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dchukwu/identity-server/internal/logger"
	"github.com/dchukwu/identity-server/internal/model"
)

// minPasswordLength is enforced at the edge; the service layer never sees
// passwords shorter than this.
const minPasswordLength = 8

// IdentityService covers registration, verification and login.
type IdentityService interface {
	Register(ctx context.Context, name, email, password string) (model.Registration, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string, meta model.ClientMeta) (model.Session, error)
}

// TokenService covers the session lifecycle after login.
type TokenService interface {
	Refresh(ctx context.Context, token string, meta model.ClientMeta) (model.TokenPair, error)
	Logout(ctx context.Context, token string) error
}

// UserProvider resolves a user by id for the profile endpoints.
type UserProvider interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
}

// Auth handles the authentication HTTP endpoints.
type Auth struct {
	identityService IdentityService
	tokenService    TokenService
	users           UserProvider
	contextManager  model.ContextManager
	logger          *logger.Logger
}

// NewAuth creates a new Auth handler instance.
func NewAuth(
	identityService IdentityService,
	tokenService TokenService,
	users UserProvider,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		identityService: identityService,
		tokenService:    tokenService,
		users:           users,
		contextManager:  contextManager,
		logger:          logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID            uuid.UUID `json:"user_id"`
	VerificationToken string    `json:"verification_token"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type loginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type profileResponse struct {
	ID     uuid.UUID    `json:"id"`
	Name   string       `json:"name"`
	Email  string       `json:"email"`
	Role   model.Role   `json:"role"`
	Status model.Status `json:"status"`
}

// Register creates a pending account. The verification token is returned in
// the response body; delivering it by email is out of scope for this server.
func (h *Auth) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and email required"})
	}
	if !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}
	if len(req.Password) < minPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password too short"})
	}

	reg, err := h.identityService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusCreated, registerResponse{
		UserID:            reg.UserID,
		VerificationToken: reg.VerificationToken,
	})
}

// VerifyEmail consumes a verification token and activates the account.
func (h *Auth) VerifyEmail(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	if err := h.identityService.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "verified"})
}

// Login verifies credentials and starts a new session.
func (h *Auth) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password required"})
	}

	session, err := h.identityService.Login(c.Request().Context(), req.Email, req.Password, clientMeta(c))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User: userResponse{
			ID:    session.User.ID,
			Email: session.User.Email,
			Role:  session.User.Role,
		},
	})
}

// Refresh rotates a refresh token.
func (h *Auth) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	pair, err := h.tokenService.Refresh(c.Request().Context(), req.RefreshToken, clientMeta(c))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the presented refresh token. The endpoint always answers
// 204: an unverifiable or already-revoked token reveals nothing.
func (h *Auth) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.tokenService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		h.logger.Error("Auth handler: logout failed",
			"error", err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// Me returns the profile of the authenticated user.
func (h *Auth) Me(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := h.contextManager.GetIdentityFromContext(ctx)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	user, err := h.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, profileResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Status: user.Status,
	})
}

// GetUser returns any user's profile by id. Reserved for admins via the
// role guard on its route.
func (h *Auth) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	user, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, profileResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Status: user.Status,
	})
}

func clientMeta(c echo.Context) model.ClientMeta {
	return model.ClientMeta{
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	}
}
