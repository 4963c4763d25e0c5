package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dchukwu/identity-server/internal/logger"
	"github.com/dchukwu/identity-server/internal/model"
	"github.com/dchukwu/identity-server/internal/password"
)

// Identity orchestrates registration, email verification and login. It owns
// the write path to users and verification tokens; the stores underneath are
// passive adapters.
type Identity struct {
	users         model.UserStore
	verifications model.VerificationTokenStore
	hasher        password.Hasher
	tokens        *TokenService
	logger        *logger.Logger

	// dummyHash is compared against when the email is unknown, so login
	// latency does not reveal whether the account exists.
	dummyHash string
}

func NewIdentity(
	users model.UserStore,
	verifications model.VerificationTokenStore,
	hasher password.Hasher,
	tokens *TokenService,
	logger *logger.Logger,
) *Identity {
	dummyHash, err := hasher.Hash("identity-dummy-password")
	if err != nil {
		logger.Error("Identity service: failed to precompute dummy hash",
			"error", err.Error())
	}

	return &Identity{
		users:         users,
		verifications: verifications,
		hasher:        hasher,
		tokens:        tokens,
		logger:        logger,
		dummyHash:     dummyHash,
	}
}

// Register creates a pending user and a single-use verification token with a
// 24-hour TTL. The raw token is returned so the caller can deliver it
// out-of-band; it is never logged.
func (s *Identity) Register(ctx context.Context, name, email, pass string) (model.Registration, error) {
	email = normalizeEmail(email)

	s.logger.Debug("Identity service: registering user",
		"email", email)

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return model.Registration{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Status:       model.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := s.users.Create(ctx, user)
	if errors.Is(err, model.ErrEmailTaken) {
		s.logger.Info("Identity service: email already registered",
			"email", email)
		return model.Registration{}, model.ErrEmailTaken
	}
	if err != nil {
		return model.Registration{}, transient("create user", err)
	}

	vt := model.VerificationToken{
		ID:        uuid.New(),
		UserID:    saved.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(model.VerificationTTL),
	}
	if err := s.verifications.Create(ctx, vt); err != nil {
		return model.Registration{}, transient("create verification token", err)
	}

	s.logger.Info("Identity service: user registered",
		"user_id", saved.ID)

	return model.Registration{UserID: saved.ID, VerificationToken: vt.Token}, nil
}

// VerifyEmail consumes a verification token and activates the owning user.
// Verification is strictly single-use and time-bounded: a token found used
// or expired never flips the user's status.
func (s *Identity) VerifyEmail(ctx context.Context, tok string) error {
	vt, err := s.verifications.GetByToken(ctx, tok)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrInvalidToken
	}
	if err != nil {
		return transient("get verification token", err)
	}

	if vt.UsedAt != nil {
		return model.ErrTokenUsed
	}
	if !time.Now().Before(vt.ExpiresAt) {
		return model.ErrTokenExpired
	}

	// Conditional consume: a concurrent verify of the same token loses here.
	if err := s.verifications.Consume(ctx, vt.ID); err != nil {
		if errors.Is(err, model.ErrTokenUsed) {
			return model.ErrTokenUsed
		}
		return transient("consume verification token", err)
	}

	if err := s.users.UpdateStatus(ctx, vt.UserID, model.StatusActive); err != nil {
		return transient("activate user", err)
	}

	s.logger.Info("Identity service: email verified",
		"user_id", vt.UserID)

	return nil
}

// Login verifies credentials and starts a new session family. Unknown email
// and wrong password produce the identical error; the password hash is
// always compared, against a dummy when the user is absent.
func (s *Identity) Login(ctx context.Context, email, pass string, meta model.ClientMeta) (model.Session, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		s.hasher.Verify(s.dummyHash, pass)
		return model.Session{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.Session{}, transient("get user by email", err)
	}

	if !s.hasher.Verify(user.PasswordHash, pass) {
		return model.Session{}, model.ErrInvalidCredentials
	}

	if user.Status != model.StatusActive {
		return model.Session{}, model.ErrEmailNotVerified
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		return model.Session{}, transient("update last login", err)
	}

	access, refresh, err := s.tokens.Issue(ctx, user, meta)
	if err != nil {
		return model.Session{}, err
	}

	s.logger.Info("Identity service: user logged in",
		"user_id", user.ID)

	return model.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User: model.UserSummary{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// transient wraps a store failure so callers can retry the whole operation;
// no step leaves partial state behind.
func transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrTransient, err)
}
