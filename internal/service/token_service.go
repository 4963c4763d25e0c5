package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dchukwu/identity-server/internal/logger"
	"github.com/dchukwu/identity-server/internal/model"
)

// TokenService is the session engine. Every issued refresh token is shadowed
// by a store record; rotation advances the family chain one link at a time,
// and a token presented after it was already rotated or revoked burns the
// whole family.
type TokenService struct {
	manager    model.TokenManager
	store      model.RefreshTokenStore
	users      model.UserStore
	refreshTTL time.Duration
	logger     *logger.Logger
}

func NewTokenService(
	manager model.TokenManager,
	store model.RefreshTokenStore,
	users model.UserStore,
	refreshTTL time.Duration,
	logger *logger.Logger,
) *TokenService {
	return &TokenService{
		manager:    manager,
		store:      store,
		users:      users,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Issue mints a fresh access/refresh pair and opens a new rotation family.
// Each login gets its own family; families never merge.
func (s *TokenService) Issue(ctx context.Context, user model.User, meta model.ClientMeta) (access string, refresh string, err error) {
	familyID := uuid.NewString()

	access, err = s.manager.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, jti, err := s.manager.GenerateRefreshToken(user.ID, user.Role, familyID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	record := model.RefreshToken{
		ID:        uuid.New(),
		JTI:       jti,
		FamilyID:  familyID,
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
	}
	if err := s.store.Create(ctx, record); err != nil {
		return "", "", transient("create refresh token record", err)
	}

	s.logger.Debug("Token service: session issued",
		"user_id", user.ID,
		"family_id", familyID)

	return access, refresh, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is minted within the same family. Presenting a token that was already
// consumed or revoked is treated as theft evidence and revokes the entire
// family, including whichever descendant the legitimate holder is using.
func (s *TokenService) Refresh(ctx context.Context, presented string, meta model.ClientMeta) (model.TokenPair, error) {
	claims, err := s.manager.ParseRefreshToken(presented)
	if err != nil {
		if errors.Is(err, model.ErrTokenExpired) {
			return model.TokenPair{}, model.ErrTokenExpired
		}
		return model.TokenPair{}, model.ErrInvalidToken
	}

	record, err := s.store.GetByJTI(ctx, claims.JTI)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, model.ErrInvalidToken
	}
	if err != nil {
		return model.TokenPair{}, transient("get refresh token record", err)
	}

	// Reuse is checked before expiry: a replayed token must burn the family
	// even when it has also expired by now.
	if record.RevokedAt != nil || record.ReplacedByJTI != nil {
		return model.TokenPair{}, s.handleReuse(ctx, record)
	}

	if !time.Now().Before(record.ExpiresAt) {
		return model.TokenPair{}, model.ErrTokenExpired
	}

	// The owning user should always exist; a dangling record means the
	// ledger and the users table disagree.
	user, err := s.users.GetByID(ctx, record.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.TokenPair{}, transient("get token owner", err)
	}

	access, err := s.manager.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, newJTI, err := s.manager.GenerateRefreshToken(user.ID, user.Role, record.FamilyID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	successor := model.RefreshToken{
		ID:        uuid.New(),
		JTI:       newJTI,
		FamilyID:  record.FamilyID,
		UserID:    record.UserID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
	}
	if err := s.store.Create(ctx, successor); err != nil {
		return model.TokenPair{}, transient("create successor record", err)
	}

	// The successor exists before the predecessor is consumed, so of two
	// concurrent rotations the loser's family revocation always covers the
	// winner's freshly minted record.
	if err := s.store.MarkReplaced(ctx, record.JTI, newJTI); err != nil {
		if errors.Is(err, model.ErrTokenConsumed) {
			return model.TokenPair{}, s.handleReuse(ctx, record)
		}
		return model.TokenPair{}, transient("mark refresh token replaced", err)
	}

	s.logger.Debug("Token service: session rotated",
		"user_id", record.UserID,
		"family_id", record.FamilyID)

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the presented refresh token. It is best-effort: a token
// that fails verification is ignored, repeating a logout is a no-op, and no
// outcome is reported to the caller beyond store availability.
func (s *TokenService) Logout(ctx context.Context, presented string) error {
	claims, err := s.manager.ParseRefreshToken(presented)
	if err != nil {
		s.logger.Debug("Token service: logout with unverifiable token")
		return nil
	}

	if err := s.store.RevokeByJTI(ctx, claims.JTI); err != nil {
		return transient("revoke refresh token", err)
	}

	s.logger.Debug("Token service: session revoked",
		"user_id", claims.UserID)

	return nil
}

// Authenticate validates an access token and returns the principal it
// carries. Refresh tokens are rejected here regardless of signature.
func (s *TokenService) Authenticate(ctx context.Context, access string) (model.Identity, error) {
	identity, err := s.manager.ParseAccessToken(access)
	if err != nil {
		if errors.Is(err, model.ErrTokenExpired) {
			return model.Identity{}, model.ErrTokenExpired
		}
		return model.Identity{}, model.ErrInvalidToken
	}
	return identity, nil
}

// handleReuse revokes every live record in the family and reports the replay.
// The revocation write completes before the error is returned.
func (s *TokenService) handleReuse(ctx context.Context, record model.RefreshToken) error {
	s.logger.Warn("Token service: refresh token reuse detected",
		"user_id", record.UserID,
		"family_id", record.FamilyID,
		"jti", record.JTI)

	if err := s.store.RevokeFamily(ctx, record.FamilyID); err != nil {
		return transient("revoke token family", err)
	}

	return model.ErrTokenReuse
}
