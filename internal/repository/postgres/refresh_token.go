package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dchukwu/identity-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (
            id, jti, family_id, user_id, issued_at, expires_at, revoked_at, replaced_by_jti, user_agent, ip, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
    `

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		token.ID, token.JTI, token.FamilyID, token.UserID, token.IssuedAt, token.ExpiresAt,
		token.RevokedAt, token.ReplacedByJTI, token.UserAgent, token.IP,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByJTI(ctx context.Context, jti string) (model.RefreshToken, error) {
	const query = `
        SELECT id, jti, family_id, user_id, issued_at, expires_at, revoked_at, replaced_by_jti, user_agent, ip, created_at, updated_at
        FROM refresh_tokens WHERE jti = $1
    `
	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, jti).Scan(
		&rt.ID, &rt.JTI, &rt.FamilyID, &rt.UserID, &rt.IssuedAt, &rt.ExpiresAt,
		&rt.RevokedAt, &rt.ReplacedByJTI, &rt.UserAgent, &rt.IP, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token by jti: %w", err)
	}
	return rt, nil
}

// MarkReplaced is the rotation linchpin: the replaced_by_jti column is set
// only while the row is still live, so of two concurrent rotations of the
// same token exactly one observes RowsAffected == 1.
func (r *RefreshTokenRepository) MarkReplaced(ctx context.Context, jti, newJTI string) error {
	const query = `
        UPDATE refresh_tokens SET replaced_by_jti = $2, updated_at = NOW()
        WHERE jti = $1 AND replaced_by_jti IS NULL AND revoked_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, jti, newJTI)
	if err != nil {
		return fmt.Errorf("failed to mark refresh token replaced: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenConsumed
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeByJTI(ctx context.Context, jti string) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
        WHERE jti = $1 AND revoked_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, jti); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyID string) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
        WHERE family_id = $1 AND revoked_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, familyID); err != nil {
		return fmt.Errorf("failed to revoke refresh token family: %w", err)
	}
	return nil
}
