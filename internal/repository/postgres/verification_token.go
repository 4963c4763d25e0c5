package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dchukwu/identity-server/internal/model"
)

var _ model.VerificationTokenStore = (*VerificationTokenRepository)(nil)

type VerificationTokenRepository struct {
	db *Connection
}

func NewVerificationTokenRepository(db *Connection) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db}
}

func (r *VerificationTokenRepository) Create(ctx context.Context, token model.VerificationToken) error {
	const query = `
        INSERT INTO verification_tokens (id, user_id, token, expires_at, used_at, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
    `

	if _, err := r.db.Exec(ctx, query,
		token.ID, token.UserID, token.Token, token.ExpiresAt, token.UsedAt,
	); err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

func (r *VerificationTokenRepository) GetByToken(ctx context.Context, token string) (model.VerificationToken, error) {
	const query = `
        SELECT id, user_id, token, expires_at, used_at, created_at
        FROM verification_tokens WHERE token = $1
    `
	var vt model.VerificationToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&vt.ID, &vt.UserID, &vt.Token, &vt.ExpiresAt, &vt.UsedAt, &vt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.VerificationToken{}, model.ErrNotFound
		}
		return model.VerificationToken{}, fmt.Errorf("failed to get verification token: %w", err)
	}
	return vt, nil
}

// Consume sets used_at on the token only if it is still unused, so two
// concurrent verify calls cannot both succeed.
func (r *VerificationTokenRepository) Consume(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE verification_tokens SET used_at = NOW()
        WHERE id = $1 AND used_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to consume verification token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenUsed
	}
	return nil
}
