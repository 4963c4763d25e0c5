package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VerificationTTL is how long an email-verification token stays valid.
const VerificationTTL = 24 * time.Hour

// VerificationTokenStore persists single-use email-verification tokens.
type VerificationTokenStore interface {
	Create(ctx context.Context, token VerificationToken) error
	GetByToken(ctx context.Context, token string) (VerificationToken, error)
	// Consume marks the token used, but only if it has not been used yet.
	// Returns ErrTokenUsed when another call got there first.
	Consume(ctx context.Context, id uuid.UUID) error
}

// VerificationToken is a one-time proof of email ownership. Many tokens may
// historically reference one user, but at most one is consumable.
type VerificationToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
