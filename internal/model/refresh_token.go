package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore persists the session ledger: one row per issued refresh
// token. All mutations are keyed conditional writes so that concurrent
// rotations of the same family race safely without a distributed lock.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByJTI(ctx context.Context, jti string) (RefreshToken, error)
	// MarkReplaced links the record to its successor, but only if the record
	// is still live (neither replaced nor revoked). Returns ErrTokenConsumed
	// when the conditional update matches no row; the caller treats a lost
	// race as a reuse event.
	MarkReplaced(ctx context.Context, jti, newJTI string) error
	// RevokeByJTI revokes a single record. Revoking an already-revoked
	// record is a no-op.
	RevokeByJTI(ctx context.Context, jti string) error
	// RevokeFamily revokes every currently-unrevoked record in the family.
	RevokeFamily(ctx context.Context, familyID string) error
}

// RefreshToken is the durable shadow of an issued refresh token.
//
// A record is live until either ReplacedByJTI is set (consumed by a normal
// rotation, provenance kept for reuse detection) or RevokedAt is set
// (logout, reuse detection, family revocation). Both states are terminal.
// Records sharing a FamilyID descend from a single login.
type RefreshToken struct {
	ID            uuid.UUID
	JTI           string
	FamilyID      string
	UserID        uuid.UUID
	IssuedAt      time.Time
	ExpiresAt     time.Time
	RevokedAt     *time.Time
	ReplacedByJTI *string
	UserAgent     string
	IP            string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
