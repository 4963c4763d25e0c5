package model

import "github.com/google/uuid"

// Identity is the authenticated principal extracted from an access token.
// Downstream consumers reject tokens missing either claim.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// RefreshClaims is the claim set carried by a refresh token.
type RefreshClaims struct {
	UserID   uuid.UUID
	Role     Role
	JTI      string
	FamilyID string
}

// TokenManager generates and validates access/refresh tokens. The two token
// kinds are signed with independent secrets and carry a typ marker, so a
// token of one kind never verifies as the other.
type TokenManager interface {
	GenerateAccessToken(userID uuid.UUID, role Role) (string, error)
	GenerateRefreshToken(userID uuid.UUID, role Role, familyID string) (token string, jti string, err error)
	ParseAccessToken(token string) (Identity, error)
	ParseRefreshToken(token string) (RefreshClaims, error)
}
