package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dchukwu/identity-server/internal/model"
)

// Claims represents JWT claims with token type, role and family lineage.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	FamilyID  string `json:"fam,omitempty"`
}

// JWT implements TokenManager backed by symmetric HMAC. Access and refresh
// tokens are signed with independent secrets, so one kind can never be
// presented where the other is expected.
type JWT struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewJWT creates a new JWT token manager with the provided secrets and TTLs.
func NewJWT(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) model.TokenManager {
	return &JWT{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// GenerateAccessToken creates a short-lived access token carrying the
// subject and role claims.
func (j *JWT) GenerateAccessToken(userID uuid.UUID, role model.Role) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		Role:      string(role),
		TokenType: typeAccess,
	})

	tokenString, err := token.SignedString([]byte(j.accessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// GenerateRefreshToken creates a long-lived refresh token bound to a family
// and returns its JTI. A new family is started by passing a fresh family ID;
// rotation passes the family of the token being replaced.
func (j *JWT) GenerateRefreshToken(userID uuid.UUID, role model.Role, familyID string) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
		},
		Role:      string(role),
		TokenType: typeRefresh,
		FamilyID:  familyID,
	})

	tokenString, err := token.SignedString([]byte(j.refreshSecret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return tokenString, jti, nil
}

// ParseAccessToken validates an access token and extracts the principal.
// Tokens missing the subject or role claim are rejected.
func (j *JWT) ParseAccessToken(tokenString string) (model.Identity, error) {
	claims, err := j.parse(tokenString, j.accessSecret, typeAccess)
	if err != nil {
		return model.Identity{}, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Identity{}, fmt.Errorf("access token subject is not a valid id")
	}
	role := model.Role(claims.Role)
	if !role.IsValid() {
		return model.Identity{}, fmt.Errorf("access token role claim is missing or unknown")
	}

	return model.Identity{UserID: userID, Role: role}, nil
}

// ParseRefreshToken validates a refresh token and extracts its claim set.
func (j *JWT) ParseRefreshToken(tokenString string) (model.RefreshClaims, error) {
	claims, err := j.parse(tokenString, j.refreshSecret, typeRefresh)
	if err != nil {
		return model.RefreshClaims{}, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.RefreshClaims{}, fmt.Errorf("refresh token subject is not a valid id")
	}
	if claims.ID == "" || claims.FamilyID == "" {
		return model.RefreshClaims{}, fmt.Errorf("refresh token is missing lineage claims")
	}

	return model.RefreshClaims{
		UserID:   userID,
		Role:     model.Role(claims.Role),
		JTI:      claims.ID,
		FamilyID: claims.FamilyID,
	}, nil
}

func (j *JWT) parse(tokenString, secret, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	return claims, nil
}
