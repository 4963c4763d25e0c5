package model

import "github.com/google/uuid"

// ClientMeta describes the client presenting a credential. Both fields are
// optional and recorded on session records for audit purposes.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// UserSummary is the minimal user view returned on login. Never includes
// the password hash.
type UserSummary struct {
	ID    uuid.UUID
	Email string
	Role  Role
}

// Registration is the result of a successful registration. The raw
// verification token is returned so the caller can deliver it out-of-band.
type Registration struct {
	UserID            uuid.UUID
	VerificationToken string
}

// Session is the result of a successful login.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         UserSummary
}

// TokenPair is the result of a successful refresh rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
