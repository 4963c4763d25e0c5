package model

import "errors"

// Closed error taxonomy of the identity core. Services recover every store
// and crypto failure into one of these kinds; no raw errors cross the
// service boundary uninterpreted.
var (
	// ErrNotFound is the generic store miss, mapped by services into a
	// more specific kind before it reaches a caller.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken signals a duplicate email on registration.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailNotVerified is returned when the password verifies but the
	// account is still pending.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrInvalidToken covers signature, format and wrong-kind failures as
	// well as tokens with no matching ledger record.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for a token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenUsed is returned for a verification token consumed earlier.
	ErrTokenUsed = errors.New("token already used")

	// ErrTokenReuse signals replay of a consumed or revoked refresh token.
	// The transport maps it to the same response as ErrInvalidToken; it
	// stays distinct internally for security logging.
	ErrTokenReuse = errors.New("refresh token reuse detected")

	// ErrTokenConsumed is the store-level outcome of losing the rotation
	// race: the conditional replaced-by update matched no live row.
	ErrTokenConsumed = errors.New("refresh token already rotated")

	// ErrUserNotFound signals a session record whose owning user is gone.
	ErrUserNotFound = errors.New("user not found")

	// ErrTransient signals a store failure with no partial state change;
	// the whole operation is safe to retry.
	ErrTransient = errors.New("store temporarily unavailable")
)
