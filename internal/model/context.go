package model

import "context"

// ContextManager moves the authenticated identity in and out of a request
// context.
type ContextManager interface {
	SetIdentityToContext(ctx context.Context, identity Identity) context.Context
	GetIdentityFromContext(ctx context.Context) (Identity, bool)
}
