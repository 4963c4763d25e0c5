// Package context moves the authenticated identity between middleware and
// handlers through the request context.
package context

import (
	"context"

	"github.com/dchukwu/identity-server/internal/model"
)

type ctxKey int

const identityKey ctxKey = iota

// Manager implements model.ContextManager over a private context key, so no
// other package can spoof the identity value.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext returns a child context carrying the identity.
func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentityFromContext retrieves the identity set by the authenticate
// middleware. The second return is false when the request never passed
// through it.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}
