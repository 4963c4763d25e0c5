package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dchukwu/identity-server/internal/logger"
	"github.com/dchukwu/identity-server/internal/mocks"
	"github.com/dchukwu/identity-server/internal/model"
	"github.com/dchukwu/identity-server/internal/token"
)

// fakeRefreshStore is an in-memory RefreshTokenStore with the same
// conditional-write semantics as the Postgres repository. It exists so
// rotation interleavings can be driven from plain goroutines.
type fakeRefreshStore struct {
	mu      sync.Mutex
	records map[string]*model.RefreshToken
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{records: make(map[string]*model.RefreshToken)}
}

func (f *fakeRefreshStore) Create(_ context.Context, rt model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rt.JTI] = &rt
	return nil
}

func (f *fakeRefreshStore) GetByJTI(_ context.Context, jti string) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.records[jti]
	if !ok {
		return model.RefreshToken{}, model.ErrNotFound
	}
	return *rt, nil
}

func (f *fakeRefreshStore) MarkReplaced(_ context.Context, jti, newJTI string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.records[jti]
	if !ok || rt.ReplacedByJTI != nil || rt.RevokedAt != nil {
		return model.ErrTokenConsumed
	}
	rt.ReplacedByJTI = &newJTI
	return nil
}

func (f *fakeRefreshStore) RevokeByJTI(_ context.Context, jti string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt, ok := f.records[jti]; ok && rt.RevokedAt == nil {
		now := time.Now()
		rt.RevokedAt = &now
	}
	return nil
}

func (f *fakeRefreshStore) RevokeFamily(_ context.Context, familyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, rt := range f.records {
		if rt.FamilyID == familyID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeRefreshStore) all() []model.RefreshToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.RefreshToken, 0, len(f.records))
	for _, rt := range f.records {
		out = append(out, *rt)
	}
	return out
}

var _ model.RefreshTokenStore = (*fakeRefreshStore)(nil)

func newRotationFixture(t *testing.T, user model.User) (*TokenService, model.TokenManager, *fakeRefreshStore) {
	t.Helper()
	manager := token.NewJWT(
		"rotation-access-secret-0123456789abc",
		"rotation-refresh-secret-0123456789ab",
		15*time.Minute,
		time.Hour,
	)
	store := newFakeRefreshStore()
	users := &mocks.UserStore{}
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Maybe()
	return NewTokenService(manager, store, users, time.Hour, logger.New(0)), manager, store
}

func TestTokenService_RotationChainIntegrity(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New(), Role: model.RoleUser}
	svc, manager, store := newRotationFixture(t, user)

	const rotations = 5

	_, refresh, err := svc.Issue(ctx, user, model.ClientMeta{})
	require.NoError(t, err)

	chain := []string{refresh}
	for i := 0; i < rotations; i++ {
		pair, err := svc.Refresh(ctx, chain[len(chain)-1], model.ClientMeta{})
		require.NoError(t, err)
		chain = append(chain, pair.RefreshToken)
	}

	records := store.all()
	require.Len(t, records, rotations+1)

	byJTI := make(map[string]model.RefreshToken, len(records))
	families := make(map[string]struct{})
	for _, rt := range records {
		byJTI[rt.JTI] = rt
		families[rt.FamilyID] = struct{}{}
	}
	assert.Len(t, families, 1)

	// Every link points forward to its successor; only the tail is live.
	jtis := make([]string, 0, len(chain))
	for _, tok := range chain {
		claims, err := manager.ParseRefreshToken(tok)
		require.NoError(t, err)
		jtis = append(jtis, claims.JTI)
	}
	for i, jti := range jtis {
		rt, ok := byJTI[jti]
		require.True(t, ok)
		assert.Nil(t, rt.RevokedAt)
		if i < len(jtis)-1 {
			require.NotNil(t, rt.ReplacedByJTI)
			assert.Equal(t, jtis[i+1], *rt.ReplacedByJTI)
		} else {
			assert.Nil(t, rt.ReplacedByJTI)
		}
	}
}

func TestTokenService_ReplayBurnsWholeFamily(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New(), Role: model.RoleUser}
	svc, _, store := newRotationFixture(t, user)

	_, refresh1, err := svc.Issue(ctx, user, model.ClientMeta{})
	require.NoError(t, err)

	pair, err := svc.Refresh(ctx, refresh1, model.ClientMeta{})
	require.NoError(t, err)
	refresh2 := pair.RefreshToken

	// Replaying the consumed token burns the family.
	_, err = svc.Refresh(ctx, refresh1, model.ClientMeta{})
	require.ErrorIs(t, err, model.ErrTokenReuse)

	for _, rt := range store.all() {
		assert.NotNil(t, rt.RevokedAt)
	}

	// The legitimate holder's tail is gone too.
	_, err = svc.Refresh(ctx, refresh2, model.ClientMeta{})
	require.ErrorIs(t, err, model.ErrTokenReuse)
}

func TestTokenService_ConcurrentRotationRace(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New(), Role: model.RoleUser}
	svc, _, store := newRotationFixture(t, user)

	_, refresh, err := svc.Issue(ctx, user, model.ClientMeta{})
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, refresh, model.ClientMeta{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, reuses int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, model.ErrTokenReuse)
			reuses++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, reuses)

	// The loser's family revocation covers the winner's fresh record, so
	// nothing in the family is still usable.
	for _, rt := range store.all() {
		usable := rt.RevokedAt == nil && rt.ReplacedByJTI == nil
		assert.False(t, usable)
	}
}

func TestTokenService_LogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New(), Role: model.RoleUser}
	svc, _, store := newRotationFixture(t, user)

	_, refresh, err := svc.Issue(ctx, user, model.ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, refresh))
	require.NoError(t, svc.Logout(ctx, refresh))
	require.NoError(t, svc.Logout(ctx, "garbage"))

	records := store.all()
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].RevokedAt)

	// A revoked token presented for rotation is reuse, not expiry.
	_, err = svc.Refresh(ctx, refresh, model.ClientMeta{})
	require.ErrorIs(t, err, model.ErrTokenReuse)
}
