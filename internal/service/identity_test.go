package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dchukwu/identity-server/internal/logger"
	"github.com/dchukwu/identity-server/internal/mocks"
	"github.com/dchukwu/identity-server/internal/model"
)

const dummyPassword = "identity-dummy-password"

func newHasherMock() *mocks.Hasher {
	hasher := &mocks.Hasher{}
	hasher.On("Hash", dummyPassword).Return("dummy-hash", nil).Once()
	return hasher
}

func TestIdentity_Register_Success(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	hasher.On("Hash", "s3cretpass").Return("hashed", nil).Once()
	users.On("Create", ctx, mock.MatchedBy(func(u model.User) bool {
		return u.Email == "jane@example.com" &&
			u.PasswordHash == "hashed" &&
			u.Role == model.RoleUser &&
			u.Status == model.StatusPending
	})).Return(func(_ context.Context, u model.User) model.User { return u }, nil).Once()
	verifications.On("Create", ctx, mock.MatchedBy(func(vt model.VerificationToken) bool {
		return vt.Token != "" && time.Until(vt.ExpiresAt) > 23*time.Hour
	})).Return(nil).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	reg, err := svc.Register(ctx, "Jane", "Jane@Example.COM ", "s3cretpass")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, reg.UserID)
	assert.NotEmpty(t, reg.VerificationToken)

	users.AssertExpectations(t)
	verifications.AssertExpectations(t)
}

func TestIdentity_Register_EmailTaken(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	hasher.On("Hash", "s3cretpass").Return("hashed", nil).Once()
	users.On("Create", ctx, mock.Anything).Return(model.User{}, model.ErrEmailTaken).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	_, err := svc.Register(ctx, "Jane", "jane@example.com", "s3cretpass")
	require.ErrorIs(t, err, model.ErrEmailTaken)
	verifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIdentity_Register_StoreError(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	hasher.On("Hash", "s3cretpass").Return("hashed", nil).Once()
	users.On("Create", ctx, mock.Anything).Return(model.User{}, assert.AnError).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	_, err := svc.Register(ctx, "Jane", "jane@example.com", "s3cretpass")
	require.ErrorIs(t, err, model.ErrTransient)
}

func TestIdentity_VerifyEmail_Success(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	vt := model.VerificationToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	verifications.On("GetByToken", ctx, "tok").Return(vt, nil).Once()
	verifications.On("Consume", ctx, vt.ID).Return(nil).Once()
	users.On("UpdateStatus", ctx, vt.UserID, model.StatusActive).Return(nil).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	require.NoError(t, svc.VerifyEmail(ctx, "tok"))
	users.AssertExpectations(t)
	verifications.AssertExpectations(t)
}

func TestIdentity_VerifyEmail_UnknownToken(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	verifications.On("GetByToken", ctx, "tok").Return(model.VerificationToken{}, model.ErrNotFound).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	require.ErrorIs(t, svc.VerifyEmail(ctx, "tok"), model.ErrInvalidToken)
}

func TestIdentity_VerifyEmail_AlreadyUsed(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	usedAt := time.Now().Add(-time.Minute)
	verifications.On("GetByToken", ctx, "tok").Return(model.VerificationToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
		UsedAt:    &usedAt,
	}, nil).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	require.ErrorIs(t, svc.VerifyEmail(ctx, "tok"), model.ErrTokenUsed)
	users.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdentity_VerifyEmail_Expired(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	verifications.On("GetByToken", ctx, "tok").Return(model.VerificationToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Token:     "tok",
		ExpiresAt: time.Now().Add(-time.Minute),
	}, nil).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	require.ErrorIs(t, svc.VerifyEmail(ctx, "tok"), model.ErrTokenExpired)
	users.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdentity_VerifyEmail_LostConsumeRace(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	vt := model.VerificationToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	verifications.On("GetByToken", ctx, "tok").Return(vt, nil).Once()
	verifications.On("Consume", ctx, vt.ID).Return(model.ErrTokenUsed).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	require.ErrorIs(t, svc.VerifyEmail(ctx, "tok"), model.ErrTokenUsed)
	users.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func newLoginTokenService(manager *mocks.TokenManager, store *mocks.RefreshTokenStore, users *mocks.UserStore) *TokenService {
	return NewTokenService(manager, store, users, 720*time.Hour, logger.New(0))
}

func TestIdentity_Login_Success(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()
	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}

	user := model.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: "hashed",
		Role:         model.RoleUser,
		Status:       model.StatusActive,
	}
	users.On("GetByEmail", ctx, "jane@example.com").Return(user, nil).Once()
	hasher.On("Verify", "hashed", "s3cretpass").Return(true).Once()
	users.On("UpdateLastLogin", ctx, user.ID, mock.Anything).Return(nil).Once()
	manager.On("GenerateAccessToken", user.ID, model.RoleUser).Return("access", nil).Once()
	manager.On("GenerateRefreshToken", user.ID, model.RoleUser, mock.Anything).Return("refresh", "jti-1", nil).Once()
	store.On("Create", ctx, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.JTI == "jti-1" && rt.UserID == user.ID && rt.FamilyID != "" && rt.UserAgent == "cli"
	})).Return(nil).Once()

	svc := NewIdentity(users, verifications, hasher, newLoginTokenService(manager, store, users), logger.New(0))

	session, err := svc.Login(ctx, "Jane@example.com", "s3cretpass", model.ClientMeta{UserAgent: "cli"})
	require.NoError(t, err)
	assert.Equal(t, "access", session.AccessToken)
	assert.Equal(t, "refresh", session.RefreshToken)
	assert.Equal(t, user.ID, session.User.ID)
	assert.Equal(t, user.Email, session.User.Email)
	assert.Equal(t, model.RoleUser, session.User.Role)

	store.AssertExpectations(t)
}

func TestIdentity_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	users.On("GetByEmail", ctx, "jane@example.com").Return(model.User{}, model.ErrNotFound).Once()
	// Latency equalization: the dummy hash is still compared.
	hasher.On("Verify", "dummy-hash", "s3cretpass").Return(false).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	_, err := svc.Login(ctx, "jane@example.com", "s3cretpass", model.ClientMeta{})
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	hasher.AssertExpectations(t)
}

func TestIdentity_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	users.On("GetByEmail", ctx, "jane@example.com").Return(model.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: "hashed",
		Status:       model.StatusActive,
	}, nil).Once()
	hasher.On("Verify", "hashed", "wrong").Return(false).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	_, err := svc.Login(ctx, "jane@example.com", "wrong", model.ClientMeta{})
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestIdentity_Login_PendingUser(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	users.On("GetByEmail", ctx, "jane@example.com").Return(model.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: "hashed",
		Status:       model.StatusPending,
	}, nil).Once()
	hasher.On("Verify", "hashed", "s3cretpass").Return(true).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	_, err := svc.Login(ctx, "jane@example.com", "s3cretpass", model.ClientMeta{})
	require.ErrorIs(t, err, model.ErrEmailNotVerified)
}

func TestIdentity_Login_PendingUserWrongPassword(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	verifications := &mocks.VerificationTokenStore{}
	hasher := newHasherMock()

	users.On("GetByEmail", ctx, "jane@example.com").Return(model.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: "hashed",
		Status:       model.StatusPending,
	}, nil).Once()
	hasher.On("Verify", "hashed", "wrong").Return(false).Once()

	svc := NewIdentity(users, verifications, hasher, nil, logger.New(0))

	// The password verdict comes first; a pending account with a wrong
	// password does not reveal its verification state.
	_, err := svc.Login(ctx, "jane@example.com", "wrong", model.ClientMeta{})
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}
