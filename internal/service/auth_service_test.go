package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserStore) {
	t.Helper()
	users := newFakeUserStore()
	svc := NewAuthService(users, "test-secret", time.Hour, zap.NewNop())

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &model.User{
		ID:             "u1",
		Username:       "dana",
		HashedPassword: string(hashed),
		Role:           model.RoleTeacher,
		Status:         model.UserStatusActive,
	}))
	return svc, users
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "dana", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)

	actor, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", actor.UserID)
	assert.Equal(t, model.RoleTeacher, actor.Role)

	user, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, user.LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "dana", "wrong")
	assert.True(t, errors.Is(err, model.ErrUnauthorized))

	_, err = svc.Login(ctx, "nobody", "correct-horse")
	assert.True(t, errors.Is(err, model.ErrUnauthorized))
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, users.SetStatus(ctx, "u1", model.UserStatusSuspended))

	_, err := svc.Login(ctx, "dana", "correct-horse")
	assert.True(t, errors.Is(err, model.ErrForbidden))
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	assert.True(t, errors.Is(err, model.ErrUnauthorized))
}

func TestAuthenticateRejectsTokenOfSuspendedUser(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "dana", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, users.SetStatus(ctx, "u1", model.UserStatusSuspended))

	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.True(t, errors.Is(err, model.ErrForbidden))
}

func TestRefresh(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "dana", "correct-horse")
	require.NoError(t, err)

	renewed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, renewed.AccessToken)

	actor, err := svc.Authenticate(ctx, renewed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", actor.UserID)
}
