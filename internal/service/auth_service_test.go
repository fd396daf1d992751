package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/auth"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/config"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

func newAuthService(users *fakeUsers, resets *fakeResets) *AuthService {
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:               "test-secret",
		AccessTokenTTLMinutes:   15,
		PasswordResetTTLMinutes: 30,
		BcryptCost:              bcrypt.MinCost,
	}, AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
		TxManager:         &fakeTx{},
	})
	svc.now = tick
	return svc
}

func registerJuana(t *testing.T, svc *AuthService) *Session {
	t.Helper()
	session, err := svc.Register(context.Background(), RegisterInput{
		Name:         "Juana Santos",
		Email:        "  Juana@Brgy.test ",
		Password:     "secret-pass",
		MobileNumber: "09181234567",
		AddressSitio: "Sitio Uno",
	})
	require.NoError(t, err)
	return session
}

func TestRegisterCreatesResident(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users, newFakeResets())

	session := registerJuana(t, svc)

	assert.Equal(t, domain.RoleResident, session.User.Role)
	assert.Equal(t, "juana@brgy.test", session.User.Email)
	assert.NotEqual(t, "secret-pass", session.User.PasswordHash)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, domain.RoleResident, claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(newFakeUsers(), newFakeResets())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "", Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	registerJuana(t, svc)
	_, err = svc.Register(ctx, RegisterInput{Name: "Again", Email: "juana@brgy.test", Password: "another-pass"})
	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestLogin(t *testing.T) {
	svc := newAuthService(newFakeUsers(), newFakeResets())
	ctx := context.Background()
	registerJuana(t, svc)

	session, err := svc.Login(ctx, "JUANA@brgy.test", "secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = svc.Login(ctx, "juana@brgy.test", "wrong-pass")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	_, err = svc.Login(ctx, "nobody@brgy.test", "secret-pass")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestChangePassword(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users, newFakeResets())
	ctx := context.Background()
	session := registerJuana(t, svc)
	actor := actorOf(*session.User)

	err := svc.ChangePassword(ctx, actor, "wrong-pass", "new-secret-pass")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	err = svc.ChangePassword(ctx, actor, "secret-pass", "short")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	require.NoError(t, svc.ChangePassword(ctx, actor, "secret-pass", "new-secret-pass"))
	stored := users.get(session.User.ID)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "new-secret-pass"))

	err = svc.ChangePassword(ctx, Actor{}, "a", "b")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestPasswordResetFlow(t *testing.T) {
	users := newFakeUsers()
	resets := newFakeResets()
	svc := newAuthService(users, resets)
	ctx := context.Background()
	session := registerJuana(t, svc)

	missing, err := svc.RequestPasswordReset(ctx, "nobody@brgy.test")
	require.NoError(t, err)
	assert.Nil(t, missing)

	token, err := svc.RequestPasswordReset(ctx, "juana@brgy.test")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, session.User.ID, token.UserID)

	err = svc.ConfirmPasswordReset(ctx, "unknown-token", "reset-pass-123")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token.Token, "reset-pass-123"))
	stored := users.get(session.User.ID)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "reset-pass-123"))

	err = svc.ConfirmPasswordReset(ctx, token.Token, "another-pass-123")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestPasswordResetExpires(t *testing.T) {
	svc := newAuthService(newFakeUsers(), newFakeResets())
	ctx := context.Background()
	registerJuana(t, svc)

	token, err := svc.RequestPasswordReset(ctx, "juana@brgy.test")
	require.NoError(t, err)

	svc.now = func() time.Time { return token.ExpiresAt.Add(time.Minute) }
	err = svc.ConfirmPasswordReset(ctx, token.Token, "reset-pass-123")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}
