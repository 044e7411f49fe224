package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twin-dashboard/internal/model"
	"twin-dashboard/internal/password"
	"twin-dashboard/internal/repository"
	"twin-dashboard/internal/token"
	"twin-dashboard/pkg/apierror"
	"twin-dashboard/pkg/authapi"
)

type capturingNotifier struct {
	email string
	token string
}

func (n *capturingNotifier) ResetRequested(_ context.Context, email string, resetToken string, _ time.Time) {
	n.email = email
	n.token = resetToken
}

func newTestAuthService(t *testing.T) (*AuthService, *capturingNotifier) {
	t.Helper()

	notifier := &capturingNotifier{}
	svc, err := NewAuthService(
		repository.NewMemoryUserStore(),
		repository.NewMemoryResetStore(),
		token.NewService("test-secret", time.Hour),
		notifier,
		30*time.Minute,
	)
	require.NoError(t, err)
	return svc, notifier
}

func register(t *testing.T, svc *AuthService, email string) model.User {
	t.Helper()

	user, err := svc.Register(context.Background(), authapi.RegisterRequest{
		Email:    email,
		Password: "password123",
		FullName: "Test User",
		Company:  "Manufacturing Co.",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)

	created := register(t, svc, "someone@example.com")
	assert.Equal(t, authapi.RoleUser, created.Role)
	assert.Equal(t, model.StatusActive, created.Status)

	accessToken, user, err := svc.Login(ctx, "someone@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	claims, err := token.NewService("test-secret", time.Hour).Validate(accessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, authapi.RoleUser, claims.Role)
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)
	register(t, svc, "someone@example.com")

	_, _, wrongPassword := svc.Login(ctx, "someone@example.com", "not-the-password")
	_, _, unknownEmail := svc.Login(ctx, "nobody@example.com", "password123")

	assert.ErrorIs(t, wrongPassword, model.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, model.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownEmail)
}

func TestLoginDisabledAccount(t *testing.T) {
	ctx := context.Background()

	users := repository.NewMemoryUserStore()
	svc, err := NewAuthService(users, repository.NewMemoryResetStore(),
		token.NewService("test-secret", time.Hour), nil, time.Minute)
	require.NoError(t, err)

	hash, err := password.Hash("password123")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, model.User{
		ID:           "blocked-1",
		Email:        "blocked@example.com",
		FullName:     "Blocked User",
		PasswordHash: hash,
		Role:         authapi.RoleUser,
		Status:       model.StatusDisabled,
	}))

	_, _, err = svc.Login(ctx, "blocked@example.com", "password123")
	assert.ErrorIs(t, err, model.ErrAccountDisabled)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)
	first := register(t, svc, "someone@example.com")

	_, err := svc.Register(ctx, authapi.RegisterRequest{
		Email: "Someone@Example.com", Password: "password123", FullName: "Imposter",
	})
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)

	// The first registration still logs in.
	_, user, err := svc.Login(ctx, "someone@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, first.ID, user.ID)
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), authapi.RegisterRequest{
		Email: "someone@example.com", Password: "short", FullName: "Test",
	})

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.HTTPStatus)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)
	created := register(t, svc, "someone@example.com")

	err := svc.ChangePassword(ctx, created.ID, "wrong-current", "newpassword1")
	assert.ErrorIs(t, err, model.ErrIncorrectPassword)

	require.NoError(t, svc.ChangePassword(ctx, created.ID, "password123", "newpassword1"))

	_, _, err = svc.Login(ctx, "someone@example.com", "password123")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "someone@example.com", "newpassword1")
	assert.NoError(t, err)
}

func TestForgotResetPasswordFlow(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newTestAuthService(t)
	register(t, svc, "someone@example.com")

	// Unknown email succeeds without issuing anything.
	require.NoError(t, svc.ForgotPassword(ctx, "nobody@example.com"))
	assert.Empty(t, notifier.token)

	require.NoError(t, svc.ForgotPassword(ctx, "someone@example.com"))
	require.NotEmpty(t, notifier.token)
	assert.Equal(t, "someone@example.com", notifier.email)

	require.NoError(t, svc.ResetPassword(ctx, notifier.token, "resetpassword1"))

	_, _, err := svc.Login(ctx, "someone@example.com", "resetpassword1")
	require.NoError(t, err)

	// Single use: the same token never works twice.
	err = svc.ResetPassword(ctx, notifier.token, "anotherpassword1")
	assert.ErrorIs(t, err, model.ErrResetTokenInvalid)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	ctx := context.Background()

	notifier := &capturingNotifier{}
	svc, err := NewAuthService(
		repository.NewMemoryUserStore(),
		repository.NewMemoryResetStore(),
		token.NewService("test-secret", time.Hour),
		notifier,
		-time.Minute, // already expired on issue
	)
	require.NoError(t, err)

	register(t, svc, "someone@example.com")
	require.NoError(t, svc.ForgotPassword(ctx, "someone@example.com"))
	require.NotEmpty(t, notifier.token)

	err = svc.ResetPassword(ctx, notifier.token, "resetpassword1")
	assert.ErrorIs(t, err, model.ErrResetTokenExpired)

	// Expired consumption still burned the token.
	err = svc.ResetPassword(ctx, notifier.token, "resetpassword1")
	assert.ErrorIs(t, err, model.ErrResetTokenInvalid)
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "admin@example.com", "password123"))

	_, admin, err := svc.Login(ctx, "admin@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, authapi.RoleAdmin, admin.Role)

	// Second call is a no-op once any user exists.
	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "other@example.com", "password123"))
	_, _, err = svc.Login(ctx, "other@example.com", "password123")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}
