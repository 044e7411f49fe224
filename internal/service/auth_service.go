package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"twin-dashboard/internal/model"
	"twin-dashboard/internal/password"
	"twin-dashboard/internal/token"
	"twin-dashboard/pkg/apierror"
	"twin-dashboard/pkg/authapi"
)

const minPasswordLength = 8

// UserStore is the credential store contract the auth service depends on.
// Implemented by repository.UserRepository (Postgres) and
// repository.MemoryUserStore.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	UpdateProfile(ctx context.Context, id string, fields model.ProfileUpdate) (model.User, error)
	UpdateCredential(ctx context.Context, id string, update func(model.User) (string, error)) error
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int, error)
}

// ResetStore holds pending password-reset requests keyed by token hash.
type ResetStore interface {
	Create(ctx context.Context, reset model.PasswordReset) error
	Consume(ctx context.Context, tokenHash string) (model.PasswordReset, error)
}

// ResetNotifier delivers a freshly issued reset token out of band. The
// server response never contains the token.
type ResetNotifier interface {
	ResetRequested(ctx context.Context, email string, resetToken string, expiresAt time.Time)
}

// LogNotifier is the development delivery path: it records that a reset was
// issued and surfaces the token only at debug level.
type LogNotifier struct{}

func (LogNotifier) ResetRequested(_ context.Context, email string, resetToken string, expiresAt time.Time) {
	slog.Info("password reset token issued", "email", email, "expires_at", expiresAt)
	slog.Debug("password reset token (dev delivery)", "token", resetToken)
}

type AuthService struct {
	users    UserStore
	resets   ResetStore
	tokens   *token.Service
	notifier ResetNotifier
	resetTTL time.Duration

	// dummyHash is verified against when login hits an unknown email, so
	// "no such user" and "wrong password" take comparable time.
	dummyHash string
}

// NewAuthService wires the auth flows. The verifier self-check runs here so
// a malfunctioning verifier aborts construction instead of silently denying
// or bypassing authentication later.
func NewAuthService(users UserStore, resets ResetStore, tokens *token.Service, notifier ResetNotifier, resetTTL time.Duration) (*AuthService, error) {
	if err := password.SelfCheck(); err != nil {
		return nil, fmt.Errorf("password verifier self-check: %w", err)
	}

	dummyHash, err := password.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("password verifier self-check: %w", err)
	}
	if ok, err := password.Verify("not-the-probe", dummyHash); err != nil || ok {
		return nil, fmt.Errorf("password verifier self-check: mismatch probe verified (ok=%v err=%v)", ok, err)
	}

	if notifier == nil {
		notifier = LogNotifier{}
	}

	return &AuthService{
		users:     users,
		resets:    resets,
		tokens:    tokens,
		notifier:  notifier,
		resetTTL:  resetTTL,
		dummyHash: dummyHash,
	}, nil
}

// Login verifies the credential and issues an access token. Unknown email
// and wrong password are deliberately indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email string, plaintext string) (string, model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			_, _ = password.Verify(plaintext, s.dummyHash)
			return "", model.User{}, model.ErrInvalidCredentials
		}
		return "", model.User{}, err
	}

	ok, err := password.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return "", model.User{}, fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		return "", model.User{}, model.ErrInvalidCredentials
	}

	if user.Status != model.StatusActive {
		return "", model.User{}, model.ErrAccountDisabled
	}

	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		return "", model.User{}, err
	}

	return accessToken, user, nil
}

// Register creates a new identity. It never issues a token; callers log in
// separately.
func (s *AuthService) Register(ctx context.Context, req authapi.RegisterRequest) (model.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return model.User{}, apierror.New("VALIDATION", "A valid email is required", http.StatusBadRequest)
	}
	if strings.TrimSpace(req.FullName) == "" {
		return model.User{}, apierror.New("VALIDATION", "Full name is required", http.StatusBadRequest)
	}
	if err := validatePassword(req.Password); err != nil {
		return model.User{}, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return model.User{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Company:      strings.TrimSpace(req.Company),
		PasswordHash: hash,
		Role:         authapi.RoleUser,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, err
	}

	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *AuthService) UpdateProfile(ctx context.Context, id string, req authapi.UpdateProfileRequest) (model.User, error) {
	return s.users.UpdateProfile(ctx, id, model.ProfileUpdate{
		FullName: req.FullName,
		Company:  req.Company,
	})
}

// ChangePassword verifies the current password and installs a new one. The
// verify-then-rehash sequence runs inside the store's credential update so
// it cannot interleave with a concurrent write to the same identity.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	return s.users.UpdateCredential(ctx, userID, func(u model.User) (string, error) {
		ok, err := password.Verify(currentPassword, u.PasswordHash)
		if err != nil {
			return "", fmt.Errorf("verify current password: %w", err)
		}
		if !ok {
			return "", model.ErrIncorrectPassword
		}
		return password.Hash(newPassword)
	})
}

// ForgotPassword issues a single-use reset token when the email exists. It
// always succeeds from the caller's point of view, so the endpoint cannot
// be used to probe which accounts exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil
		}
		return err
	}

	resetToken := uuid.NewString()
	now := time.Now().UTC()
	expiresAt := now.Add(s.resetTTL)

	if err := s.resets.Create(ctx, model.PasswordReset{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hashResetToken(resetToken),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}); err != nil {
		return err
	}

	s.notifier.ResetRequested(ctx, user.Email, resetToken, expiresAt)
	return nil
}

// ResetPassword consumes a reset token exactly once. An expired token is
// still consumed: it can never succeed on retry.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken string, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	reset, err := s.resets.Consume(ctx, hashResetToken(resetToken))
	if err != nil {
		return err
	}
	if time.Now().UTC().After(reset.ExpiresAt) {
		return model.ErrResetTokenExpired
	}

	return s.users.UpdateCredential(ctx, reset.UserID, func(model.User) (string, error) {
		return password.Hash(newPassword)
	})
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// EnsureBootstrapAdmin seeds an initial admin account into an empty store so
// a fresh deployment is reachable. No-op when any user already exists or
// when no bootstrap credentials are configured.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, email string, plaintext string) error {
	if strings.TrimSpace(email) == "" || plaintext == "" {
		return nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := model.User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(email),
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         authapi.RoleAdmin,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, model.ErrDuplicateIdentity) {
			return nil
		}
		return err
	}

	slog.Info("bootstrap admin created", "email", admin.Email)
	return nil
}

func validatePassword(plaintext string) error {
	if len(plaintext) < minPasswordLength {
		return apierror.New("VALIDATION",
			fmt.Sprintf("Password must be at least %d characters", minPasswordLength),
			http.StatusBadRequest)
	}
	return nil
}

func hashResetToken(resetToken string) string {
	sum := sha256.Sum256([]byte(resetToken))
	return hex.EncodeToString(sum[:])
}
