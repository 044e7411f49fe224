package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twin-dashboard/internal/model"
	"twin-dashboard/pkg/authapi"
)

func newUser(id string, email string) model.User {
	now := time.Now().UTC()
	return model.User{
		ID:           id,
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "$2a$12$fakefakefakefakefakefake",
		Role:         authapi.RoleUser,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMemoryUserStoreDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	require.NoError(t, store.Create(ctx, newUser("u1", "someone@example.com")))

	err := store.Create(ctx, newUser("u2", "SOMEONE@example.com"))
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)

	// The first registration is unaffected.
	u, err := store.FindByEmail(ctx, "someone@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestMemoryUserStoreFindByEmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()
	require.NoError(t, store.Create(ctx, newUser("u1", "Someone@Example.com")))

	u, err := store.FindByEmail(ctx, "  someone@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = store.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestMemoryUserStoreUpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()
	require.NoError(t, store.Create(ctx, newUser("u1", "someone@example.com")))

	name := "Renamed"
	updated, err := store.UpdateProfile(ctx, "u1", model.ProfileUpdate{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)
	assert.Equal(t, "someone@example.com", updated.Email)

	_, err = store.UpdateProfile(ctx, "missing", model.ProfileUpdate{FullName: &name})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestMemoryUserStoreCredentialUpdatesSerialized(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()
	require.NoError(t, store.Create(ctx, newUser("u1", "someone@example.com")))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.UpdateCredential(ctx, "u1", func(u model.User) (string, error) {
				return u.PasswordHash + "x", nil
			})
		}()
	}
	wg.Wait()

	u, err := store.FindByID(ctx, "u1")
	require.NoError(t, err)
	// Every update observed the previous one: no interleaving lost a write.
	assert.Len(t, u.PasswordHash, len("$2a$12$fakefakefakefakefakefake")+20)
}

func TestMemoryResetStoreSingleUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryResetStore()

	reset := model.PasswordReset{ID: "r1", UserID: "u1", TokenHash: "hash", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Create(ctx, reset))

	got, err := store.Consume(ctx, "hash")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = store.Consume(ctx, "hash")
	assert.ErrorIs(t, err, model.ErrResetTokenInvalid)
}

func TestMemoryTwinStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTwinStore()

	require.NoError(t, store.Create(ctx, model.Twin{ID: "t1", Name: "press-line"}))
	require.NoError(t, store.Create(ctx, model.Twin{ID: "t2", Name: "paint-shop"}))

	twins, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, twins, 2)
	assert.Equal(t, "t2", twins[0].ID)

	_, err = store.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrTwinNotFound)
}
