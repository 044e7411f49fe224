package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twin-dashboard/internal/client"
	"twin-dashboard/internal/model"
	"twin-dashboard/internal/token"
	"twin-dashboard/pkg/authapi"
)

func TestSessionClientEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	store := &client.MemoryStore{}
	c, err := client.New(env.server.URL, store)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), userEmail, "wrong")
	assert.ErrorIs(t, err, client.ErrInvalidCredentials)

	user, err := c.Login(context.Background(), userEmail, userPassword)
	require.NoError(t, err)
	assert.Equal(t, userEmail, user.Email)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	twins, err := c.Twins(context.Background())
	require.NoError(t, err)
	assert.Empty(t, twins)

	require.NoError(t, c.Logout())
	_, err = c.Me(context.Background())
	assert.ErrorIs(t, err, client.ErrNotAuthenticated)
}

func TestSessionClientClearsExpiredSession(t *testing.T) {
	env := newTestEnv(t)

	login := env.mustLogin(t, userEmail, userPassword)

	// Sign a token that expired an hour ago with the server's own secret, so
	// the rejection is expiry, not a bad signature.
	expiredClock := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := token.NewService(testSecret, time.Hour).WithClock(expiredClock).Issue(model.User{
		ID:    login.User.ID,
		Email: login.User.Email,
		Role:  login.User.Role,
	})
	require.NoError(t, err)

	store := &client.MemoryStore{}
	require.NoError(t, store.Save(client.Session{AccessToken: expired, User: login.User}))

	c, err := client.New(env.server.URL, store)
	require.NoError(t, err)
	require.True(t, c.IsAuthenticated(), "restore is optimistic, expiry is found on use")

	_, err = c.Me(context.Background())
	assert.ErrorIs(t, err, client.ErrSessionExpired)
	assert.False(t, c.IsAuthenticated())

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, saved.AccessToken)

	// A fresh login recovers the session.
	_, err = c.Login(context.Background(), userEmail, userPassword)
	require.NoError(t, err)

	twins, err := c.Twins(context.Background())
	require.NoError(t, err)
	assert.Empty(t, twins)
}

func TestExpiredTokenRejectedByGate(t *testing.T) {
	env := newTestEnv(t)
	login := env.mustLogin(t, userEmail, userPassword)

	expiredClock := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := token.NewService(testSecret, time.Hour).WithClock(expiredClock).Issue(model.User{
		ID: login.User.ID, Email: login.User.Email, Role: login.User.Role,
	})
	require.NoError(t, err)

	resp := env.doJSON(t, http.MethodGet, authapi.PathMe, nil, expired)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authenticated", decodeErrorDetail(t, resp))
}
