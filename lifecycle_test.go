package auth_test

import (
	"context"
	"strings"
	"testing"

	auth "github.com/contactdeck/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full account lifecycle over a real store: signup, login blocked until the
// email is confirmed, confirmation through the emailed link, login, identity
// resolution through the cache, refresh rotation, and logout.
func TestAccountLifecycle(t *testing.T) {
	const (
		email    = "grace.hopper@example.com"
		password = "password123"
		baseURL  = "https://app.example.com"
	)

	ctx := context.Background()
	cfg := newTestConfig()
	repo := setupRepoManager(t)

	cache := auth.NewRedisIdentityCache(newFakeRedis(), cfg.GetCacheTTL())
	session := auth.NewSessionManager(repo.Users(), cache, cfg)
	sender := &captureSender{}
	flow := auth.NewVerificationFlow(repo, session.TokenService(), sender, cfg)
	register := auth.NewRegisterUserHandler(repo, flow)

	user, err := register.Execute(ctx, auth.RegisterUserMessage{
		Email:    email,
		Password: password,
		BaseURL:  baseURL,
	})
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)
	require.Len(t, sender.links, 1)

	_, err = session.Login(ctx, email, password)
	assertTextCode(t, err, auth.TextCodeEmailNotConfirmed)

	linkPrefix := auth.VerificationLink(baseURL, "")
	token := strings.TrimPrefix(sender.links[0], linkPrefix)
	require.NotEmpty(t, token)

	outcome, err := flow.Confirm(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusConfirmed, outcome.Status)

	pair, err := session.Login(ctx, email, password)
	require.NoError(t, err)

	resolved, err := session.CurrentIdentity(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, email, resolved.Email)
	assert.True(t, resolved.EmailVerified)

	rotated, err := session.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// the pre-rotation token is dead, replaying it kills the session
	_, err = session.Refresh(ctx, pair.RefreshToken)
	assertTextCode(t, err, auth.TextCodeTokenReuseDetected)

	_, err = session.Refresh(ctx, rotated.RefreshToken)
	assertTextCode(t, err, auth.TextCodeTokenReuseDetected)

	pair, err = session.Login(ctx, email, password)
	require.NoError(t, err)

	current, err := session.CurrentIdentity(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, session.Logout(ctx, current))

	_, err = session.Refresh(ctx, pair.RefreshToken)
	assertTextCode(t, err, auth.TextCodeTokenReuseDetected)
}

// Unknown emails coming back from the real store must surface as an auth
// failure, not as an internal error hiding the not-found classification.
func TestLoginUnknownEmailOverStore(t *testing.T) {
	repo := setupRepoManager(t)
	session := auth.NewSessionManager(repo.Users(), nil, newTestConfig())

	_, err := session.Login(context.Background(), "nobody@example.com", "whatever")
	assertTextCode(t, err, auth.TextCodeIdentityNotFound)

	status, detail := auth.MapAuthError(err)
	assert.Equal(t, 401, status)
	assert.Equal(t, auth.DetailInvalidEmail, detail)
}
