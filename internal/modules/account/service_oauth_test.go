package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateOAuthLogin_PersistsStateWithVerifier(t *testing.T) {
	env := newTestEnv()

	url, err := env.svc.InitiateOAuthLogin(context.Background(), OAuthProviderGoogle)
	require.NoError(t, err)
	assert.Contains(t, url, "state=")
	assert.Contains(t, url, "code_challenge=")

	env.repo.mu.Lock()
	defer env.repo.mu.Unlock()
	require.Len(t, env.repo.states, 1)
	for _, st := range env.repo.states {
		assert.Equal(t, OAuthProviderGoogle, st.Provider)
		assert.NotEmpty(t, st.Verifier)
		assert.True(t, st.ExpiresAt.After(time.Now()))
	}
}

func TestInitiateOAuthLogin_UnsupportedProvider(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.InitiateOAuthLogin(context.Background(), OAuthProvider("github"))
	assert.ErrorIs(t, err, ErrUnsupportedOAuthProvider)
}

func TestHandleOAuthCallback_UnknownState(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.HandleOAuthCallback(context.Background(), OAuthProviderGoogle, "never-issued", "some-code", "192.0.2.1")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)
}

func TestHandleOAuthCallback_ExpiredStateIsConsumed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	stale := &OAuthState{
		State:     "stale-state",
		Provider:  OAuthProviderGoogle,
		Verifier:  "verifier",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, env.repo.InsertOAuthState(ctx, stale))

	_, err := env.svc.HandleOAuthCallback(ctx, OAuthProviderGoogle, "stale-state", "some-code", "192.0.2.1")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)

	// Even a failed callback consumes the state.
	_, err = env.repo.GetOAuthState(ctx, "stale-state")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkOAuthIdentity_UnknownIdentityRefused(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.LinkOAuthIdentity(context.Background(), ProviderAssertion{
		ProviderID: "google-123",
		Email:      "stranger@example.com",
	}, "192.0.2.1")
	assert.ErrorIs(t, err, ErrNotRegistered, "oauth must never auto-create accounts")

	env.repo.mu.Lock()
	defer env.repo.mu.Unlock()
	assert.Empty(t, env.repo.accounts)
}

func TestLinkOAuthIdentity_AttachesProviderID(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "password123")
	ctx := context.Background()

	result, err := env.svc.LinkOAuthIdentity(ctx, ProviderAssertion{
		ProviderID: "google-123",
		Email:      "user@example.com",
		AvatarURL:  "https://example.com/pic.jpg",
	}, "192.0.2.1")
	require.NoError(t, err)
	assert.True(t, result.ProfileComplete)

	stored, err := env.repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "google-123", *stored.GoogleID)
	require.NotNil(t, stored.Avatar)
	assert.Equal(t, "https://example.com/pic.jpg", *stored.Avatar)

	// A later sign-in resolves by provider id directly.
	again, err := env.svc.LinkOAuthIdentity(ctx, ProviderAssertion{
		ProviderID: "google-123",
		Email:      "user@example.com",
	}, "192.0.2.2")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, again.Account.ID)
}

func TestLinkOAuthIdentity_AvatarIsNotOverwritten(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "password123")
	existing := "https://example.com/original.jpg"
	acct.Avatar = &existing
	require.NoError(t, env.repo.Update(context.Background(), acct))

	_, err := env.svc.LinkOAuthIdentity(context.Background(), ProviderAssertion{
		ProviderID: "google-123",
		Email:      "user@example.com",
		AvatarURL:  "https://example.com/new.jpg",
	}, "192.0.2.1")
	require.NoError(t, err)

	stored, err := env.repo.FindByID(context.Background(), acct.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Avatar)
	assert.Equal(t, existing, *stored.Avatar, "an existing avatar is kept")
}

func TestLinkOAuthIdentity_IncompleteProfileGetsNoSession(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "password123")
	acct.ProfileComplete = false
	acct.PasswordHash = nil
	require.NoError(t, env.repo.Update(context.Background(), acct))

	result, err := env.svc.LinkOAuthIdentity(context.Background(), ProviderAssertion{
		ProviderID: "google-123",
		Email:      "user@example.com",
	}, "192.0.2.1")
	require.NoError(t, err)

	assert.False(t, result.ProfileComplete)
	assert.Empty(t, result.AccessToken)
	assert.Empty(t, result.RefreshToken)

	stored, err := env.repo.FindByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshToken, "no session state for incomplete profiles")
}

func TestLinkOAuthIdentity_CompleteProfileOpensSession(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "password123")
	ctx := context.Background()

	result, err := env.svc.LinkOAuthIdentity(ctx, ProviderAssertion{
		ProviderID: "google-123",
		Email:      "user@example.com",
	}, "203.0.113.7")
	require.NoError(t, err)

	claims, err := env.issuer.VerifyAccess(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, claims.Subject)

	stored, err := env.repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, result.RefreshToken, *stored.RefreshToken)
	require.Len(t, stored.LoginHistory, 1)
	assert.Equal(t, "203.0.113.7", stored.LoginHistory[0].IP)
}

func TestLinkOAuthIdentity_UnverifiedMatchRefused(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "password123")
	acct.EmailVerified = false
	require.NoError(t, env.repo.Update(context.Background(), acct))

	_, err := env.svc.LinkOAuthIdentity(context.Background(), ProviderAssertion{
		ProviderID: "google-123",
		Email:      "user@example.com",
	}, "192.0.2.1")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	stored, err := env.repo.FindByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.GoogleID, "a refused link must not attach the provider id")
}
