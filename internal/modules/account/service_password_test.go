package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestPasswordReset_UnknownEmailIsUniform(t *testing.T) {
	env := newTestEnv()

	err := env.svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.NoError(t, err, "unknown addresses must not be distinguishable")
	assert.Equal(t, 0, env.mail.sentCount())
}

func TestRequestPasswordReset_IssuesTokenAndDelivers(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "password123")

	err := env.svc.RequestPasswordReset(context.Background(), "user@example.com")
	require.NoError(t, err)

	tokens := env.storedResetTokens(acct.ID)
	require.Len(t, tokens, 1)
	assert.Len(t, tokens[0].Token, 64, "32 bytes of entropy, hex encoded")
	assert.WithinDuration(t, time.Now().Add(time.Hour), tokens[0].ExpiresAt, 10*time.Second)

	require.Equal(t, 1, env.mail.sentCount())
	msg := env.mail.lastSent()
	assert.Equal(t, "user@example.com", msg.Recipient)
	assert.Contains(t, msg.HTMLBody, tokens[0].Token, "the mail carries the reset link")
}

func TestRequestPasswordReset_SupersedesPriorTokens(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "password123")
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "user@example.com"))
	first := env.storedResetTokens(acct.ID)
	require.Len(t, first, 1)

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "user@example.com"))
	second := env.storedResetTokens(acct.ID)
	require.Len(t, second, 1, "at most one active token per account")
	assert.NotEqual(t, first[0].Token, second[0].Token)
}

func TestRequestPasswordReset_DeliveryFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "password123")
	env.mail.failSend = errors.New("smtp down")

	err := env.svc.RequestPasswordReset(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Empty(t, env.storedResetTokens(acct.ID),
		"an undeliverable token must not stay redeemable")
}

func TestRedeemPasswordReset_Succeeds(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "oldpassword1")
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "user@example.com"))
	tok := env.storedResetTokens(acct.ID)[0]

	err := env.svc.RedeemPasswordReset(ctx, tok.Token, "newpassword1", "newpassword1")
	require.NoError(t, err)

	stored, err := env.repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.True(t, checkPasswordHash("newpassword1", *stored.PasswordHash))
	assert.False(t, checkPasswordHash("oldpassword1", *stored.PasswordHash))
	assert.Empty(t, env.storedResetTokens(acct.ID), "redemption purges the account's tokens")
}

func TestRedeemPasswordReset_TokenIsSingleUse(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "oldpassword1")
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "user@example.com"))
	tok := env.storedResetTokens(acct.ID)[0]

	require.NoError(t, env.svc.RedeemPasswordReset(ctx, tok.Token, "newpassword1", "newpassword1"))

	err := env.svc.RedeemPasswordReset(ctx, tok.Token, "anotherpass1", "anotherpass1")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestRedeemPasswordReset_Validation(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "oldpassword1")
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "user@example.com"))
	tok := env.storedResetTokens(acct.ID)[0]

	err := env.svc.RedeemPasswordReset(ctx, tok.Token, "newpassword1", "different")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	err = env.svc.RedeemPasswordReset(ctx, tok.Token, "short", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	err = env.svc.RedeemPasswordReset(ctx, "deadbeef", "newpassword1", "newpassword1")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	// Validation failures must not consume the token.
	assert.Len(t, env.storedResetTokens(acct.ID), 1)
}

func TestRedeemPasswordReset_ExpiredToken(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "oldpassword1")
	ctx := context.Background()

	expired := &PasswordResetToken{
		AccountID: acct.ID,
		Token:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, env.repo.CreateResetToken(ctx, expired))

	err := env.svc.RedeemPasswordReset(ctx, expired.Token, "newpassword1", "newpassword1")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestRedeemPasswordReset_KeepsRefreshToken(t *testing.T) {
	env := newTestEnv()
	acct := env.seedAccount("user@example.com", "art_lover", "oldpassword1")
	ctx := context.Background()

	signIn, err := env.svc.SignIn(ctx, "user@example.com", "oldpassword1", "192.0.2.1")
	require.NoError(t, err)

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "user@example.com"))
	tok := env.storedResetTokens(acct.ID)[0]
	require.NoError(t, env.svc.RedeemPasswordReset(ctx, tok.Token, "newpassword1", "newpassword1"))

	// A reset changes the credential, not the open session.
	stored, err := env.repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, signIn.RefreshToken, *stored.RefreshToken)
}
