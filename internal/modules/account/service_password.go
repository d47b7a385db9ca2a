package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artmorph/api/internal/notification"
	"github.com/artmorph/api/internal/notification/templates"
)

// RequestPasswordReset issues a single-use reset token and mails the reset
// link. The response is uniform whether or not the address is registered, so
// the endpoint cannot confirm account existence. Issuing a new token first
// purges the account's earlier ones; a delivery failure rolls the new token
// back and is the only error surfaced for a known address.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !emailRx.MatchString(email) {
		return ErrInvalidEmail
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Uniform success for unknown addresses.
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		s.logger.Error("request reset: find account failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	ttlMinutes := s.config.Reset.TTLMinutes
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}

	if err := s.repo.DeleteResetTokens(ctx, acct.ID); err != nil {
		s.logger.Error("request reset: supersede failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	value, err := generateResetToken(32)
	if err != nil {
		s.logger.Error("request reset: generate token failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	tok := &PasswordResetToken{
		AccountID: acct.ID,
		Token:     value,
		ExpiresAt: time.Now().Add(time.Duration(ttlMinutes) * time.Minute),
	}
	if err := s.repo.CreateResetToken(ctx, tok); err != nil {
		s.logger.Error("request reset: create token failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	username := acct.Email
	if acct.Username != nil {
		username = *acct.Username
	}
	data := templates.PasswordResetData{
		Username: username,
		ResetURL: fmt.Sprintf("%s/reset-password/%s", s.config.ClientURL, value),
	}
	if err := notification.SendTemplate(ctx, s.mail, s.tmpl, templates.PasswordReset, acct.Email, data); err != nil {
		s.logger.Error("request reset: delivery failed", "error", err, "account_id", acct.ID)
		if derr := s.repo.DeleteResetTokenByID(ctx, tok.ID); derr != nil {
			s.logger.Error("request reset: rollback failed", "error", derr, "token_id", tok.ID)
		}
		return ErrDeliveryFailed.WithCause(err)
	}

	s.logger.Info("password reset token issued", "account_id", acct.ID)
	return nil
}

// RedeemPasswordReset consumes a live reset token and sets a new password.
// Redemption purges every reset token for the account, not only the one
// presented, and leaves the stored refresh token unchanged.
func (s *service) RedeemPasswordReset(ctx context.Context, token, password, confirmPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	if len(password) < 8 {
		return ErrWeakPassword
	}

	rec, err := s.repo.FindLiveResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		s.logger.Error("redeem reset: token lookup failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("redeem reset: hash password failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.SetPassword(ctx, rec.AccountID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		s.logger.Error("redeem reset: set password failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	// Purge after the password is committed so a storage failure cannot leave
	// the account with a consumed token and an unchanged password.
	if err := s.repo.DeleteResetTokens(ctx, rec.AccountID); err != nil {
		s.logger.Error("redeem reset: purge tokens failed", "error", err, "account_id", rec.AccountID)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("password reset redeemed", "account_id", rec.AccountID)
	return nil
}
