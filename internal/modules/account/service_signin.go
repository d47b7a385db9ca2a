package account

import (
	"context"
	"errors"
	"time"
)

// SignIn authenticates an email/password pair and opens a session. All three
// failure shapes (unknown email, unverified email, wrong password) collapse
// into ErrInvalidCredentials so the endpoint cannot be used to enumerate
// accounts. On success it mints both tokens, then records the login entry,
// the last-login timestamp and the new refresh token in one repository call.
func (s *service) SignIn(ctx context.Context, email, password, originIP string) (*AuthResult, error) {
	email = normalizeEmail(email)

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("sign in: find account failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if !acct.EmailVerified || acct.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if !checkPasswordHash(password, *acct.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	access, err := s.tokens.AccessToken(acct.ID, acct.Email)
	if err != nil {
		s.logger.Error("sign in: access token minting failed", "error", err)
		return nil, ErrTokenIssuance.WithCause(err)
	}
	refresh, err := s.tokens.RefreshToken(acct.ID)
	if err != nil {
		s.logger.Error("sign in: refresh token minting failed", "error", err)
		return nil, ErrTokenIssuance.WithCause(err)
	}

	now := time.Now()
	entry := LoginEntry{Time: now, IP: originIP}
	if err := s.repo.RecordLogin(ctx, acct.ID, entry, refresh); err != nil {
		s.logger.Error("sign in: record login failed", "error", err, "account_id", acct.ID)
		return nil, ErrInternal.WithCause(err)
	}

	acct.LastLogin = &now
	acct.LoginHistory = append(acct.LoginHistory, entry)
	acct.RefreshToken = &refresh

	s.logger.Info("sign in succeeded", "account_id", acct.ID)
	return &AuthResult{Account: acct, AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshAccessToken exchanges a valid refresh token for a fresh access
// token. The presented token must both verify cryptographically and match
// the value stored on the account row, so a server-side overwrite (new
// sign-in, recovery) invalidates older refresh tokens immediately.
func (s *service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", ErrUnauthorized.WithCause(err)
	}

	acct, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrUnauthorized
		}
		s.logger.Error("refresh: find account failed", "error", err)
		return "", ErrInternal.WithCause(err)
	}

	if acct.RefreshToken == nil || *acct.RefreshToken != refreshToken {
		return "", ErrUnauthorized
	}

	access, err := s.tokens.AccessToken(acct.ID, acct.Email)
	if err != nil {
		s.logger.Error("refresh: access token minting failed", "error", err)
		return "", ErrTokenIssuance.WithCause(err)
	}
	return access, nil
}

// GetProfile returns the account for an authenticated subject.
func (s *service) GetProfile(ctx context.Context, accountID string) (*Account, error) {
	acct, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("get profile: find account failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	return acct, nil
}
