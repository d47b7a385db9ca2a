package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/artmorph/api/internal/notification"
	"github.com/artmorph/api/internal/notification/templates"
	"github.com/google/uuid"
)

// InitiateVerification starts email verification for an address: it validates
// the shape, refuses re-verification of an active account, supersedes any
// prior codes for the (email, email-verification) pair and delivers a fresh
// code. The code counts as issued only once delivery is confirmed; on a
// delivery failure the fresh code is rolled back.
func (s *service) InitiateVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !emailRx.MatchString(email) {
		return ErrInvalidEmail
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("initiate verification: find account failed", "error", err)
		return ErrInternal.WithCause(err)
	}
	if acct != nil && acct.EmailVerified {
		// Re-triggering verification for an active account would open an
		// account-takeover window.
		return ErrAlreadyVerified
	}

	if s.limiter != nil {
		allowed, lerr := s.limiter.Allow(ctx, "otp:"+email)
		if lerr != nil {
			// A limiter outage must not block verification entirely.
			s.logger.Warn("initiate verification: limiter unavailable", "error", lerr)
		} else if !allowed {
			return ErrResendTooSoon
		}
	}

	code, err := s.issueCode(ctx, email, PurposeEmailVerification)
	if err != nil {
		return err
	}

	data := templates.VerifyEmailData{
		Code:         code.Code,
		SupportEmail: s.config.SMTP.From,
	}
	if err := notification.SendTemplate(ctx, s.mail, s.tmpl, templates.VerifyEmail, email, data); err != nil {
		s.logger.Error("initiate verification: delivery failed", "error", err, "email", email)
		if derr := s.repo.DeleteCodeByID(ctx, code.ID); derr != nil {
			s.logger.Error("initiate verification: rollback failed", "error", derr, "code_id", code.ID)
		}
		return ErrDeliveryFailed.WithCause(err)
	}

	return nil
}

// ConfirmVerification consumes a one-time code. On success it either creates
// a new account (verified, placeholder username, no password) or flips the
// verified flag on the existing one, then issues the temporary registration
// token required to complete the profile.
func (s *service) ConfirmVerification(ctx context.Context, email, code string) (*VerificationResult, error) {
	email = normalizeEmail(email)
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidOTP
	}

	if _, err := s.repo.FindLiveCode(ctx, email, PurposeEmailVerification, code); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		s.logger.Error("confirm verification: code lookup failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	// Delete every code for the pair, not just the matched one, to close the
	// verification window.
	if err := s.repo.DeleteCodes(ctx, email, PurposeEmailVerification); err != nil {
		s.logger.Error("confirm verification: consume codes failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !acct.EmailVerified {
			acct.EmailVerified = true
			if err := s.repo.Update(ctx, acct); err != nil {
				s.logger.Error("confirm verification: update account failed", "error", err)
				return nil, ErrInternal.WithCause(err)
			}
		}
	case errors.Is(err, ErrNotFound):
		acct, err = s.createVerifiedAccount(ctx, email)
		if err != nil {
			return nil, err
		}
	default:
		s.logger.Error("confirm verification: find account failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	tempToken, err := s.tokens.TempToken(acct.ID, acct.Email)
	if err != nil {
		s.logger.Error("confirm verification: temp token minting failed", "error", err)
		return nil, ErrTokenIssuance.WithCause(err)
	}

	return &VerificationResult{Account: acct, TempToken: tempToken}, nil
}

// CompleteRegistration finishes the unverified -> profile-complete transition.
// It requires a valid temp-flagged token, sets the chosen username and the
// hashed password, and is idempotency-guarded so a replayed temp token cannot
// overwrite a completed profile.
func (s *service) CompleteRegistration(ctx context.Context, tempToken, username, password, confirmPassword string) (*Account, error) {
	claims, err := s.tokens.VerifyTemp(tempToken)
	if err != nil {
		return nil, ErrUnauthorized.WithCause(err)
	}

	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if !usernameRx.MatchString(username) {
		return nil, ErrInvalidUsername
	}

	acct, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("complete registration: find account failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if acct.Username != nil && acct.PasswordHash != nil {
		return nil, ErrAlreadyComplete
	}

	hash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("complete registration: hash password failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	acct.Username = &username
	acct.PasswordHash = &hash
	acct.EmailVerified = true
	acct.ProfileComplete = true
	if err := s.repo.Update(ctx, acct); err != nil {
		s.logger.Error("complete registration: update account failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("registration completed", "account_id", acct.ID)
	return acct, nil
}

// issueCode supersedes all live codes for the (email, purpose) pair and
// stores a fresh 6-digit code with the configured expiry. Deletion is ordered
// before insertion so a race can at worst leave both codes briefly valid,
// never delete the new one.
func (s *service) issueCode(ctx context.Context, email string, purpose CodePurpose) (*OneTimeCode, error) {
	ttlMinutes := s.config.Verification.TTLMinutes
	if ttlMinutes <= 0 {
		ttlMinutes = 5
	}

	if err := s.repo.DeleteCodes(ctx, email, purpose); err != nil {
		s.logger.Error("issue code: supersede failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	value, err := generateNumericCode(6)
	if err != nil {
		s.logger.Error("issue code: generate failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	code := &OneTimeCode{
		Email:     email,
		Purpose:   purpose,
		Code:      value,
		ExpiresAt: time.Now().Add(time.Duration(ttlMinutes) * time.Minute),
	}
	if err := s.repo.CreateCode(ctx, code); err != nil {
		s.logger.Error("issue code: create failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	return code, nil
}

func (s *service) createVerifiedAccount(ctx context.Context, email string) (*Account, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	username, err := placeholderUsername()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	acct := &Account{
		ID:            id.String(),
		Email:         email,
		Username:      &username,
		EmailVerified: true,
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		s.logger.Error("confirm verification: create account failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("account created via email verification", "account_id", acct.ID)
	return acct, nil
}
