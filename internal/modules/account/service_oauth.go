package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// oauthStateTTL bounds how long a started handshake stays redeemable.
const oauthStateTTL = 10 * time.Minute

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// googleUserinfo is the subset of the Google userinfo response the flow needs.
type googleUserinfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *service) googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.config.Google.ClientID,
		ClientSecret: s.config.Google.ClientSecret,
		RedirectURL:  s.config.Google.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// InitiateOAuthLogin starts the external handshake: it persists a fresh CSRF
// state together with its PKCE verifier and returns the provider's consent
// URL. The state row is the only server-side memory of the handshake.
func (s *service) InitiateOAuthLogin(ctx context.Context, provider OAuthProvider) (string, error) {
	if provider != OAuthProviderGoogle {
		return "", ErrUnsupportedOAuthProvider
	}

	// Opportunistic cleanup; failures here never block a new handshake.
	if err := s.repo.DeleteExpiredOAuthStates(ctx); err != nil {
		s.logger.Warn("oauth initiate: expired-state cleanup failed", "error", err)
	}

	state, err := generateResetToken(16)
	if err != nil {
		s.logger.Error("oauth initiate: state generation failed", "error", err)
		return "", ErrInternal.WithCause(err)
	}
	verifier := oauth2.GenerateVerifier()

	rec := &OAuthState{
		State:     state,
		Provider:  provider,
		Verifier:  verifier,
		ExpiresAt: time.Now().Add(oauthStateTTL),
	}
	if err := s.repo.InsertOAuthState(ctx, rec); err != nil {
		s.logger.Error("oauth initiate: persist state failed", "error", err)
		return "", ErrInternal.WithCause(err)
	}

	url := s.googleOAuthConfig().AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return url, nil
}

// HandleOAuthCallback completes the handshake: it redeems the single-use
// state, exchanges the authorization code with the PKCE verifier, fetches the
// provider profile and hands the resulting assertion to LinkOAuthIdentity.
func (s *service) HandleOAuthCallback(ctx context.Context, provider OAuthProvider, state, code, originIP string) (*OAuthResult, error) {
	if provider != OAuthProviderGoogle {
		return nil, ErrUnsupportedOAuthProvider
	}
	if state == "" || code == "" {
		return nil, ErrOAuthStateInvalid
	}

	rec, err := s.repo.GetOAuthState(ctx, state)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrOAuthStateInvalid
		}
		s.logger.Error("oauth callback: state lookup failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	// Single use regardless of outcome: a replayed state must never reach the
	// token exchange.
	if err := s.repo.DeleteOAuthState(ctx, state); err != nil {
		s.logger.Error("oauth callback: consume state failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if rec.Provider != provider || time.Now().After(rec.ExpiresAt) {
		return nil, ErrOAuthStateInvalid
	}

	conf := s.googleOAuthConfig()
	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(rec.Verifier))
	if err != nil {
		s.logger.Warn("oauth callback: code exchange failed", "error", err)
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}

	info, err := fetchGoogleUserinfo(ctx, conf, tok)
	if err != nil {
		s.logger.Warn("oauth callback: userinfo fetch failed", "error", err)
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, ErrOAuthExchangeFailed
	}

	assertion := ProviderAssertion{
		ProviderID:  info.ID,
		Email:       normalizeEmail(info.Email),
		DisplayName: info.Name,
		AvatarURL:   info.Picture,
	}
	return s.LinkOAuthIdentity(ctx, assertion, originIP)
}

// LinkOAuthIdentity resolves a provider assertion to a local account and
// opens a session for it. Resolution is by provider id first, then by email;
// an unmatched assertion is refused rather than auto-registered, and an
// unverified match is refused outright. Matching by email attaches the
// provider id, and the avatar is backfilled only when the account has none.
// Accounts that never completed registration get no session tokens; the
// caller routes them back into the registration flow.
func (s *service) LinkOAuthIdentity(ctx context.Context, assertion ProviderAssertion, originIP string) (*OAuthResult, error) {
	acct, err := s.repo.FindByGoogleID(ctx, assertion.ProviderID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("oauth link: find by provider id failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if acct == nil {
		acct, err = s.repo.FindByEmail(ctx, assertion.Email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrNotRegistered
			}
			s.logger.Error("oauth link: find by email failed", "error", err)
			return nil, ErrInternal.WithCause(err)
		}
	}

	if !acct.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	changed := false
	if acct.GoogleID == nil {
		providerID := assertion.ProviderID
		acct.GoogleID = &providerID
		changed = true
	}
	if acct.Avatar == nil && assertion.AvatarURL != "" {
		avatar := assertion.AvatarURL
		acct.Avatar = &avatar
		changed = true
	}
	if changed {
		if err := s.repo.Update(ctx, acct); err != nil {
			s.logger.Error("oauth link: update account failed", "error", err)
			return nil, ErrInternal.WithCause(err)
		}
	}

	if !acct.ProfileComplete {
		s.logger.Info("oauth link: profile incomplete, no session issued", "account_id", acct.ID)
		return &OAuthResult{Account: acct, ProfileComplete: false}, nil
	}

	access, err := s.tokens.AccessToken(acct.ID, acct.Email)
	if err != nil {
		s.logger.Error("oauth link: access token minting failed", "error", err)
		return nil, ErrTokenIssuance.WithCause(err)
	}
	refresh, err := s.tokens.RefreshToken(acct.ID)
	if err != nil {
		s.logger.Error("oauth link: refresh token minting failed", "error", err)
		return nil, ErrTokenIssuance.WithCause(err)
	}

	now := time.Now()
	entry := LoginEntry{Time: now, IP: originIP}
	if err := s.repo.RecordLogin(ctx, acct.ID, entry, refresh); err != nil {
		s.logger.Error("oauth link: record login failed", "error", err, "account_id", acct.ID)
		return nil, ErrInternal.WithCause(err)
	}
	acct.LastLogin = &now
	acct.LoginHistory = append(acct.LoginHistory, entry)
	acct.RefreshToken = &refresh

	s.logger.Info("oauth sign in succeeded", "account_id", acct.ID)
	return &OAuthResult{
		Account:         acct,
		ProfileComplete: true,
		AccessToken:     access,
		RefreshToken:    refresh,
	}, nil
}

func fetchGoogleUserinfo(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*googleUserinfo, error) {
	client := conf.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserinfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
