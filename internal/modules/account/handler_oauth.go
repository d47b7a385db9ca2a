package account

import (
	"context"

	"github.com/artmorph/api/internal/contextx"
	"github.com/artmorph/api/internal/httpx"
)

// --- DTOs ---

// OAuthLoginRequest defines the provider being requested from the URL path.
type OAuthLoginRequest struct {
	Provider string `path:"provider"`
}

// OAuthLoginResponse returns the provider consent URL for the client to follow.
type OAuthLoginResponse struct {
	Body struct {
		RedirectURL string `json:"redirectUrl"`
	}
}

// OAuthCallbackRequest defines the query parameters sent by the OAuth provider.
type OAuthCallbackRequest struct {
	Provider string `path:"provider"`
	Code     string `query:"code"`
	State    string `query:"state"`
}

// OAuthCallbackResponse is the JSON response for a completed callback. Tokens
// are present only when the linked account has a complete profile; otherwise
// the client is expected to route into the registration flow.
type OAuthCallbackResponse struct {
	Body struct {
		Message         string      `json:"message"`
		ProfileComplete bool        `json:"profileComplete"`
		AccessToken     string      `json:"accessToken,omitempty"`
		RefreshToken    string      `json:"refreshToken,omitempty"`
		Account         accountBody `json:"account"`
	}
}

// --- Handlers ---

// OAuthLoginHandler initiates the OAuth flow by returning the consent URL.
func (h *Handler) OAuthLoginHandler(ctx context.Context, input *OAuthLoginRequest) (*OAuthLoginResponse, error) {
	h.logger.Info("initiating oauth login", "provider", input.Provider)

	redirectURL, err := h.service.InitiateOAuthLogin(ctx, OAuthProvider(input.Provider))
	if err != nil {
		h.logger.Warn("oauth initiation failed", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &OAuthLoginResponse{}
	resp.Body.RedirectURL = redirectURL
	return resp, nil
}

// OAuthCallbackHandler completes the provider handshake and opens a session
// for the linked account.
func (h *Handler) OAuthCallbackHandler(ctx context.Context, input *OAuthCallbackRequest) (*OAuthCallbackResponse, error) {
	h.logger.Info("handling oauth callback", "provider", input.Provider)
	originIP, _ := ctx.Value(contextx.OriginIPKey).(string)

	result, err := h.service.HandleOAuthCallback(ctx, OAuthProvider(input.Provider), input.State, input.Code, originIP)
	if err != nil {
		h.logger.Warn("oauth callback failed", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &OAuthCallbackResponse{}
	resp.Body.ProfileComplete = result.ProfileComplete
	resp.Body.Account = toAccountBody(result.Account)
	if result.ProfileComplete {
		resp.Body.Message = "authentication successful"
		resp.Body.AccessToken = result.AccessToken
		resp.Body.RefreshToken = result.RefreshToken
	} else {
		resp.Body.Message = "profile incomplete, please complete registration"
	}
	return resp, nil
}
