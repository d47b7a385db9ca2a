package account

import (
	"context"

	"github.com/artmorph/api/internal/contextx"
	"github.com/artmorph/api/internal/httpx"
	"github.com/artmorph/api/internal/validation"
)

// --- DTOs ---

// SignInRequest defines the body for the login endpoint.
type SignInRequest struct {
	Body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
}

// SignInResponse returns the session token pair and the account projection.
type SignInResponse struct {
	Body struct {
		Message      string      `json:"message"`
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
		Account      accountBody `json:"account"`
	}
}

// RefreshTokenRequest defines the body for the token-refresh endpoint.
type RefreshTokenRequest struct {
	Body struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
}

// RefreshTokenResponse returns a fresh access token.
type RefreshTokenResponse struct {
	Body struct {
		AccessToken string `json:"accessToken"`
	}
}

// --- Handlers ---

// SignInHandler handles the email/password login endpoint.
func (h *Handler) SignInHandler(ctx context.Context, input *SignInRequest) (*SignInResponse, error) {
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("handling sign in request")
	originIP, _ := ctx.Value(contextx.OriginIPKey).(string)

	result, err := h.service.SignIn(ctx, input.Body.Email, input.Body.Password, originIP)
	if err != nil {
		h.logger.Warn("sign in failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &SignInResponse{}
	resp.Body.Message = "signed in"
	resp.Body.AccessToken = result.AccessToken
	resp.Body.RefreshToken = result.RefreshToken
	resp.Body.Account = toAccountBody(result.Account)
	return resp, nil
}

// RefreshTokenHandler exchanges a refresh token for a new access token.
func (h *Handler) RefreshTokenHandler(ctx context.Context, input *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	access, err := h.service.RefreshAccessToken(ctx, input.Body.RefreshToken)
	if err != nil {
		h.logger.Warn("token refresh failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &RefreshTokenResponse{}
	resp.Body.AccessToken = access
	return resp, nil
}
