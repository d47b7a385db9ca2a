package account

import (
	"context"

	"github.com/artmorph/api/internal/httpx"
	"github.com/artmorph/api/internal/validation"
)

// --- DTOs ---

// ForgotPasswordRequest defines the body for requesting a reset link.
type ForgotPasswordRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

// ForgotPasswordResponse is deliberately identical for known and unknown
// addresses.
type ForgotPasswordResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// ResetPasswordRequest carries the token in the path and the new credentials
// in the body.
type ResetPasswordRequest struct {
	Token string `path:"token"`
	Body  struct {
		Password        string `json:"password" validate:"required,min=8"`
		ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	}
}

// ResetPasswordResponse acknowledges the password change.
type ResetPasswordResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// --- Handlers ---

// ForgotPasswordHandler handles the reset-link request endpoint.
func (h *Handler) ForgotPasswordHandler(ctx context.Context, input *ForgotPasswordRequest) (*ForgotPasswordResponse, error) {
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("handling forgot password request")
	if err := h.service.RequestPasswordReset(ctx, input.Body.Email); err != nil {
		h.logger.Warn("forgot password failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ForgotPasswordResponse{}
	resp.Body.Message = "if that email is registered, a reset link has been sent"
	return resp, nil
}

// ResetPasswordHandler redeems a reset token and sets the new password.
func (h *Handler) ResetPasswordHandler(ctx context.Context, input *ResetPasswordRequest) (*ResetPasswordResponse, error) {
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("handling reset password request")
	if err := h.service.RedeemPasswordReset(ctx, input.Token, input.Body.Password, input.Body.ConfirmPassword); err != nil {
		h.logger.Warn("reset password failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ResetPasswordResponse{}
	resp.Body.Message = "password has been reset, please sign in"
	return resp, nil
}
