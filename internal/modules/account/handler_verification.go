package account

import (
	"context"
	"time"

	"github.com/artmorph/api/internal/httpx"
	"github.com/artmorph/api/internal/validation"
)

// --- DTOs (Data Transfer Objects) ---

// SendVerificationRequest defines the body for requesting a verification code.
type SendVerificationRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

// SendVerificationResponse acknowledges the code was dispatched.
type SendVerificationResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// VerifyEmailRequest defines the body for confirming a one-time code.
type VerifyEmailRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6"`
	}
}

// VerifyEmailResponse returns the temporary registration token alongside the
// account projection.
type VerifyEmailResponse struct {
	Body struct {
		Message   string      `json:"message"`
		TempToken string      `json:"tempToken"`
		Account   accountBody `json:"account"`
	}
}

// CompleteRegistrationRequest carries the temp token in the Authorization
// header and the chosen credentials in the body.
type CompleteRegistrationRequest struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Username        string `json:"username" validate:"required,min=3,max=30"`
		Password        string `json:"password" validate:"required,min=8"`
		ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	}
}

// CompleteRegistrationResponse returns the finished account.
type CompleteRegistrationResponse struct {
	Body struct {
		Message string      `json:"message"`
		Account accountBody `json:"account"`
	}
}

// accountBody is the public projection of an account. The password hash and
// the stored refresh token never leave the service boundary.
type accountBody struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Username        *string    `json:"username,omitempty"`
	Avatar          *string    `json:"avatar,omitempty"`
	EmailVerified   bool       `json:"emailVerified"`
	ProfileComplete bool       `json:"profileComplete"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// toAccountBody maps a domain Account to its public projection.
func toAccountBody(a *Account) accountBody {
	return accountBody{
		ID:              a.ID,
		Email:           a.Email,
		Username:        a.Username,
		Avatar:          a.Avatar,
		EmailVerified:   a.EmailVerified,
		ProfileComplete: a.ProfileComplete,
		LastLogin:       a.LastLogin,
		CreatedAt:       a.CreatedAt,
	}
}

// --- Handlers ---

// SendVerificationHandler handles the verification-code dispatch endpoint.
func (h *Handler) SendVerificationHandler(ctx context.Context, input *SendVerificationRequest) (*SendVerificationResponse, error) {
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("handling send verification request")
	if err := h.service.InitiateVerification(ctx, input.Body.Email); err != nil {
		h.logger.Warn("send verification failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &SendVerificationResponse{}
	resp.Body.Message = "verification code sent"
	return resp, nil
}

// VerifyEmailHandler handles the code-confirmation endpoint.
func (h *Handler) VerifyEmailHandler(ctx context.Context, input *VerifyEmailRequest) (*VerifyEmailResponse, error) {
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("handling verify email request")
	result, err := h.service.ConfirmVerification(ctx, input.Body.Email, input.Body.Code)
	if err != nil {
		h.logger.Warn("verify email failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &VerifyEmailResponse{}
	resp.Body.Message = "email verified"
	resp.Body.TempToken = result.TempToken
	resp.Body.Account = toAccountBody(result.Account)
	return resp, nil
}

// CompleteRegistrationHandler finishes the registration state machine.
func (h *Handler) CompleteRegistrationHandler(ctx context.Context, input *CompleteRegistrationRequest) (*CompleteRegistrationResponse, error) {
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	tempToken := bearerToken(input.Authorization)
	if tempToken == "" {
		return nil, httpx.ToProblem(ctx, ErrUnauthorized)
	}

	h.logger.Info("handling complete registration request")
	acct, err := h.service.CompleteRegistration(ctx, tempToken, input.Body.Username, input.Body.Password, input.Body.ConfirmPassword)
	if err != nil {
		h.logger.Warn("complete registration failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &CompleteRegistrationResponse{}
	resp.Body.Message = "registration completed"
	resp.Body.Account = toAccountBody(acct)
	return resp, nil
}
