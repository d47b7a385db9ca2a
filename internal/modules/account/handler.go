package account

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Handler holds the dependencies for the account module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the account module.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for the account module.
// It defines all the API endpoints and connects them to their respective handler functions.
func (h *Handler) RegisterRoutes(api huma.API) {
	// --- Registration State Machine ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/auth/send-verification-code",
		Summary: "Send an email verification code",
	}, h.SendVerificationHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/auth/verify-email",
		Summary: "Verify an email with a one-time code",
	}, h.VerifyEmailHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/auth/complete-registration",
		Summary: "Complete registration with username and password",
	}, h.CompleteRegistrationHandler)

	// --- Sessions ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/auth/login",
		Summary: "Sign in with email and password",
	}, h.SignInHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/auth/refresh-token",
		Summary: "Exchange a refresh token for a new access token",
	}, h.RefreshTokenHandler)

	// --- Password Recovery ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/auth/forgot-password",
		Summary: "Request a password reset link",
	}, h.ForgotPasswordHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/auth/reset-password/{token}",
		Summary: "Reset password with a token",
	}, h.ResetPasswordHandler)

	// --- OAuth ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/auth/oauth/{provider}",
		Summary: "Initiate OAuth login",
	}, h.OAuthLoginHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/auth/oauth/{provider}/callback",
		Summary: "Handle OAuth callback",
	}, h.OAuthCallbackHandler)

	// --- Profile (requires authentication middleware) ---
	huma.Register(api, huma.Operation{
		Method:   http.MethodGet,
		Path:     "/auth/me",
		Summary:  "Get the current account",
		Security: []map[string][]string{{"BearerAuth": {}}},
	}, h.GetProfileHandler)
}

// bearerToken strips the scheme prefix from an Authorization header value.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
