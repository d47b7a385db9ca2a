package account

import (
	"context"
	"log/slog"

	"github.com/artmorph/api/internal/config"
	"github.com/artmorph/api/internal/notification"
	"github.com/artmorph/api/internal/notification/templates"
	"github.com/artmorph/api/internal/ratelimit"
	"github.com/artmorph/api/internal/token"
)

// Service defines the interface for the account module's business logic.
// It orchestrates the registration state machine, sign-in, OAuth linking and
// password recovery over the repository, the token issuer and the delivery
// collaborator.
type Service interface {
	// Registration state machine
	InitiateVerification(ctx context.Context, email string) error
	ConfirmVerification(ctx context.Context, email, code string) (*VerificationResult, error)
	CompleteRegistration(ctx context.Context, tempToken, username, password, confirmPassword string) (*Account, error)

	// Sign-in and tokens
	SignIn(ctx context.Context, email, password, originIP string) (*AuthResult, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)

	// Password recovery
	RequestPasswordReset(ctx context.Context, email string) error
	RedeemPasswordReset(ctx context.Context, token, password, confirmPassword string) error

	// OAuth
	InitiateOAuthLogin(ctx context.Context, provider OAuthProvider) (redirectURL string, err error)
	HandleOAuthCallback(ctx context.Context, provider OAuthProvider, state, code, originIP string) (*OAuthResult, error)
	LinkOAuthIdentity(ctx context.Context, assertion ProviderAssertion, originIP string) (*OAuthResult, error)

	// Profile
	GetProfile(ctx context.Context, accountID string) (*Account, error)
}

// VerificationResult is returned after a successful code confirmation: the
// non-sensitive account projection plus the temporary registration token.
type VerificationResult struct {
	Account   *Account
	TempToken string
}

// AuthResult is the outcome of a successful sign-in.
type AuthResult struct {
	Account      *Account
	AccessToken  string
	RefreshToken string
}

// OAuthResult is the outcome of a successful OAuth link. Accounts with an
// incomplete profile get no session tokens; the caller routes them back into
// the registration flow.
type OAuthResult struct {
	Account         *Account
	ProfileComplete bool
	AccessToken     string
	RefreshToken    string
}

// service implements the Service interface.
type service struct {
	repo    Repository
	tokens  *token.Issuer
	mail    notification.Service
	tmpl    *templates.Engine
	limiter ratelimit.Limiter
	logger  *slog.Logger
	config  *config.Config
}

// Config holds the dependencies for the account service.
type Config struct {
	Repo    Repository
	Tokens  *token.Issuer
	Mail    notification.Service
	Tmpl    *templates.Engine
	Limiter ratelimit.Limiter
	Logger  *slog.Logger
	Config  *config.Config
}

// NewService creates a new account service with the given dependencies.
func NewService(cfg *Config) Service {
	return &service{
		repo:    cfg.Repo,
		tokens:  cfg.Tokens,
		mail:    cfg.Mail,
		tmpl:    cfg.Tmpl,
		limiter: cfg.Limiter,
		logger:  cfg.Logger,
		config:  cfg.Config,
	}
}
