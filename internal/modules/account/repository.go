package account

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/artmorph/api/internal/database"
)

// Repository defines the interface for database operations for the account module.
// This abstraction allows the service layer to be independent of the database
// implementation; the store enforces the uniqueness constraints (email; username,
// google id and reset token when present).
type Repository interface {
	// Accounts
	Create(ctx context.Context, a *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByGoogleID(ctx context.Context, googleID string) (*Account, error)
	Update(ctx context.Context, a *Account) error
	SetPassword(ctx context.Context, accountID, passwordHash string) error
	// RecordLogin appends a login-history entry, updates last_login and
	// overwrites the stored refresh token in a single atomic UPDATE.
	RecordLogin(ctx context.Context, accountID string, entry LoginEntry, refreshToken string) error

	// One-time codes
	CreateCode(ctx context.Context, c *OneTimeCode) error
	FindLiveCode(ctx context.Context, email string, purpose CodePurpose, code string) (*OneTimeCode, error)
	DeleteCodes(ctx context.Context, email string, purpose CodePurpose) error
	DeleteCodeByID(ctx context.Context, id string) error

	// Password-reset tokens
	CreateResetToken(ctx context.Context, t *PasswordResetToken) error
	FindLiveResetToken(ctx context.Context, token string) (*PasswordResetToken, error)
	DeleteResetTokens(ctx context.Context, accountID string) error
	DeleteResetTokenByID(ctx context.Context, id string) error

	// OAuth states (for social login)
	InsertOAuthState(ctx context.Context, state *OAuthState) error
	GetOAuthState(ctx context.Context, state string) (*OAuthState, error)
	DeleteOAuthState(ctx context.Context, state string) error
	DeleteExpiredOAuthStates(ctx context.Context) error
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new account repository with the given database connection.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}
