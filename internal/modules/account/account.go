package account

import (
	"time"
)

// Account is the durable credential record for one identity.
//
// Optional columns (username, password hash, google id, refresh token) are
// pointers so that "absent" is a real NULL in the store: uniqueness indexes
// only cover present values, and an empty-string placeholder would collide.
// PasswordHash and RefreshToken are never serialized to external consumers.
type Account struct {
	ID              string       `db:"id"`
	Email           string       `db:"email"`
	Username        *string      `db:"username"`
	PasswordHash    *string      `db:"password_hash"`
	GoogleID        *string      `db:"google_id"`
	Avatar          *string      `db:"avatar"`
	EmailVerified   bool         `db:"email_verified"`
	ProfileComplete bool         `db:"profile_complete"`
	RefreshToken    *string      `db:"refresh_token"`
	LastLogin       *time.Time   `db:"last_login"`
	LoginHistory    LoginHistory `db:"login_history"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

// LoginEntry is one append-only login-history record.
type LoginEntry struct {
	Time time.Time `json:"time"`
	IP   string    `json:"ip"`
}

// LoginHistory is stored as a jsonb array on the accounts row so that a
// history append and a refresh-token overwrite can happen in one UPDATE.
type LoginHistory []LoginEntry

// CodePurpose is the reason a one-time code was issued. The ledger keys live
// codes by (email, purpose); issuing a new code supersedes all prior codes
// for the pair.
type CodePurpose string

const (
	PurposeEmailVerification CodePurpose = "email-verification"
	PurposePhoneVerification CodePurpose = "phone-verification"
	PurposePasswordReset     CodePurpose = "password-reset"
	PurposeAccountRecovery   CodePurpose = "account-recovery"
)

// OneTimeCode is a short-lived verification code. Codes expire five minutes
// after issuance and are deleted in bulk on successful verification.
type OneTimeCode struct {
	ID        string      `db:"id"`
	Email     string      `db:"email"`
	Purpose   CodePurpose `db:"purpose"`
	Code      string      `db:"code"`
	Attempts  int         `db:"attempts"`
	ExpiresAt time.Time   `db:"expires_at"`
	CreatedAt time.Time   `db:"created_at"`
}

// PasswordResetToken is a single-use, high-entropy reset credential. At most
// one active set exists per account; redeeming one purges every token for
// the account.
type PasswordResetToken struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// OAuthProvider names an external identity provider.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "google"
)

// OAuthState persists the CSRF state and PKCE verifier for an in-flight
// OAuth handshake.
type OAuthState struct {
	State     string        `db:"state"`
	Provider  OAuthProvider `db:"provider"`
	Verifier  string        `db:"verifier"`
	ExpiresAt time.Time     `db:"expires_at"`
	CreatedAt time.Time     `db:"created_at"`
}

// ProviderAssertion is the identity handed over by a completed external
// handshake. ProviderID is the provider-assigned stable identifier.
type ProviderAssertion struct {
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}
