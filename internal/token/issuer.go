package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalid is returned when a token fails parsing, signature checks,
	// expiry, or carries the wrong type marker for the verification method used.
	ErrInvalid = errors.New("invalid or expired token")

	// ErrIssuance is returned when a token cannot be minted, typically because
	// a signing secret is missing from configuration. Callers must treat this
	// as fatal to the operation, never as a credential failure.
	ErrIssuance = errors.New("token issuance failed")
)

// Claims carries the identity assertions embedded in every issued token.
// Access tokens include the email; refresh tokens carry the subject only;
// temporary registration tokens set Temp and are rejected by VerifyAccess.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Temp  bool   `json:"temp,omitempty"`
}

// Config holds the secrets and lifetimes for the issuer.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	TempTTL       time.Duration
}

// Issuer mints and verifies the three token kinds used by the identity flows.
// Access and refresh tokens are signed with independent shared secrets.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	tempTTL       time.Duration
}

// NewIssuer builds an Issuer from config. Zero TTLs fall back to the
// defaults: 15m access, 7d refresh, 15m temp.
func NewIssuer(cfg Config) *Issuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.TempTTL <= 0 {
		cfg.TempTTL = 15 * time.Minute
	}
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		tempTTL:       cfg.TempTTL,
	}
}

// AccessToken mints a short-lived token asserting the account id and email.
func (i *Issuer) AccessToken(accountID, email string) (string, error) {
	return i.sign(i.accessSecret, Claims{
		RegisteredClaims: registered(accountID, i.accessTTL),
		Email:            email,
	})
}

// RefreshToken mints a long-lived token asserting the account id only.
// Its current value is persisted on the account record so it can be
// invalidated server-side by overwrite.
func (i *Issuer) RefreshToken(accountID string) (string, error) {
	return i.sign(i.refreshSecret, Claims{
		RegisteredClaims: registered(accountID, i.refreshTTL),
	})
}

// TempToken mints a short-lived registration token. It is signed with the
// access secret but carries the temp marker, so it is never accepted by
// VerifyAccess.
func (i *Issuer) TempToken(accountID, email string) (string, error) {
	return i.sign(i.accessSecret, Claims{
		RegisteredClaims: registered(accountID, i.tempTTL),
		Email:            email,
		Temp:             true,
	})
}

// VerifyAccess validates a full session access token. Temp-flagged tokens
// are rejected even though they share the signing secret.
func (i *Issuer) VerifyAccess(token string) (*Claims, error) {
	claims, err := i.verify(token, i.accessSecret)
	if err != nil {
		return nil, err
	}
	if claims.Temp {
		return nil, ErrInvalid
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token against the refresh secret.
func (i *Issuer) VerifyRefresh(token string) (*Claims, error) {
	return i.verify(token, i.refreshSecret)
}

// VerifyTemp validates a temporary registration token. Tokens without the
// temp marker are rejected so a full session token cannot complete
// registration on someone else's behalf.
func (i *Issuer) VerifyTemp(token string) (*Claims, error) {
	claims, err := i.verify(token, i.accessSecret)
	if err != nil {
		return nil, err
	}
	if !claims.Temp {
		return nil, ErrInvalid
	}
	return claims, nil
}

func (i *Issuer) sign(secret []byte, claims Claims) (string, error) {
	if len(secret) == 0 {
		return "", ErrIssuance
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIssuance, err)
	}
	return signed, nil
}

func (i *Issuer) verify(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

func registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}
