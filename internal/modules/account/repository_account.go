package account

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

const accountColumns = "id, email, username, password_hash, google_id, avatar, " +
	"email_verified, profile_complete, refresh_token, last_login, login_history, " +
	"created_at, updated_at"

// Create inserts a new account record into the database.
func (r *repository) Create(ctx context.Context, a *Account) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.LoginHistory == nil {
		a.LoginHistory = LoginHistory{}
	}

	history, err := json.Marshal(a.LoginHistory)
	if err != nil {
		return err
	}

	query, args, err := r.psql.Insert("accounts").
		Columns("id", "email", "username", "password_hash", "google_id", "avatar",
			"email_verified", "profile_complete", "refresh_token", "last_login",
			"login_history", "created_at", "updated_at").
		Values(a.ID, a.Email, a.Username, a.PasswordHash, a.GoogleID, a.Avatar,
			a.EmailVerified, a.ProfileComplete, a.RefreshToken, a.LastLogin,
			history, a.CreatedAt, a.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// FindByEmail retrieves an account by its normalized email address.
// It returns ErrNotFound if no account is found.
func (r *repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, squirrel.Eq{"email": email})
}

// FindByID retrieves an account by its unique ID.
func (r *repository) FindByID(ctx context.Context, id string) (*Account, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByGoogleID retrieves an account by its provider-assigned identifier.
func (r *repository) FindByGoogleID(ctx context.Context, googleID string) (*Account, error) {
	return r.findOne(ctx, squirrel.Eq{"google_id": googleID})
}

// Update modifies an existing account's mutable fields in the database.
// Login history, last login and refresh token are excluded on purpose;
// those change only through RecordLogin so concurrent sign-ins cannot be
// clobbered by an unrelated profile write.
func (r *repository) Update(ctx context.Context, a *Account) error {
	a.UpdatedAt = time.Now()

	query, args, err := r.psql.Update("accounts").
		Set("username", a.Username).
		Set("password_hash", a.PasswordHash).
		Set("google_id", a.GoogleID).
		Set("avatar", a.Avatar).
		Set("email_verified", a.EmailVerified).
		Set("profile_complete", a.ProfileComplete).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPassword stores a new password hash for an account.
func (r *repository) SetPassword(ctx context.Context, accountID, passwordHash string) error {
	query, args, err := r.psql.Update("accounts").
		Set("password_hash", passwordHash).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordLogin persists the sign-in tail as one statement: the history append,
// the last-login update and the refresh-token overwrite land atomically, so
// concurrent sign-ins for the same account cannot interleave partial writes.
func (r *repository) RecordLogin(ctx context.Context, accountID string, entry LoginEntry, refreshToken string) error {
	entryJSON, err := json.Marshal([]LoginEntry{entry})
	if err != nil {
		return err
	}

	query, args, err := r.psql.Update("accounts").
		Set("last_login", entry.Time).
		Set("refresh_token", refreshToken).
		Set("login_history", squirrel.Expr("login_history || ?::jsonb", entryJSON)).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// findOne is a helper method to find a single account by a given condition.
func (r *repository) findOne(ctx context.Context, condition squirrel.Sqlizer) (*Account, error) {
	query, args, err := r.psql.Select(accountColumns).
		From("accounts").
		Where(condition).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var a Account
	if err := pgxscan.Get(ctx, r.db, &a, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &a, nil
}
