package account

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Password-reset token ledger ---

// CreateResetToken inserts a new reset token. Callers delete the account's
// prior tokens first so at most one active set exists per account.
func (r *repository) CreateResetToken(ctx context.Context, t *PasswordResetToken) error {
	if t.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		t.ID = id.String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	query, args, err := r.psql.Insert("password_reset_tokens").
		Columns("id", "account_id", "token", "expires_at", "created_at").
		Values(t.ID, t.AccountID, t.Token, t.ExpiresAt, t.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// FindLiveResetToken looks up a non-expired token by its unique value.
func (r *repository) FindLiveResetToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	query, args, err := r.psql.Select("id", "account_id", "token", "expires_at", "created_at").
		From("password_reset_tokens").
		Where(squirrel.Eq{"token": token}).
		Where(squirrel.Gt{"expires_at": time.Now()}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var t PasswordResetToken
	if err := pgxscan.Get(ctx, r.db, &t, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &t, nil
}

// DeleteResetTokens purges every reset token for an account, so a stale
// alternate reset link cannot remain valid after one is used.
func (r *repository) DeleteResetTokens(ctx context.Context, accountID string) error {
	query, args, err := r.psql.Delete("password_reset_tokens").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// DeleteResetTokenByID removes a single token, used to roll back issuance
// when delivery could not be confirmed.
func (r *repository) DeleteResetTokenByID(ctx context.Context, id string) error {
	query, args, err := r.psql.Delete("password_reset_tokens").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return err
}
