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

// --- One-time code ledger ---

// CreateCode inserts a fresh one-time code. Callers are expected to have
// deleted prior codes for the (email, purpose) pair first so at most one
// live batch exists per pair.
func (r *repository) CreateCode(ctx context.Context, c *OneTimeCode) error {
	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id.String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	query, args, err := r.psql.Insert("one_time_codes").
		Columns("id", "email", "purpose", "code", "attempts", "expires_at", "created_at").
		Values(c.ID, c.Email, string(c.Purpose), c.Code, c.Attempts, c.ExpiresAt, c.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// FindLiveCode looks up a non-expired code by exact (email, purpose, code) match.
func (r *repository) FindLiveCode(ctx context.Context, email string, purpose CodePurpose, code string) (*OneTimeCode, error) {
	query, args, err := r.psql.Select("id", "email", "purpose", "code", "attempts", "expires_at", "created_at").
		From("one_time_codes").
		Where(squirrel.Eq{"email": email, "purpose": string(purpose), "code": code}).
		Where(squirrel.Gt{"expires_at": time.Now()}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c OneTimeCode
	if err := pgxscan.Get(ctx, r.db, &c, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &c, nil
}

// DeleteCodes removes every code for the (email, purpose) pair, closing the
// verification window. Used both to supersede prior codes on issue and to
// consume codes on successful verification.
func (r *repository) DeleteCodes(ctx context.Context, email string, purpose CodePurpose) error {
	query, args, err := r.psql.Delete("one_time_codes").
		Where(squirrel.Eq{"email": email, "purpose": string(purpose)}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// DeleteCodeByID removes a single code, used to roll back issuance when
// delivery could not be confirmed.
func (r *repository) DeleteCodeByID(ctx context.Context, id string) error {
	query, args, err := r.psql.Delete("one_time_codes").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return err
}
