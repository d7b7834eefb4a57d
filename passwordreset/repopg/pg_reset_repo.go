package pgresetrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	apierrors "github.com/jomko/go-session-api/internal/errors"
	"github.com/jomko/go-session-api/passwordreset"
	"github.com/pkg/errors"
)

var _ passwordreset.Repo = (*PgResetRepo)(nil)

// PgResetRepo implements passwordreset.Repo on PostgreSQL. The single-use
// invariant rides on the conditional UPDATE in Consume: only one caller can
// flip consumed from false to true.
type PgResetRepo struct {
	pool *pgxpool.Pool
}

func NewPgResetRepo(pool *pgxpool.Pool) *PgResetRepo {
	return &PgResetRepo{pool: pool}
}

func (rr *PgResetRepo) Upsert(ctx context.Context, token *passwordreset.Token) error {
	const query = `INSERT INTO password_reset_tokens (token_hash, user_id, created_at, expires_at, consumed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token_hash) DO UPDATE
		SET expires_at = EXCLUDED.expires_at, consumed = EXCLUDED.consumed`
	_, err := rr.pool.Exec(ctx, query, token.TokenHash, token.UserID, token.CreatedAt, token.ExpiresAt, token.Consumed)
	if err != nil {
		return errors.Wrap(err, "[PgResetRepo.Upsert] pool.Exec")
	}
	return nil
}

func (rr *PgResetRepo) GetByHash(ctx context.Context, tokenHash string) (*passwordreset.Token, error) {
	const query = `SELECT token_hash, user_id, created_at, expires_at, consumed
		FROM password_reset_tokens WHERE token_hash = $1`
	var t passwordreset.Token
	err := rr.pool.QueryRow(ctx, query, tokenHash).Scan(&t.TokenHash, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.Consumed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierrors.ErrTokenNotFound
		}
		return nil, errors.Wrap(err, "[PgResetRepo.GetByHash] row.Scan")
	}
	return &t, nil
}

func (rr *PgResetRepo) Consume(ctx context.Context, tokenHash string) error {
	const query = `UPDATE password_reset_tokens SET consumed = TRUE
		WHERE token_hash = $1 AND consumed = FALSE`
	tag, err := rr.pool.Exec(ctx, query, tokenHash)
	if err != nil {
		return errors.Wrap(err, "[PgResetRepo.Consume] pool.Exec")
	}
	if tag.RowsAffected() == 0 {
		// Either unknown or already consumed; disambiguate for the caller
		if _, getErr := rr.GetByHash(ctx, tokenHash); getErr != nil {
			return getErr
		}
		return apierrors.ErrTokenConsumed
	}
	return nil
}

func (rr *PgResetRepo) InvalidateForUser(ctx context.Context, userID string) error {
	const query = `UPDATE password_reset_tokens SET consumed = TRUE
		WHERE user_id = $1 AND consumed = FALSE`
	if _, err := rr.pool.Exec(ctx, query, userID); err != nil {
		return errors.Wrap(err, "[PgResetRepo.InvalidateForUser] pool.Exec")
	}
	return nil
}
