package pguserrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	apierrors "github.com/jomko/go-session-api/internal/errors"
	"github.com/jomko/go-session-api/users"
	"github.com/pkg/errors"
)

var _ users.UserRepo = (*PgUserRepo)(nil)

// PgUserRepo implements users.UserRepo on PostgreSQL.
type PgUserRepo struct {
	pool *pgxpool.Pool
}

func NewPgUserRepo(pool *pgxpool.Pool) *PgUserRepo {
	return &PgUserRepo{pool: pool}
}

func (ur *PgUserRepo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	const query = `INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, password_hash = EXCLUDED.password_hash`
	_, err := ur.pool.Exec(ctx, query, user.ID, user.Name, users.NormalizeEmail(user.Email), user.PasswordHash, user.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "[PgUserRepo.Upsert] pool.Exec")
	}
	return nil
}

func (ur *PgUserRepo) Delete(ctx context.Context, email string) error {
	const query = `DELETE FROM users WHERE email = $1`
	tag, err := ur.pool.Exec(ctx, query, users.NormalizeEmail(email))
	if err != nil {
		return errors.Wrap(err, "[PgUserRepo.Delete] pool.Exec")
	}
	if tag.RowsAffected() == 0 {
		return apierrors.ErrUserNotFound
	}
	return nil
}

func (ur *PgUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`
	return ur.scanUser(ur.pool.QueryRow(ctx, query, users.NormalizeEmail(email)))
}

func (ur *PgUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`
	return ur.scanUser(ur.pool.QueryRow(ctx, query, id))
}

func (ur *PgUserRepo) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`
	tag, err := ur.pool.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return errors.Wrap(err, "[PgUserRepo.UpdatePasswordHash] pool.Exec")
	}
	if tag.RowsAffected() == 0 {
		return apierrors.ErrUserNotFound
	}
	return nil
}

func (ur *PgUserRepo) scanUser(row pgx.Row) (*users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierrors.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "[PgUserRepo.scanUser] row.Scan")
	}
	return &u, nil
}
