package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps sessions in the sessions table so they survive restarts
// and can be shared by several gateway instances.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, sess *Session) error {
	const q = `
INSERT INTO sessions (id, token, user_id, user_name, user_email, user_role, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := s.pool.Exec(ctx, q,
		sess.ID, sess.Token,
		sess.User.ID, sess.User.Name, sess.User.Email, sess.User.Role,
		sess.CreatedAt, sess.ExpiresAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	const q = `
SELECT id, token, user_id, user_name, user_email, user_role, created_at, expires_at
FROM sessions
WHERE id = $1
`
	var out Session
	if err := s.pool.QueryRow(ctx, q, id).Scan(
		&out.ID,
		&out.Token,
		&out.User.ID,
		&out.User.Name,
		&out.User.Email,
		&out.User.Role,
		&out.CreatedAt,
		&out.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
