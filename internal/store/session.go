package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/newshub/apiserver/types"
)

// SessionRepository stores sessions in postgres.
type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s types.Session) error {
	const query = `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, s.Token, s.UserID, s.CreatedAt, s.ExpiresAt)
	return err
}

func (r *SessionRepository) Get(ctx context.Context, token string) (types.Session, error) {
	const query = `
		SELECT token, user_id, created_at, expires_at
		FROM sessions
		WHERE token = $1`
	var s types.Session
	if err := r.db.GetContext(ctx, &s, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Session{}, ErrNotFound
		}
		return types.Session{}, err
	}
	return s, nil
}

// Touch moves the expiry of a session.
func (r *SessionRepository) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	const query = `UPDATE sessions SET expires_at = $1 WHERE token = $2`
	result, err := r.db.ExecContext(ctx, query, expiresAt, token)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	const query = `DELETE FROM sessions WHERE token = $1`
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}

// DeleteExpired purges sessions past their expiry and returns how many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= $1`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
