package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/newshub/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	if !ValidID(id) {
		return types.User{}, ErrNotFound
	}

	const query = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1`
	var user types.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)`
	var user types.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Create inserts a user. It returns ErrConflict when the email is taken.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	user.ID = NewID()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	return user, nil
}

// Update rewrites the mutable fields of a user.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	if !ValidID(user.ID) {
		return types.User{}, ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			password_hash = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}
