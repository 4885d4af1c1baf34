package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/newshub/apiserver/internal/store"
	"github.com/newshub/apiserver/types"
)

type UserRepository struct {
	db *DB
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	user, ok := r.db.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if user, ok := r.db.userByEmail(email); ok {
		return user, nil
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.userByEmail(user.Email); taken {
		return types.User{}, store.ErrConflict
	}

	now := time.Now().UTC()
	user.ID = store.NewID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.db.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if other, taken := r.db.userByEmail(user.Email); taken && other.ID != user.ID {
		return types.User{}, store.ErrConflict
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	r.db.users[user.ID] = user
	return user, nil
}

// userByEmail must be called with the lock held.
func (db *DB) userByEmail(email string) (types.User, bool) {
	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return types.User{}, false
}
