package memstore

import (
	"context"
	"time"

	"github.com/newshub/apiserver/internal/store"
	"github.com/newshub/apiserver/types"
)

type SessionRepository struct {
	db *DB
}

func (r *SessionRepository) Create(ctx context.Context, s types.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[s.Token] = s
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, token string) (types.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return types.Session{}, store.ErrNotFound
	}
	return s, nil
}

func (r *SessionRepository) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return store.ErrNotFound
	}
	s.ExpiresAt = expiresAt
	r.db.sessions[token] = s
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.sessions, token)
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now()
	var n int64
	for token, s := range r.db.sessions {
		if s.Expired(now) {
			delete(r.db.sessions, token)
			n++
		}
	}
	return n, nil
}
