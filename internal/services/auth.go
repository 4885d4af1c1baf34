package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/newshub/apiserver/internal/apperr"
	"github.com/newshub/apiserver/internal/store"
	"github.com/newshub/apiserver/types"
)

const sessionTokenBytes = 32

var errNotAuthenticated = apperr.Unauthorized("Authentication required")

// AuthService manages server-side sessions.
type AuthService struct {
	users    *UserService
	sessions SessionRepository
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewAuthService(users *UserService, sessions SessionRepository, ttl time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// TTL returns the session lifetime measured from the last renewal.
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

// Login verifies credentials and opens a session for the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (types.User, types.Session, error) {
	user, err := s.users.Verify(ctx, email, password)
	if err != nil {
		return types.User{}, types.Session{}, err
	}
	session, err := s.StartSession(ctx, user.ID)
	if err != nil {
		return types.User{}, types.Session{}, err
	}
	return user, session, nil
}

// StartSession opens a session for userID.
func (s *AuthService) StartSession(ctx context.Context, userID string) (types.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return types.Session{}, apperr.Internal(err)
	}

	now := s.now().UTC()
	session := types.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return types.Session{}, apperr.Internal(err)
	}
	return session, nil
}

// Authenticate resolves a session token to the caller's identity and renews
// the session. Expired sessions and sessions of vanished users are deleted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (types.AuthContext, error) {
	if token == "" {
		return types.AuthContext{}, errNotAuthenticated
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.AuthContext{}, errNotAuthenticated
		}
		return types.AuthContext{}, apperr.Internal(err)
	}

	now := s.now()
	if session.Expired(now) {
		s.discard(ctx, token)
		return types.AuthContext{}, errNotAuthenticated
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			s.discard(ctx, token)
			return types.AuthContext{}, errNotAuthenticated
		}
		return types.AuthContext{}, err
	}

	if err := s.sessions.Touch(ctx, token, now.UTC().Add(s.ttl)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.AuthContext{}, errNotAuthenticated
		}
		return types.AuthContext{}, apperr.Internal(err)
	}
	return user.AuthContext(), nil
}

// Logout deletes the session. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// PruneSessions removes expired sessions from the backing store.
func (s *AuthService) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

func (s *AuthService) discard(ctx context.Context, token string) {
	if err := s.sessions.Delete(ctx, token); err != nil {
		s.logger.Warn("failed to delete session", "error", err)
	}
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
