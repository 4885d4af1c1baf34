package services

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/newshub/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Create(ctx context.Context, session types.Session) error
	Get(ctx context.Context, token string) (types.Session, error)
	Touch(ctx context.Context, token string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// FavoriteRepository defines persistence operations for favorites.
type FavoriteRepository interface {
	Add(ctx context.Context, favorite types.Favorite) (types.Favorite, bool, error)
	List(ctx context.Context, userID string, query types.FavoriteQuery) ([]types.Favorite, int, error)
	Delete(ctx context.Context, userID, id string) error
}

// EventPublisher delivers domain events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// NewsClient fetches documents from the upstream news API.
type NewsClient interface {
	Configured() bool
	Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}
