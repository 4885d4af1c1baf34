package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const (
	EventUserRegistered  = "users.registered"
	EventFavoriteAdded   = "favorites.added"
	EventFavoriteRemoved = "favorites.removed"
)

const publishTimeout = 3 * time.Second

// Events publishes domain events on a best-effort basis. Failures are logged
// and never reach the caller. A nil *Events discards everything.
type Events struct {
	publisher EventPublisher
	logger    *slog.Logger
}

func NewEvents(publisher EventPublisher, logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{publisher: publisher, logger: logger}
}

func (e *Events) emit(ctx context.Context, channel string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error("failed to encode event", "channel", channel, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := e.publisher.Publish(ctx, channel, data, map[string]string{"type": channel}); err != nil {
		e.logger.Warn("failed to publish event", "channel", channel, "error", err)
	}
}

type userRegisteredEvent struct {
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

type favoriteEvent struct {
	UserID     string    `json:"userId"`
	FavoriteID string    `json:"favoriteId"`
	URL        string    `json:"url,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
