package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/newshub/apiserver/internal/apperr"
	"github.com/newshub/apiserver/internal/store"
	"github.com/newshub/apiserver/types"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// FavoriteService encapsulates favorite use-cases. Every operation is
// scoped to the user id it is given.
type FavoriteService struct {
	repo   FavoriteRepository
	events *Events
}

func NewFavoriteService(repo FavoriteRepository, events *Events) *FavoriteService {
	return &FavoriteService{repo: repo, events: events}
}

// Add saves an article for the user. Saving a URL twice returns
// AlreadyFavorited carrying the id of the first favorite.
func (s *FavoriteService) Add(ctx context.Context, userID string, in types.FavoriteInput) (types.Favorite, error) {
	fav, err := favoriteFromInput(userID, in)
	if err != nil {
		return types.Favorite{}, err
	}

	saved, created, err := s.repo.Add(ctx, fav)
	if err != nil {
		return types.Favorite{}, apperr.Internal(err)
	}
	if !created {
		return types.Favorite{}, apperr.AlreadyFavorited(saved.ID)
	}

	s.events.emit(ctx, EventFavoriteAdded, favoriteEvent{
		UserID:     userID,
		FavoriteID: saved.ID,
		URL:        saved.URL,
		OccurredAt: saved.AddedAt,
	})
	return saved, nil
}

// List returns one page of the user's favorites and the filtered total.
func (s *FavoriteService) List(ctx context.Context, userID string, q types.FavoriteQuery) ([]types.Favorite, int, error) {
	if q.Page < 1 {
		return nil, 0, apperr.Validation("page must be at least 1")
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return nil, 0, apperr.Validation("pageSize must be between 1 and 100")
	}
	if q.SortBy == "" {
		q.SortBy = types.SortPublishedAt
	}
	if !q.SortBy.Valid() {
		return nil, 0, apperr.Validation("sortBy must be one of publishedAt, oldest, title, addedAt")
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, 0, apperr.Validation("from must not be after to")
	}
	q.Language = strings.ToLower(strings.TrimSpace(q.Language))

	items, total, err := s.repo.List(ctx, userID, q)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

// Remove deletes one of the user's favorites.
func (s *FavoriteService) Remove(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Favorite not found")
		}
		return apperr.Internal(err)
	}

	s.events.emit(ctx, EventFavoriteRemoved, favoriteEvent{
		UserID:     userID,
		FavoriteID: id,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func favoriteFromInput(userID string, in types.FavoriteInput) (types.Favorite, error) {
	rawURL := strings.TrimSpace(in.URL)
	if rawURL == "" || !isAbsoluteURL(rawURL) {
		return types.Favorite{}, apperr.Validation("A valid article URL is required")
	}

	fav := types.Favorite{
		UserID:      userID,
		URL:         rawURL,
		Title:       nonEmpty(in.Title),
		Source:      nonEmpty(in.Source),
		URLToImage:  nonEmpty(in.URLToImage),
		Description: nonEmpty(in.Description),
		Content:     nonEmpty(in.Content),
		Language:    nonEmpty(in.Language),
	}

	if fav.URLToImage != nil && !isAbsoluteURL(*fav.URLToImage) {
		return types.Favorite{}, apperr.Validation("urlToImage must be a valid URL")
	}
	if fav.Language != nil {
		lang := strings.ToLower(*fav.Language)
		fav.Language = &lang
	}
	if published := nonEmpty(in.PublishedAt); published != nil {
		t, err := time.Parse(time.RFC3339, *published)
		if err != nil {
			return types.Favorite{}, apperr.Validation("publishedAt must be an ISO 8601 date-time")
		}
		t = t.UTC()
		fav.PublishedAt = &t
	}
	return fav, nil
}

// nonEmpty trims s and maps blank values to nil.
func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
