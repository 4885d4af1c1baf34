package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/newshub/apiserver/internal/store"
	"github.com/newshub/apiserver/types"
)

type FavoriteRepository struct {
	db *DB
}

// Add stores fav unless the user already saved its URL, in which case the
// existing favorite is returned with created set to false.
func (r *FavoriteRepository) Add(ctx context.Context, fav types.Favorite) (types.Favorite, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, f := range r.db.favorites {
		if f.UserID == fav.UserID && f.URL == fav.URL {
			return f, false, nil
		}
	}

	fav.ID = store.NewID()
	fav.AddedAt = time.Now().UTC()
	r.db.favorites[fav.ID] = fav
	return fav, true, nil
}

func (r *FavoriteRepository) List(ctx context.Context, userID string, q types.FavoriteQuery) ([]types.Favorite, int, error) {
	r.db.mu.RLock()
	matched := make([]types.Favorite, 0)
	for _, f := range r.db.favorites {
		if f.UserID == userID && matches(f, q) {
			matched = append(matched, f)
		}
	}
	r.db.mu.RUnlock()

	sort.SliceStable(matched, lessFunc(matched, q.SortBy))

	total := len(matched)
	start := min(max(q.Offset(), 0), total)
	end := total
	if q.PageSize > 0 && q.PageSize < total-start {
		end = start + q.PageSize
	}
	return matched[start:end], total, nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, userID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	f, ok := r.db.favorites[id]
	if !ok || f.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.db.favorites, id)
	return nil
}

func matches(f types.Favorite, q types.FavoriteQuery) bool {
	if q.Language != "" {
		if f.Language == nil || !strings.EqualFold(*f.Language, q.Language) {
			return false
		}
	}
	if q.From != nil || q.To != nil {
		if f.PublishedAt == nil {
			return false
		}
		if q.From != nil && f.PublishedAt.Before(*q.From) {
			return false
		}
		if q.To != nil && f.PublishedAt.After(*q.To) {
			return false
		}
	}
	return true
}

// lessFunc reproduces the ORDER BY clauses of the postgres repository.
func lessFunc(items []types.Favorite, by types.FavoriteSort) func(i, j int) bool {
	switch by {
	case types.SortOldest:
		return func(i, j int) bool {
			if c := compareTime(items[i].PublishedAt, items[j].PublishedAt); c != 0 {
				return c < 0
			}
			return items[i].ID < items[j].ID
		}
	case types.SortTitle:
		return func(i, j int) bool {
			if c := compareString(items[i].Title, items[j].Title); c != 0 {
				return c < 0
			}
			return items[i].ID < items[j].ID
		}
	case types.SortAddedAt:
		return func(i, j int) bool {
			if !items[i].AddedAt.Equal(items[j].AddedAt) {
				return items[i].AddedAt.After(items[j].AddedAt)
			}
			return items[i].ID > items[j].ID
		}
	default:
		return func(i, j int) bool {
			if c := compareTime(items[i].PublishedAt, items[j].PublishedAt); c != 0 {
				return c > 0
			}
			return items[i].ID > items[j].ID
		}
	}
}

// compareTime orders nil before any value, so descending order puts nils last.
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func compareString(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return strings.Compare(*a, *b)
}
