package memstore

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/newshub/apiserver/internal/store"
	"github.com/newshub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestUsers_EmailUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	first, err := users.Create(ctx, types.User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = users.Create(ctx, types.User{Name: "Ada 2", Email: "ADA@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := users.GetByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestUsers_UpdateEmailTakenByOther(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	_, err := users.Create(ctx, types.User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	bob, err := users.Create(ctx, types.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	bob.Email = "ada@example.com"
	_, err = users.Update(ctx, bob)
	assert.ErrorIs(t, err, store.ErrConflict)

	bob.Email = "bob@example.com"
	bob.Name = "Robert"
	updated, err := users.Update(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.Name)
}

func TestFavorites_AddReturnsExisting(t *testing.T) {
	ctx := context.Background()
	favs := New().Favorites()

	first, created, err := favs.Add(ctx, types.Favorite{UserID: "u1", URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := favs.Add(ctx, types.Favorite{UserID: "u1", URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	// Another user may save the same URL.
	_, created, err = favs.Add(ctx, types.Favorite{UserID: "u2", URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestFavorites_ConcurrentAddCreatesOneRow(t *testing.T) {
	ctx := context.Background()
	favs := New().Favorites()

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := favs.Add(ctx, types.Favorite{UserID: "u1", URL: "https://example.com/race"})
			assert.NoError(t, err)
			results <- created
		}()
	}
	wg.Wait()
	close(results)

	createdCount := 0
	for created := range results {
		if created {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)

	_, total, err := favs.List(ctx, "u1", types.FavoriteQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestFavorites_ListSortOrders(t *testing.T) {
	ctx := context.Background()
	favs := New().Favorites()

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	add := func(url string, title *string, published *time.Time) string {
		f, _, err := favs.Add(ctx, types.Favorite{UserID: "u1", URL: url, Title: title, PublishedAt: published})
		require.NoError(t, err)
		return f.ID
	}
	a := add("https://example.com/a", strPtr("Beta"), timePtr(jan))
	b := add("https://example.com/b", strPtr("Alpha"), timePtr(mar))
	c := add("https://example.com/c", nil, nil)

	ids := func(sortBy types.FavoriteSort) []string {
		items, _, err := favs.List(ctx, "u1", types.FavoriteQuery{Page: 1, PageSize: 10, SortBy: sortBy})
		require.NoError(t, err)
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}

	assert.Equal(t, []string{b, a, c}, ids(types.SortPublishedAt))
	assert.Equal(t, []string{c, a, b}, ids(types.SortOldest))
	assert.Equal(t, []string{c, b, a}, ids(types.SortTitle))
	assert.Equal(t, []string{c, b, a}, ids(types.SortAddedAt))
}

func TestFavorites_ListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	favs := New().Favorites()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		lang := "en"
		if i%5 == 0 {
			lang = "fr"
		}
		_, _, err := favs.Add(ctx, types.Favorite{
			UserID:      "u1",
			URL:         fmt.Sprintf("https://example.com/%d", i),
			Language:    strPtr(lang),
			PublishedAt: timePtr(base.Add(time.Duration(i) * 24 * time.Hour)),
		})
		require.NoError(t, err)
	}

	q := types.FavoriteQuery{PageSize: 7, SortBy: types.SortPublishedAt, Language: "EN"}
	seen := map[string]bool{}
	var total int
	for page := 1; page <= 3; page++ {
		q.Page = page
		items, n, err := favs.List(ctx, "u1", q)
		require.NoError(t, err)
		total = n
		for _, it := range items {
			assert.False(t, seen[it.ID], "duplicate across pages")
			seen[it.ID] = true
		}
	}
	assert.Equal(t, 20, total)
	assert.Len(t, seen, 20)

	from := base.Add(10 * 24 * time.Hour)
	to := base.Add(12 * 24 * time.Hour)
	items, n, err := favs.List(ctx, "u1", types.FavoriteQuery{Page: 1, PageSize: 12, From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, items, 3)

	items, n, err = favs.List(ctx, "u1", types.FavoriteQuery{Page: 9, PageSize: 12})
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Empty(t, items)
}

func TestFavorites_DeleteScopedToOwner(t *testing.T) {
	ctx := context.Background()
	favs := New().Favorites()

	f, _, err := favs.Add(ctx, types.Favorite{UserID: "u1", URL: "https://example.com/a"})
	require.NoError(t, err)

	assert.ErrorIs(t, favs.Delete(ctx, "u2", f.ID), store.ErrNotFound)
	require.NoError(t, favs.Delete(ctx, "u1", f.ID))
	assert.ErrorIs(t, favs.Delete(ctx, "u1", f.ID), store.ErrNotFound)
}

func TestSessions_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	sessions := New().Sessions()

	now := time.Now()
	require.NoError(t, sessions.Create(ctx, types.Session{Token: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, sessions.Create(ctx, types.Session{Token: "dead", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}))

	n, err := sessions.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = sessions.Get(ctx, "dead")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = sessions.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestFavorites_ListPageBeyondEnd(t *testing.T) {
	ctx := context.Background()
	favs := New().Favorites()

	_, _, err := favs.Add(ctx, types.Favorite{UserID: "u1", URL: "https://example.com/1"})
	require.NoError(t, err)

	for _, page := range []int{2, 1 << 40, math.MaxInt} {
		items, total, err := favs.List(ctx, "u1", types.FavoriteQuery{Page: page, PageSize: 2, SortBy: types.SortAddedAt})
		require.NoError(t, err)
		assert.Empty(t, items, "page %d", page)
		assert.Equal(t, 1, total)
	}
}

func TestFavorites_TitleSortIsBytewise(t *testing.T) {
	ctx := context.Background()
	favs := New().Favorites()

	for i, title := range []string{"apple", "Banana", "cherry", "Apple"} {
		_, _, err := favs.Add(ctx, types.Favorite{
			UserID: "u1",
			URL:    fmt.Sprintf("https://example.com/%d", i),
			Title:  strPtr(title),
		})
		require.NoError(t, err)
	}

	items, _, err := favs.List(ctx, "u1", types.FavoriteQuery{Page: 1, PageSize: 10, SortBy: types.SortTitle})
	require.NoError(t, err)

	var titles []string
	for _, it := range items {
		titles = append(titles, *it.Title)
	}
	assert.Equal(t, []string{"Apple", "Banana", "apple", "cherry"}, titles)
}
