package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/newshub/apiserver/types"
)

// FavoriteRepository handles persistence for favorites.
type FavoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

var favoriteOrder = map[types.FavoriteSort]string{
	types.SortPublishedAt: "published_at DESC NULLS LAST, id DESC",
	types.SortOldest:      "published_at ASC NULLS FIRST, id ASC",
	types.SortTitle:       `title COLLATE "C" ASC NULLS FIRST, id ASC`,
	types.SortAddedAt:     "added_at DESC, id DESC",
}

// Add inserts a favorite unless the user already saved the same URL. In both
// cases the stored row is returned; created reports whether it is new.
// The statement is a single upsert, so concurrent adds of one URL resolve to
// one row without a separate lookup.
func (r *FavoriteRepository) Add(ctx context.Context, fav types.Favorite) (types.Favorite, bool, error) {
	fav.ID = NewID()
	fav.AddedAt = time.Now().UTC()

	const query = `
		INSERT INTO favorites (
			id, user_id, url, title, source, url_to_image, description, content,
			language, published_at, added_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, url) DO UPDATE SET url = favorites.url
		RETURNING id, added_at, (xmax = 0) AS inserted`

	var row struct {
		ID       string    `db:"id"`
		AddedAt  time.Time `db:"added_at"`
		Inserted bool      `db:"inserted"`
	}
	err := r.db.QueryRowxContext(
		ctx,
		query,
		fav.ID,
		fav.UserID,
		fav.URL,
		fav.Title,
		fav.Source,
		fav.URLToImage,
		fav.Description,
		fav.Content,
		fav.Language,
		fav.PublishedAt,
		fav.AddedAt,
	).StructScan(&row)
	if err != nil {
		return types.Favorite{}, false, err
	}

	fav.ID = row.ID
	fav.AddedAt = row.AddedAt
	return fav, row.Inserted, nil
}

// List returns one page of the user's favorites and the filtered total.
func (r *FavoriteRepository) List(ctx context.Context, userID string, q types.FavoriteQuery) ([]types.Favorite, int, error) {
	where, args := favoriteFilter(userID, q)

	countQuery := `SELECT COUNT(1) FROM favorites WHERE ` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	order, ok := favoriteOrder[q.SortBy]
	if !ok {
		order = favoriteOrder[types.SortPublishedAt]
	}

	listQuery := fmt.Sprintf(`
		SELECT id, user_id, url, title, source, url_to_image, description, content,
			language, published_at, added_at
		FROM favorites
		WHERE %s
		ORDER BY %s
		OFFSET $%d LIMIT $%d`, where, order, len(args)+1, len(args)+2)

	items := make([]types.Favorite, 0, q.PageSize)
	if err := r.db.SelectContext(ctx, &items, listQuery, append(args, q.Offset(), q.PageSize)...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Delete removes a favorite owned by userID. Missing and foreign favorites
// both report ErrNotFound.
func (r *FavoriteRepository) Delete(ctx context.Context, userID, id string) error {
	if !ValidID(id) {
		return ErrNotFound
	}

	const query = `DELETE FROM favorites WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
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

func favoriteFilter(userID string, q types.FavoriteQuery) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}

	if q.Language != "" {
		args = append(args, strings.ToLower(q.Language))
		clauses = append(clauses, fmt.Sprintf("LOWER(language) = $%d", len(args)))
	}
	if q.From != nil {
		args = append(args, *q.From)
		clauses = append(clauses, fmt.Sprintf("published_at >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, *q.To)
		clauses = append(clauses, fmt.Sprintf("published_at <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}
