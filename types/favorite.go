package types

import (
	"math"
	"time"
)

// Favorite is an article bookmarked by a user. The article metadata is a
// snapshot taken at save time; it is never refreshed from upstream.
type Favorite struct {
	// ID is the unique identifier of the favorite.
	ID string `json:"id" db:"id"`

	// UserID identifies the owning user.
	UserID string `json:"userId" db:"user_id"`

	// URL is the canonical URL of the article. Unique per user.
	URL string `json:"url" db:"url"`

	Title       *string `json:"title,omitempty" db:"title"`
	Source      *string `json:"source,omitempty" db:"source"`
	URLToImage  *string `json:"urlToImage,omitempty" db:"url_to_image"`
	Description *string `json:"description,omitempty" db:"description"`
	Content     *string `json:"content,omitempty" db:"content"`

	// Language is the lowercased language tag of the article, if known.
	Language *string `json:"language,omitempty" db:"language"`

	// PublishedAt is the original publication time of the article.
	PublishedAt *time.Time `json:"publishedAt,omitempty" db:"published_at"`

	// AddedAt is the time the favorite was created. Immutable.
	AddedAt time.Time `json:"addedAt" db:"added_at"`
}

// FavoriteSort selects the ordering of a favorites listing.
type FavoriteSort string

const (
	// SortPublishedAt orders newest published first.
	SortPublishedAt FavoriteSort = "publishedAt"
	// SortOldest orders oldest published first.
	SortOldest FavoriteSort = "oldest"
	// SortTitle orders by title, A to Z.
	SortTitle FavoriteSort = "title"
	// SortAddedAt orders most recently saved first.
	SortAddedAt FavoriteSort = "addedAt"
)

// Valid reports whether s is a known sort.
func (s FavoriteSort) Valid() bool {
	switch s {
	case SortPublishedAt, SortOldest, SortTitle, SortAddedAt:
		return true
	default:
		return false
	}
}

// FavoriteQuery holds the filter, sort and paging parameters of a listing.
type FavoriteQuery struct {
	Page     int
	PageSize int
	SortBy   FavoriteSort
	Language string
	From     *time.Time
	To       *time.Time
}

// Offset returns the number of rows skipped before the requested page.
// It saturates at math.MaxInt for pages too far out to address.
func (q FavoriteQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// FavoriteInput is the article snapshot submitted when saving a favorite.
// Blank optional fields are treated as absent.
type FavoriteInput struct {
	URL         string  `json:"url"`
	Title       *string `json:"title"`
	Source      *string `json:"source"`
	URLToImage  *string `json:"urlToImage"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	Language    *string `json:"language"`
	// PublishedAt is an RFC 3339 timestamp.
	PublishedAt *string `json:"publishedAt"`
}
