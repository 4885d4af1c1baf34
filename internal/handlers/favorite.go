package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/newshub/apiserver/internal/apperr"
	"github.com/newshub/apiserver/internal/services"
	"github.com/newshub/apiserver/types"
)

// FavoriteHandler serves the caller's saved articles.
type FavoriteHandler struct {
	favoriteService *services.FavoriteService
}

func NewFavoriteHandler(favoriteService *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// FavoriteRouter registers favorite routes. Every route requires a session.
func FavoriteRouter(r chi.Router, favoriteService *services.FavoriteService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewFavoriteHandler(favoriteService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListFavorites)
	r.Post("/", handler.AddFavorite)
	r.Delete("/{favoriteID}", handler.RemoveFavorite)
}

func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("Authentication required"))
		return
	}

	query, err := parseFavoriteQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, total, err := h.favoriteService.List(r.Context(), auth.UserID, query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FavoriteListResponse{
		Total:    total,
		Items:    items,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}

func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("Authentication required"))
		return
	}

	var req types.FavoriteInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	fav, err := h.favoriteService.Add(r.Context(), auth.UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, FavoriteCreatedResponse{ID: fav.ID, AddedAt: fav.AddedAt})
}

func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("Authentication required"))
		return
	}

	if err := h.favoriteService.Remove(r.Context(), auth.UserID, chi.URLParam(r, "favoriteID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseFavoriteQuery reads paging, sort and filters from the query string.
// Blank values fall back to defaults.
func parseFavoriteQuery(r *http.Request) (types.FavoriteQuery, error) {
	values := r.URL.Query()
	query := types.FavoriteQuery{
		Page:     services.DefaultPage,
		PageSize: services.DefaultPageSize,
		SortBy:   types.FavoriteSort(strings.TrimSpace(values.Get("sortBy"))),
		Language: strings.TrimSpace(values.Get("language")),
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return types.FavoriteQuery{}, apperr.Validation("page must be an integer")
		}
		query.Page = page
	}
	if raw := strings.TrimSpace(values.Get("pageSize")); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil {
			return types.FavoriteQuery{}, apperr.Validation("pageSize must be an integer")
		}
		query.PageSize = pageSize
	}

	var err error
	if query.From, err = parseOptionalTime(values.Get("from")); err != nil {
		return types.FavoriteQuery{}, apperr.Validation("from must be an ISO 8601 date-time")
	}
	if query.To, err = parseOptionalTime(values.Get("to")); err != nil {
		return types.FavoriteQuery{}, apperr.Validation("to must be an ISO 8601 date-time")
	}
	return query, nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type FavoriteListResponse struct {
	Total    int              `json:"total"`
	Items    []types.Favorite `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

type FavoriteCreatedResponse struct {
	ID      string    `json:"id"`
	AddedAt time.Time `json:"addedAt"`
}
