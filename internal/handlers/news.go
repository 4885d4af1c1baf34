package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/newshub/apiserver/internal/services"
)

// NewsRouter registers the news proxy routes.
func NewsRouter(r chi.Router, newsService *services.NewsService) {
	r.Get("/top-headlines", relay(newsService.TopHeadlines))
	r.Get("/everything", relay(newsService.Everything))
	r.Get("/sources", relay(newsService.Sources))
}

func relay(fetch func(ctx context.Context, query url.Values) (json.RawMessage, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := fetch(r.Context(), r.URL.Query())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeRawJSON(w, http.StatusOK, body)
	}
}
