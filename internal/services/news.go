package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newshub/apiserver/internal/apperr"
	"github.com/newshub/apiserver/internal/cache"
	"github.com/newshub/apiserver/internal/newsapi"
)

const (
	pathTopHeadlines = "/v2/top-headlines"
	pathEverything   = "/v2/everything"
	pathSources      = "/v2/top-headlines/sources"

	headlinesTTL = 30 * time.Second
	sourcesTTL   = time.Hour

	maxQueryLength = 500
)

var newsCategories = map[string]struct{}{
	"business": {}, "entertainment": {}, "general": {}, "health": {},
	"science": {}, "sports": {}, "technology": {},
}

var everythingSorts = map[string]struct{}{
	"relevancy": {}, "popularity": {}, "publishedAt": {},
}

// NewsService validates news queries and relays them to the upstream API
// through a short-lived response cache.
type NewsService struct {
	client NewsClient
	cache  *cache.TTL[string, json.RawMessage]
}

func NewNewsService(client NewsClient) *NewsService {
	return &NewsService{
		client: client,
		cache:  cache.NewTTL[string, json.RawMessage](),
	}
}

// TopHeadlines relays /v2/top-headlines.
func (s *NewsService) TopHeadlines(ctx context.Context, query url.Values) (json.RawMessage, error) {
	if !s.client.Configured() {
		return nil, newsapi.ErrNotConfigured
	}

	params := url.Values{}
	var problems []string

	if v := strings.TrimSpace(query.Get("country")); v != "" {
		if len(v) != 2 {
			problems = append(problems, "country must be a 2-letter code")
		}
		params.Set("country", strings.ToLower(v))
	}
	if v := strings.TrimSpace(query.Get("category")); v != "" {
		v = strings.ToLower(v)
		if _, ok := newsCategories[v]; !ok {
			problems = append(problems, "category is not supported")
		}
		params.Set("category", v)
	}
	if v := strings.TrimSpace(query.Get("sources")); v != "" {
		params.Set("sources", v)
	}
	problems = append(problems, setSearchQuery(params, query)...)
	problems = append(problems, setPaging(params, query)...)

	if params.Has("sources") && (params.Has("country") || params.Has("category")) {
		problems = append(problems, "You can't mix 'sources' with 'country' or 'category'.")
	}
	if len(problems) > 0 {
		return nil, apperr.Validation(strings.Join(problems, "; "))
	}
	return s.fetch(ctx, pathTopHeadlines, params, headlinesTTL)
}

// Everything relays /v2/everything.
func (s *NewsService) Everything(ctx context.Context, query url.Values) (json.RawMessage, error) {
	if !s.client.Configured() {
		return nil, newsapi.ErrNotConfigured
	}

	params := url.Values{}
	var problems []string

	problems = append(problems, setSearchQuery(params, query)...)
	for _, key := range []string{"searchIn", "sources", "domains", "excludeDomains", "from", "to"} {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			params.Set(key, v)
		}
	}
	if v := strings.TrimSpace(query.Get("language")); v != "" {
		if len(v) != 2 {
			problems = append(problems, "language must be a 2-letter code")
		}
		params.Set("language", strings.ToLower(v))
	}
	sortBy := strings.TrimSpace(query.Get("sortBy"))
	if sortBy == "" {
		sortBy = "publishedAt"
	}
	if _, ok := everythingSorts[sortBy]; !ok {
		problems = append(problems, "sortBy must be one of relevancy, popularity, publishedAt")
	}
	params.Set("sortBy", sortBy)
	problems = append(problems, setPaging(params, query)...)

	if !params.Has("q") && !params.Has("sources") && !params.Has("domains") {
		problems = append(problems, "Provide 'q', 'sources', or 'domains'.")
	}
	if len(problems) > 0 {
		return nil, apperr.Validation(strings.Join(problems, "; "))
	}
	return s.fetch(ctx, pathEverything, params, headlinesTTL)
}

// Sources relays /v2/top-headlines/sources.
func (s *NewsService) Sources(ctx context.Context, query url.Values) (json.RawMessage, error) {
	if !s.client.Configured() {
		return nil, newsapi.ErrNotConfigured
	}

	params := url.Values{}
	var problems []string

	if v := strings.TrimSpace(query.Get("category")); v != "" {
		v = strings.ToLower(v)
		if _, ok := newsCategories[v]; !ok {
			problems = append(problems, "category is not supported")
		}
		params.Set("category", v)
	}
	for _, key := range []string{"language", "country"} {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			if len(v) != 2 {
				problems = append(problems, key+" must be a 2-letter code")
			}
			params.Set(key, strings.ToLower(v))
		}
	}
	if len(problems) > 0 {
		return nil, apperr.Validation(strings.Join(problems, "; "))
	}
	return s.fetch(ctx, pathSources, params, sourcesTTL)
}

// fetch serves from cache or the upstream API. Only successful documents are cached.
func (s *NewsService) fetch(ctx context.Context, path string, params url.Values, ttl time.Duration) (json.RawMessage, error) {
	// Encode sorts by key, so equal queries share an entry.
	key := path + "?" + params.Encode()
	if body, ok := s.cache.Get(key); ok {
		return body, nil
	}

	body, err := s.client.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, body, ttl)
	return body, nil
}

func setSearchQuery(params, query url.Values) []string {
	q := strings.TrimSpace(query.Get("q"))
	if q == "" {
		return nil
	}
	params.Set("q", q)
	if len([]rune(q)) > maxQueryLength {
		return []string{"q must be at most 500 characters"}
	}
	return nil
}

func setPaging(params, query url.Values) []string {
	var problems []string

	page, ok := parseBoundedInt(query.Get("page"), DefaultPage, 1, 0)
	if !ok {
		problems = append(problems, "page must be a positive integer")
	}
	pageSize, ok := parseBoundedInt(query.Get("pageSize"), DefaultPageSize, 1, MaxPageSize)
	if !ok {
		problems = append(problems, "pageSize must be between 1 and 100")
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	return problems
}

// parseBoundedInt parses raw, falling back to def when blank. A hi of 0
// means unbounded.
func parseBoundedInt(raw string, def, lo, hi int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || (hi > 0 && n > hi) {
		return def, false
	}
	return n, true
}
