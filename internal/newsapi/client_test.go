package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newshub/apiserver/config"
	"github.com/newshub/apiserver/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := New(config.NewsAPIConfig{BaseURL: srv.URL, APIKey: apiKey, Timeout: 2 * time.Second}, nil)
	client.initialBackoff = time.Millisecond
	return client
}

func TestGet_SendsKeyAndParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/top-headlines", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":0,"articles":[]}`))
	}, "secret")

	body, err := client.Get(context.Background(), "/v2/top-headlines", url.Values{"country": {"us"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","totalResults":0,"articles":[]}`, string(body))
}

func TestGet_MapsUpstreamErrors(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{"apiKeyInvalid", http.StatusUnauthorized},
		{"rateLimited", http.StatusTooManyRequests},
		{"parametersMissing", http.StatusBadRequest},
		{"somethingNew", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"status":"error","code":"` + tt.code + `","message":"nope"}`))
			}, "secret")

			_, err := client.Get(context.Background(), "/v2/everything", nil)
			require.Error(t, err)

			appErr := apperr.As(err)
			assert.Equal(t, apperr.KindUpstream, appErr.Kind)
			assert.Equal(t, tt.code, appErr.WireCode())
			assert.Equal(t, tt.status, appErr.Status())
			assert.Equal(t, "nope", appErr.Message)
		})
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}, "secret")

	_, err := client.Get(context.Background(), "/v2/top-headlines/sources", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGet_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}, "secret")

	_, err := client.Get(context.Background(), "/v2/everything", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Equal(t, "UpstreamError", apperr.As(err).WireCode())
	assert.Equal(t, http.StatusBadGateway, apperr.As(err).Status())
	assert.EqualValues(t, maxAttempts, calls.Load())
}

func TestGet_ErrorDocumentIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","code":"unexpectedError","message":"boom"}`))
	}, "secret")

	_, err := client.Get(context.Background(), "/v2/everything", nil)
	require.Error(t, err)
	assert.Equal(t, "unexpectedError", apperr.As(err).WireCode())
	assert.Equal(t, http.StatusBadGateway, apperr.As(err).Status())
	assert.EqualValues(t, 1, calls.Load())
}

func TestGet_StopsRetryingWhenContextEnds(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}, "secret")

	_, err := client.Get(ctx, "/v2/everything", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.EqualValues(t, 1, calls.Load())
}

func TestGet_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := New(config.NewsAPIConfig{BaseURL: base, APIKey: "secret", Timeout: time.Second}, nil)
	_, err := client.Get(context.Background(), "/v2/everything", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Equal(t, http.StatusBadGateway, apperr.As(err).Status())
}

func TestGet_NotConfigured(t *testing.T) {
	client := New(config.NewsAPIConfig{BaseURL: "http://example.invalid"}, nil)
	assert.False(t, client.Configured())

	_, err := client.Get(context.Background(), "/v2/everything", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindConfig))
	assert.Equal(t, http.StatusServiceUnavailable, apperr.As(err).Status())
}
