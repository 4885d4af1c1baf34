package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatusAndCode(t *testing.T) {
	tests := []struct {
		kind   Kind
		code   string
		status int
	}{
		{KindValidation, "ValidationError", http.StatusBadRequest},
		{KindUnauthorized, "Unauthorized", http.StatusUnauthorized},
		{KindInvalidCredentials, "InvalidCredentials", http.StatusUnauthorized},
		{KindInvalidPassword, "InvalidPassword", http.StatusUnauthorized},
		{KindEmailInUse, "EmailInUse", http.StatusConflict},
		{KindAlreadyFavorited, "AlreadyFavorited", http.StatusConflict},
		{KindNotFound, "NotFound", http.StatusNotFound},
		{KindUpstream, "UpstreamError", http.StatusBadGateway},
		{KindConfig, "ConfigError", http.StatusServiceUnavailable},
		{KindInternal, "InternalError", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.String())
			assert.Equal(t, tt.status, tt.kind.Status())
		})
	}
}

func TestAsClassifiesUnknownErrorsAsInternal(t *testing.T) {
	got := As(errors.New("boom"))
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "Something went wrong", got.Message)
}

func TestAsFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", AlreadyFavorited("F1"))

	got := As(wrapped)
	assert.Equal(t, KindAlreadyFavorited, got.Kind)
	assert.Equal(t, "F1", got.ID)
	assert.True(t, IsKind(wrapped, KindAlreadyFavorited))
	assert.False(t, IsKind(wrapped, KindNotFound))
}

func TestOverrides(t *testing.T) {
	err := &Error{Kind: KindUpstream, Code: "rateLimited", HTTPStatus: http.StatusTooManyRequests}
	assert.Equal(t, "rateLimited", err.WireCode())
	assert.Equal(t, http.StatusTooManyRequests, err.Status())
}
