package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/newshub/apiserver/internal/apperr"
	"github.com/newshub/apiserver/types"
)

const maxBodyBytes = 1 << 20

type contextKey string

const contextAuthKey contextKey = "auth"

func withAuth(ctx context.Context, auth types.AuthContext) context.Context {
	return context.WithValue(ctx, contextAuthKey, auth)
}

// authFromContext returns the identity stored by RequireAuth.
func authFromContext(ctx context.Context) (types.AuthContext, bool) {
	auth, ok := ctx.Value(contextAuthKey).(types.AuthContext)
	if !ok || auth.UserID == "" {
		return types.AuthContext{}, false
	}
	return auth, true
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeRawJSON writes an already encoded document.
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError translates err into the error envelope. Unclassified errors are
// logged and reported as a generic internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.As(err)
	status := appErr.Status()

	message := appErr.Message
	if appErr.Kind == apperr.KindInternal {
		message = "Something went wrong"
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:    appErr.WireCode(),
		Message: message,
		ID:      appErr.ID,
	}})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Validation("Invalid JSON body")
	}
	return nil
}
