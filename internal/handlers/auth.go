package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/newshub/apiserver/internal/apperr"
	"github.com/newshub/apiserver/internal/services"
	"github.com/newshub/apiserver/types"
)

// AuthHandler provides account and session endpoints.
type AuthHandler struct {
	userService *services.UserService
	authService *services.AuthService
	cookie      *SessionCookie
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, authService *services.AuthService, cookie *SessionCookie) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		cookie:      cookie,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
	r.With(handler.RequireAuth).Put("/profile", handler.UpdateProfile)
}

// RequireAuth resolves the session cookie and stores the caller's identity
// in the request context. Requests without a valid session get 401.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.cookie.Token(r)
		auth, err := h.authService.Authenticate(r.Context(), token)
		if err != nil {
			if token != "" && apperr.IsKind(err, apperr.KindUnauthorized) {
				h.cookie.Clear(w, r)
			}
			writeError(w, r, err)
			return
		}

		// Renewed server side; roll the cookie expiry with it.
		if err := h.cookie.Set(w, r, token); err != nil {
			writeError(w, r, apperr.Internal(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(withAuth(r.Context(), auth)))
	})
}

// Register creates an account and signs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.authService.StartSession(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.cookie.Set(w, r, session.Token); err != nil {
		writeError(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Success: true, User: user.AuthContext()})
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, r, apperr.Validation("Email and password are required"))
		return
	}

	user, session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.cookie.Set(w, r, session.Token); err != nil {
		writeError(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Success: true, User: user.AuthContext()})
}

// Logout ends the current session, if any. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), h.cookie.Token(r)); err != nil {
		writeError(w, r, err)
		return
	}
	h.cookie.Clear(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("Authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{User: auth})
}

// UpdateProfile changes the caller's name, email or password.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("Authentication required"))
		return
	}

	var req types.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), auth.UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Success: true, User: user.AuthContext()})
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool              `json:"success"`
	User    types.AuthContext `json:"user"`
}

type MeResponse struct {
	User types.AuthContext `json:"user"`
}
