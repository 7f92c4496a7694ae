package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/raycity/authserver/internal/services"
	"github.com/raycity/authserver/internal/token"
)

// AuthHandler exposes the authentication endpoints over HTTP.
type AuthHandler struct {
	authService *services.AuthService
	issuer      *token.Issuer
	production  bool
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, issuer *token.Issuer, production bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		issuer:      issuer,
		production:  production,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, issuer *token.Issuer, production bool) {
	handler := NewAuthHandler(authService, issuer, production)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Get("/session", handler.Session)
	r.With(handler.RequireSession).Get("/users", handler.Users)
}

// RequireSession enforces a valid session cookie and injects the decoded
// identity into the request context.
func (h *AuthHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(token.CookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		identity, err := h.issuer.Verify(cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Register creates a new user account. Registration does not log the
// user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	err := h.authService.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "User created"})
	case errors.Is(err, services.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Missing username or password")
	case errors.Is(err, services.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "Username already exists")
	default:
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		http.SetCookie(w, token.Cookie(session.Token, h.production))
		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Logged in",
			User:    &UserInfo{Username: session.Username},
		})
	case errors.Is(err, services.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Missing username or password")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, token.ClearCookie(h.production))
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Logged out"})
}

// Session reports whether the request carries a valid session cookie.
// The check itself always answers 200; an absent or invalid cookie is a
// negative result, not an error.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(token.CookieName)
	if err != nil {
		writeJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
		return
	}

	identity, err := h.issuer.Verify(cookie.Value)
	if err != nil {
		writeJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          &UserInfo{Username: identity.Username},
	})
}

// Users lists every account without credential fields. Requires a valid
// session.
func (h *AuthHandler) Users(w http.ResponseWriter, r *http.Request) {
	if _, err := identityFromContext(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Users: users})
}

// CredentialsRequest is the request body shared by register and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
