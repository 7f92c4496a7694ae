package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raycity/authserver/internal/token"
	"github.com/raycity/authserver/types"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// UserInfo is the public identity payload included in responses.
type UserInfo struct {
	Username string `json:"username"`
}

// Response is the uniform success/failure envelope shared by all auth
// endpoints.
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	User    *UserInfo           `json:"user,omitempty"`
	Users   []types.UserSummary `json:"users,omitempty"`
}

// SessionResponse is returned by the session-check endpoint.
type SessionResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *UserInfo `json:"user,omitempty"`
}

func identityFromContext(ctx context.Context) (token.Identity, error) {
	identity, ok := ctx.Value(contextIdentityKey).(token.Identity)
	if !ok || identity.Username == "" {
		return token.Identity{}, errors.New("missing identity")
	}
	return identity, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}
