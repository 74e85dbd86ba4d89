package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context
// by the auth middleware.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// MessageResponse is the plain `{msg}` envelope used for errors and
// confirmations.
type MessageResponse struct {
	Msg string `json:"msg"`
}

func identityFromContext(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(contextIdentityKey).(Identity)
	if !ok || identity.UserID == uuid.Nil {
		return Identity{}, errors.New("missing identity")
	}
	return identity, nil
}

func withIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextIdentityKey, identity)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Msg: message})
}
