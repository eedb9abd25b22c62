// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/roomlink/messaging-platform/internal/auth"
	"github.com/roomlink/messaging-platform/internal/model"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// ParticipantIDKey is the context key for the authenticated participant id.
	ParticipantIDKey ContextKey = "participant_id"
	// RoleKey is the context key for the participant role.
	RoleKey ContextKey = "role"
)

// Auth creates authentication middleware backed by the identity verifier.
func Auth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(parts[1])
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ParticipantIDKey, identity.ParticipantID)
			ctx = context.WithValue(ctx, RoleKey, identity.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetParticipantID gets the authenticated participant id from context.
func GetParticipantID(ctx context.Context) uint64 {
	if v := ctx.Value(ParticipantIDKey); v != nil {
		return v.(uint64)
	}
	return 0
}

// GetRole gets the participant role from context.
func GetRole(ctx context.Context) model.Role {
	if v := ctx.Value(RoleKey); v != nil {
		return v.(model.Role)
	}
	return ""
}
