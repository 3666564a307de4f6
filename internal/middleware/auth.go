// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"stitchtales/internal/auth"
	"stitchtales/internal/models"
	"stitchtales/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"

	// IdentityKey is the context key for the authenticated caller.
	IdentityKey contextKey = "identity"
)

// AuthMethod records how a request was authenticated.
type AuthMethod string

const (
	ViaSession AuthMethod = "session"
	ViaToken   AuthMethod = "token"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     models.Role
	Via      AuthMethod
}

// LoadIdentity resolves the caller from a bearer token or, failing that,
// the session cookie. A session only yields an identity once 2FA (if
// enabled) is complete; the raw session is still stored for the 2FA
// handlers. An invalid bearer token is rejected with 401. This middleware
// does NOT enforce authentication.
func LoadIdentity(sessions *session.Store, tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearerToken(r); ok {
				id, claims, err := tokens.Verify(raw)
				if err != nil {
					writeError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				ctx := context.WithValue(r.Context(), IdentityKey, &Identity{
					UserID:   id,
					Username: claims.Username,
					Role:     models.Role(claims.Role),
					Via:      ViaToken,
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			data, err := sessions.Get(r.Context(), r)
			if err != nil {
				// Log but don't block — treat as unauthenticated.
				slog.Warn("session load failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				ctx := context.WithValue(r.Context(), SessionKey, data)
				if data.TwoFADone {
					ctx = context.WithValue(ctx, IdentityKey, &Identity{
						UserID:   data.UserID,
						Username: data.Username,
						Role:     models.Role(data.Role),
						Via:      ViaSession,
					})
				}
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth answers 401 with a JSON error when no identity is loaded.
// Must be applied after LoadIdentity in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromCtx returns the authenticated caller, or nil for anonymous requests.
func IdentityFromCtx(ctx context.Context) *Identity {
	id, _ := ctx.Value(IdentityKey).(*Identity)
	return id
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// WithIdentity returns a copy of ctx carrying id. Used by tests and by
// handlers that authenticate inline.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[7:]), true
}

// writeError writes a {"error": msg} JSON body.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
