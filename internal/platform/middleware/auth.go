package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	PlayerID    uuid.UUID
	IsSiteAdmin bool
}

type contextKeyPlayerID struct{}
type contextKeySiteAdmin struct{}

// GetPlayerID retrieves the authenticated player id from the context.
func GetPlayerID(ctx context.Context) uuid.UUID {
	playerID, ok := ctx.Value(contextKeyPlayerID{}).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return playerID
}

// IsSiteAdmin reports whether the authenticated player is a site admin.
func IsSiteAdmin(ctx context.Context) bool {
	admin, ok := ctx.Value(contextKeySiteAdmin{}).(bool)
	return ok && admin
}

// RequireAuth rejects requests without a valid bearer token and places
// the authenticated player in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				writeUnauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, contextKeyPlayerID{}, claims.PlayerID)
			ctx = context.WithValue(ctx, contextKeySiteAdmin{}, claims.IsSiteAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
