package middleware

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// ClaimsKey is the context key for the full validated token claims.
	ClaimsKey contextKey = "claims"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetClaims returns the validated claims of the current request, or nil.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims
}

// GetRole returns the role from the token, or empty when unauthenticated.
func GetRole(ctx context.Context) models.Role {
	if claims := GetClaims(ctx); claims != nil {
		return claims.Role
	}
	return ""
}

// WithClaims stores claims in ctx the same way RequireAuth does.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// RequireAuth returns an interceptor that validates JWT tokens and requires
// authentication for every procedure except the public ones. It extracts the
// token from the Authorization header, validates it, rejects revoked tokens
// and adds the claims to the request context.
func RequireAuth(jwtManager *auth.JWTManager, revoker auth.Revoker, public ...string) connect.UnaryInterceptorFunc {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if open[req.Spec().Procedure] {
				return next(ctx, req)
			}

			// Extract Authorization header
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			// Parse Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}
			tokenString := parts[1]

			// Validate token
			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			if revoker != nil {
				revoked, err := revoker.IsRevoked(ctx, claims.ID)
				if err != nil {
					slog.Error("Revocation check failed", "user_id", claims.UserID, "error", err)
					return nil, connect.NewError(connect.CodeUnavailable, err)
				}
				if revoked {
					return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrRevokedToken)
				}
			}

			// Call the next handler with enriched context
			return next(WithClaims(ctx, claims), req)
		}
	}
}
