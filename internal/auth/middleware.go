package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/httpx"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userContextKey contextKey = "user"

// RoleChecker answers role lookups against the database.
type RoleChecker interface {
	HasRole(ctx context.Context, userID string, role models.Role) (bool, error)
}

// UserFromContext returns the claims stored by Authenticate.
func UserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(userContextKey).(*Claims)
	return claims, ok
}

// WithUser stores claims in ctx.
func WithUser(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// extractBearerToken reads the Authorization header. Browsers cannot set
// headers on a websocket handshake, so upgrade requests may pass the token
// as ?access_token= instead.
func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if isUpgrade(r) {
			if token := r.URL.Query().Get("access_token"); token != "" {
				return token, nil
			}
		}
		return "", errors.New("authorization header missing")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// Authenticate rejects requests without a valid bearer token.
func (t *Tokens) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, err := extractBearerToken(r)
		if err != nil {
			httpx.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		claims, err := t.Parse(tokenStr)
		if err != nil {
			httpx.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
	})
}

// OptionalAuthenticate attaches the user when a valid token is present and
// otherwise lets the request through as a guest.
func (t *Tokens) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenStr, err := extractBearerToken(r); err == nil {
			if claims, err := t.Parse(tokenStr); err == nil {
				r = r.WithContext(WithUser(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole asks the database on every request whether the caller holds
// role. Roles in the token are only a hint: a revoked admin loses access
// before their token expires.
func RequireRole(checker RoleChecker, role models.Role, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := UserFromContext(r.Context())
			if !ok {
				httpx.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			allowed, err := checker.HasRole(r.Context(), claims.UserID(), role)
			if err != nil {
				logger.WithError(err).WithField("user_id", claims.UserID()).Error("Role check failed")
				httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to verify permissions")
				return
			}
			if !allowed {
				logger.WithFields(logrus.Fields{
					"user_id": claims.UserID(),
					"role":    role,
				}).Warn("Access denied")
				httpx.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
