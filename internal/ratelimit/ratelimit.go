// Package ratelimit throttles abusive clients with fixed-window counters.
// Limits are best effort: the in-memory limiter resets on restart.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/httpx"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const unknownClient = "unknown"

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// ClientIP picks the caller's address from proxy headers: the first
// X-Forwarded-For entry, then X-Real-IP, then the CDN's client header.
// Requests carrying none of them share the "unknown" bucket.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Nf-Client-Connection-Ip")); ip != "" {
		return ip
	}
	return unknownClient
}

// Middleware answers 429 once a client exceeds the limiter for scope.
// Limiter errors let the request through.
func Middleware(limiter Limiter, scope string, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			decision, err := limiter.Allow(r.Context(), scope+":"+ip)
			if err != nil {
				logger.WithError(err).WithField("scope", scope).Warn("Rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				seconds := int((decision.RetryAfter + time.Second - 1) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				logger.WithFields(logrus.Fields{
					"scope":  scope,
					"client": ip,
				}).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				httpx.RespondWithDetails(w, http.StatusTooManyRequests, "Too many requests, please try again later",
					map[string]int{"retry_after": seconds})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
