package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/streeteats-connect/api/responses"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy is a named limit per window. A zero limit or window
// disables it.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int64
}

func NewRateLimitPolicy(name string, window time.Duration, limit int64) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	return RateLimitPolicy{name: name, window: window, limit: limit}
}

// RateLimit counts requests per session, or per client IP when there is
// no session yet. Store errors let the request through.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || policy.window <= 0 || policy.limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(r), policy.limit, policy.window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "rate limit store unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(policy.limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(max(policy.limit-count, 0), 10))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{
					"policy":   policy.name,
					"attempts": count,
					"limit":    policy.limit,
				}), "rate limited")
			}
			responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
		})
	}
}

func (p RateLimitPolicy) scope(r *http.Request) string {
	if key := SessionKeyFromContext(r.Context()); key != "" {
		return p.name + ":" + key
	}
	return p.name + ":ip:" + clientIP(r)
}

// clientIP takes the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
