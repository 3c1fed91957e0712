package middleware

import "context"

type contextKey string

const ctxSessionKey contextKey = "session_key"

// SessionKeyFromContext returns the storefront session key set by Session.
func SessionKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionKey injects the session key into the context for downstream handlers.
func WithSessionKey(ctx context.Context, sessionKey string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionKey, sessionKey)
}
