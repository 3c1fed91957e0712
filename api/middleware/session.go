package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/streeteats-connect/api/responses"
	"github.com/angelmondragon/streeteats-connect/pkg/auth"
	"github.com/angelmondragon/streeteats-connect/pkg/config"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
)

// Session resolves the storefront session from the X-Session-Token header.
// A missing, expired or tampered token starts a fresh session; the token in
// force is always echoed back on the response.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := strings.TrimSpace(r.Header.Get(auth.SessionHeader))

			var sessionKey string
			if raw != "" {
				claims, err := auth.ParseSessionToken(cfg, raw)
				if err == nil {
					sessionKey = claims.SessionKey
				} else if logg != nil {
					logg.Warn(logg.WithField(ctx, "reason", err.Error()), "session.token_rejected")
				}
			}

			token := raw
			if sessionKey == "" {
				sessionKey = auth.NewSessionKey()
				minted, err := auth.MintSessionToken(cfg, time.Now(), sessionKey)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token"))
					return
				}
				token = minted
			}

			w.Header().Set(auth.SessionHeader, token)
			ctx = WithSessionKey(ctx, sessionKey)
			if logg != nil {
				ctx = logg.WithSessionKey(ctx, sessionKey)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
