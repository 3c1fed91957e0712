package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/streeteats-connect/api/responses"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	pkgredis "github.com/angelmondragon/streeteats-connect/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	// OrderIdempotencyTTL covers a vendor retrying checkout days later from
	// a stale tab.
	OrderIdempotencyTTL   = 7 * 24 * time.Hour
	DefaultIdempotencyTTL = 24 * time.Hour

	claimTTL       = time.Minute
	maxKeyLength   = 255
	stateClaimed   = "claimed"
	stateCompleted = "completed"
)

type idempotencyRecord struct {
	State       string              `json:"state"`
	RequestHash string              `json:"request_hash"`
	Status      int                 `json:"status,omitempty"`
	Header      map[string][]string `json:"header,omitempty"`
	Body        []byte              `json:"body,omitempty"`
}

// Idempotency replays the first completed response for a repeated
// Idempotency-Key within ttl. Keys are scoped to the session, method and
// route pattern, so it must be mounted per route with r.With. Requests
// without a key, and all requests when store is nil, pass straight through.
// Server errors are not kept so the client can retry with the same key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger, ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if store == nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(key) > maxKeyLength {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			storeKey := store.IdempotencyKey(idempotencyScope(r), key)

			claim, _ := json.Marshal(idempotencyRecord{State: stateClaimed, RequestHash: hash})
			claimed, err := store.SetNX(ctx, storeKey, string(claim), claimTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replay(w, r, store, storeKey, hash, logg)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				if err := store.Del(ctx, storeKey); err != nil && logg != nil {
					logg.Error(ctx, "release idempotency claim", err)
				}
				return
			}
			done, _ := json.Marshal(idempotencyRecord{
				State:       stateCompleted,
				RequestHash: hash,
				Status:      status,
				Header:      replayHeaders(capture.Header()),
				Body:        capture.body.Bytes(),
			})
			if err := store.Set(ctx, storeKey, string(done), ttl); err != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, storeKey, hash string, logg *logger.Logger) {
	ctx := r.Context()
	raw, err := store.Get(ctx, storeKey)
	switch {
	case errors.Is(err, redis.Nil):
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is being retried, try again"))
		return
	case err != nil:
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record"))
		return
	}

	var rec idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if rec.RequestHash != hash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if rec.State != stateCompleted {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is still in progress"))
		return
	}

	for k, v := range rec.Header {
		w.Header()[k] = v
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}

func idempotencyScope(r *http.Request) string {
	route := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		// the pattern groups /read/ calls for different ids, so the
		// concrete path stays part of the scope.
		route = rc.RoutePattern() + "@" + r.URL.Path
	}
	return strings.Join([]string{SessionKeyFromContext(r.Context()), r.Method, route}, "|")
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func replayHeaders(h http.Header) map[string][]string {
	out := map[string][]string{}
	for _, k := range []string{"Content-Type", "Location"} {
		if v := h.Values(k); len(v) > 0 {
			out[k] = v
		}
	}
	return out
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
