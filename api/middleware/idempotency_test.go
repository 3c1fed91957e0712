package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key], _ = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key], _ = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

// orderRouter mounts h on the place-order route the way the API router does.
func orderRouter(store *fakeStore, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.With(Idempotency(store, nil, OrderIdempotencyTTL)).Post("/orders/api/place-order/", h)
	r.With(Idempotency(store, nil, 0)).Post("/notifications/api/{notificationId}/read/", h)
	return r
}

func send(h http.Handler, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return payload.Error.Code
}

func TestIdempotencyWithoutKeyRunsEveryTime(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := orderRouter(store, func(w http.ResponseWriter, _ *http.Request) { calls++ })

	send(h, "/orders/api/place-order/", "", `{"vendor_name":"v"}`)
	send(h, "/orders/api/place-order/", "", `{"vendor_name":"v"}`)
	if calls != 2 || len(store.data) != 0 {
		t.Fatalf("calls=%d stored=%d", calls, len(store.data))
	}
}

func TestIdempotencyReplaysCompletedOrder(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := orderRouter(store, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"order_id":"6f1c"}`))
	})

	first := send(h, "/orders/api/place-order/", "checkout-1", `{"vendor_name":"Ravi"}`)
	second := send(h, "/orders/api/place-order/", "checkout-1", `{"vendor_name":"Ravi"}`)

	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("replay %d %q", second.Code, second.Body.String())
	}
	if second.Header().Get("Content-Type") != "application/json" || second.Header().Get(ReplayedHeader) != "true" {
		t.Fatalf("replay headers %v", second.Header())
	}
	if first.Header().Get(ReplayedHeader) != "" {
		t.Fatal("first response marked as replay")
	}
	for _, ttl := range store.ttls {
		if ttl != OrderIdempotencyTTL {
			t.Fatalf("stored with ttl %v", ttl)
		}
	}
}

func TestIdempotencyRejectsChangedBody(t *testing.T) {
	store := newFakeStore()
	h := orderRouter(store, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })

	send(h, "/orders/api/place-order/", "checkout-2", `{"vendor_name":"Ravi"}`)
	rec := send(h, "/orders/api/place-order/", "checkout-2", `{"vendor_name":"Someone else"}`)

	if rec.Code != http.StatusConflict || errorCode(t, rec) != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	h := orderRouter(store, func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusCreated)
	})

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- send(h, "/orders/api/place-order/", "checkout-3", `{}`) }()
	<-entered

	dup := send(h, "/orders/api/place-order/", "checkout-3", `{}`)
	close(release)
	first := <-done

	if first.Code != http.StatusCreated {
		t.Fatalf("first %d", first.Code)
	}
	if dup.Code != http.StatusConflict || !strings.Contains(dup.Body.String(), "still in progress") {
		t.Fatalf("duplicate %d %s", dup.Code, dup.Body.String())
	}
}

func TestIdempotencyForgetsServerErrors(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := orderRouter(store, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	if rec := send(h, "/orders/api/place-order/", "checkout-4", `{}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("first %d", rec.Code)
	}
	if rec := send(h, "/orders/api/place-order/", "checkout-4", `{}`); rec.Code != http.StatusCreated {
		t.Fatalf("retry %d", rec.Code)
	}
	if calls != 2 {
		t.Fatalf("calls %d", calls)
	}
}

func TestIdempotencyScopesByNotification(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := orderRouter(store, func(w http.ResponseWriter, _ *http.Request) { calls++ })

	send(h, "/notifications/api/a1/read/", "read", ``)
	send(h, "/notifications/api/b2/read/", "read", ``)
	send(h, "/notifications/api/a1/read/", "read", ``)
	if calls != 2 {
		t.Fatalf("calls %d", calls)
	}
	for _, ttl := range store.ttls {
		if ttl != DefaultIdempotencyTTL && ttl != claimTTL {
			t.Fatalf("ttl %v", ttl)
		}
	}
}

func TestIdempotencyRejectsLongKey(t *testing.T) {
	h := orderRouter(newFakeStore(), func(http.ResponseWriter, *http.Request) {})
	rec := send(h, "/orders/api/place-order/", strings.Repeat("k", maxKeyLength+1), `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
}
