package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/streeteats-connect/api/middleware"
	"github.com/angelmondragon/streeteats-connect/internal/notifications"
	"github.com/angelmondragon/streeteats-connect/internal/sessioncart"
	"github.com/angelmondragon/streeteats-connect/internal/suppliers"
	"github.com/angelmondragon/streeteats-connect/pkg/auth"
	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/angelmondragon/streeteats-connect/pkg/db"
	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/metrics"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
)

type memoryIdempotency struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (m *memoryIdempotency) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key], _ = value.(string)
	return nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

type countingLimiter struct {
	mu    sync.Mutex
	count map[string]int64
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count[scope]++
	return c.count[scope] <= limit, c.count[scope], nil
}

type stubLookup struct{}

func (stubLookup) Lookup(_ context.Context, q suppliers.Query) (suppliers.Page, error) {
	return suppliers.Page{State: suppliers.StateResults, Term: q.Term, Summary: "1 supplier found", Source: suppliers.SourceDemo,
		Suppliers: []suppliers.Supplier{{PlaceID: "demo_1", Name: "Fresh Mart"}}}, nil
}

type testServer struct {
	handler http.Handler
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	client, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(models.All()...))

	inbox, err := notifications.NewService(notifications.NewRepository(client.DB()))
	require.NoError(t, err)
	cart, err := sessioncart.NewService(sessioncart.NewRepository(client.DB()), client, inbox, logger.Nop())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics.NewSearchMetrics(reg).ObserveSearch("demo", "results", time.Millisecond)

	cfg := &config.Config{
		App:       config.AppConfig{Env: "test"},
		Session:   config.SessionConfig{Secret: "router-test-secret", Issuer: "streeteats", TTL: time.Hour},
		RateLimit: config.RateLimitConfig{SearchWindow: time.Minute, SearchLimit: 2},
	}
	handler := NewRouter(Deps{
		Config:        cfg,
		Logger:        logger.Nop(),
		DB:            client,
		Idempotency:   &memoryIdempotency{data: map[string]string{}},
		Limiter:       &countingLimiter{count: map[string]int64{}},
		Cart:          cart,
		Notifications: inbox,
		Suppliers:     stubLookup{},
		Gatherer:      reg,
	})
	return &testServer{handler: handler}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set(auth.SessionHeader, s.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if tok := rec.Header().Get(auth.SessionHeader); tok != "" {
		s.token = tok
	}
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	live := srv.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, live.Code)
	ready := srv.do(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"database":"ok"`)

	m := srv.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `streeteats_supplier_searches_total{source="demo",state="results"} 1`)
}

func TestSessionCartFlow(t *testing.T) {
	srv := newTestServer(t)

	add := srv.do(t, http.MethodPost, "/orders/api/add-to-cart/", types.AddToCartRequest{
		Product:  types.ProductPayload{Name: "Onions", Price: 40},
		Supplier: types.SupplierPayload{PlaceID: "p1", Name: "Fresh Mart"},
		Quantity: 3,
	}, nil)
	require.Equal(t, http.StatusOK, add.Code, add.Body.String())
	require.NotEmpty(t, srv.token, "session token should be minted")

	var added types.CartActionResponse
	require.NoError(t, json.Unmarshal(add.Body.Bytes(), &added))
	assert.True(t, added.Success)
	assert.Equal(t, 3, added.CartCount)

	count := srv.do(t, http.MethodGet, "/orders/api/cart-count/", nil, nil)
	var totals types.CartCountResponse
	require.NoError(t, json.Unmarshal(count.Body.Bytes(), &totals))
	assert.Equal(t, 3, totals.CartCount)
	assert.InDelta(t, 120.0, totals.Subtotal, 0.001)

	other := &testServer{handler: srv.handler}
	otherCount := other.do(t, http.MethodGet, "/orders/api/cart-count/", nil, nil)
	require.NoError(t, json.Unmarshal(otherCount.Body.Bytes(), &totals))
	assert.Equal(t, 0, totals.CartCount, "a fresh session sees an empty cart")
}

func TestPlaceOrderIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/orders/api/add-to-cart/", types.AddToCartRequest{
		Product:  types.ProductPayload{Name: "Rice", Price: 60},
		Supplier: types.SupplierPayload{Name: "Depot"},
		Quantity: 2,
	}, nil)

	headers := map[string]string{middleware.IdempotencyHeader: "order-1"}
	body := types.PlaceOrderRequest{VendorName: "Ravi"}
	first := srv.do(t, http.MethodPost, "/orders/api/place-order/", body, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := srv.do(t, http.MethodPost, "/orders/api/place-order/", body, headers)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(middleware.ReplayedHeader))

	var placed types.PlaceOrderResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &placed))
	assert.InDelta(t, 170.0, placed.Total, 0.001)

	popup := srv.do(t, http.MethodGet, "/notifications/popup/", nil, nil)
	require.Equal(t, http.StatusOK, popup.Code)
	assert.Contains(t, popup.Body.String(), strings.ToUpper(placed.OrderID[:8]))
	assert.Contains(t, popup.Body.String(), `data-unread-count="1"`)

	third := srv.do(t, http.MethodPost, "/orders/api/place-order/", body, nil)
	assert.Equal(t, http.StatusBadRequest, third.Code, "cart was cleared by the first order")
}

func TestNotificationsReadAll(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/orders/api/add-to-cart/", types.AddToCartRequest{
		Product:  types.ProductPayload{Name: "Tomatoes", Price: 25},
		Supplier: types.SupplierPayload{Name: "Depot"},
	}, nil)
	srv.do(t, http.MethodPost, "/orders/api/place-order/", types.PlaceOrderRequest{VendorName: "V"}, nil)

	list := srv.do(t, http.MethodGet, "/notifications/api/?unreadOnly=true", nil, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), `"unread_count":1`)

	readAll := srv.do(t, http.MethodPost, "/notifications/api/read-all/", nil, nil)
	require.Equal(t, http.StatusOK, readAll.Code)
	assert.Contains(t, readAll.Body.String(), `"updated":1`)

	list = srv.do(t, http.MethodGet, "/notifications/api/", nil, nil)
	assert.Contains(t, list.Body.String(), `"unread_count":0`)
}

func TestSupplierSearchRateLimited(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodGet, "/suppliers/api/search/?q=onions", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, fmt.Sprintf("request %d", i))
	}
	blocked := srv.do(t, http.MethodGet, "/suppliers/api/search/?q=onions", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
}

func TestRegisterValidateRoute(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/accounts/api/register/validate/4", map[string]any{
		"values": map[string]any{"terms": true},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"complete":true`)
}
